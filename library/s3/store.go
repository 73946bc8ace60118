package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/library"
)

// S3Store keeps library artifacts in an S3 compatible bucket so build
// machines can share compiled output.
type S3Store struct {
	mu sync.RWMutex

	client     *minio.Client
	bucketName string
	prefix     string
}

func NewS3Store(endpoint, bucketName, accessKey, secretKey string, useSsl bool) (*S3Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSsl,
	})
	if err != nil {
		return nil, err
	}

	return &S3Store{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// WithPrefix stores every artifact below prefix inside the bucket.
func (ss *S3Store) WithPrefix(prefix string) *S3Store {
	ss.prefix = strings.Trim(prefix, "/")
	return ss
}

// Returns the identifier name defined for this store
func (*S3Store) Name() string {
	return "s3"
}

// Open verifies the bucket exists.
func (ss *S3Store) Open(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	exists, err := ss.client.BucketExists(ctx, ss.bucketName)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("bucket '%s': %w", ss.bucketName, data.ErrNotExist)
	}

	return nil
}

func (ss *S3Store) Close(ctx context.Context) error {
	return nil
}

func (ss *S3Store) objectKey(libraryPath string) string {
	if ss.prefix == "" {
		return libraryPath
	}
	return ss.prefix + "/" + libraryPath
}

func (ss *S3Store) Put(ctx context.Context, libraryPath string, a *library.Artifact) error {
	content, err := library.Encode(a)
	if err != nil {
		return err
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	_, err = ss.client.PutObject(ctx, ss.bucketName, ss.objectKey(libraryPath), bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "application/zstd",
		UserMetadata: map[string]string{
			"Asset-Kind": a.Kind.String(),
			"Asset-Id":   fmt.Sprintf("%d", a.ID),
		},
	})
	return err
}

func (ss *S3Store) Get(ctx context.Context, libraryPath string) (*library.Artifact, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	object, err := ss.client.GetObject(ctx, ss.bucketName, ss.objectKey(libraryPath), minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err)
	}
	defer object.Close()

	content, err := io.ReadAll(object)
	if err != nil {
		return nil, mapError(err)
	}
	return library.Decode(content)
}

func (ss *S3Store) Exists(ctx context.Context, libraryPath string) bool {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	_, err := ss.client.StatObject(ctx, ss.bucketName, ss.objectKey(libraryPath), minio.StatObjectOptions{})
	return err == nil
}

func (ss *S3Store) Remove(ctx context.Context, libraryPath string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	key := ss.objectKey(libraryPath)
	if _, err := ss.client.StatObject(ctx, ss.bucketName, key, minio.StatObjectOptions{}); err != nil {
		return mapError(err)
	}
	return ss.client.RemoveObject(ctx, ss.bucketName, key, minio.RemoveObjectOptions{})
}

func (ss *S3Store) List(ctx context.Context, folder string) ([]string, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	prefix := ss.objectKey(strings.TrimSuffix(folder, "/")) + "/"
	objectsCh := ss.client.ListObjects(ctx, ss.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})

	var paths []string
	for obj := range objectsCh {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}

		key := obj.Key
		if ss.prefix != "" {
			key = strings.TrimPrefix(key, ss.prefix+"/")
		}
		paths = append(paths, key)
	}

	sort.Strings(paths)
	return paths, nil
}

func mapError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return data.ErrNotExist
	}
	return err
}
