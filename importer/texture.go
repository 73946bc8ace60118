package importer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
	"github.com/mwantia/assetdb/data"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func importTexture(req *Request, thumbnailSize int) (*Result, error) {
	switch data.Ext(req.AssetPath) {
	case ".dds":
		return importDDS(req.Content)
	case ".tga":
		return importTGA(req.Content)
	}

	if !filetype.IsImage(req.Content) {
		return nil, fmt.Errorf("%w: content is not an image", data.ErrUnsupported)
	}

	kind, err := filetype.Match(req.Content)
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(req.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", kind.Extension, err)
	}

	thumbnail, err := makeThumbnail(img, thumbnailSize)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &Result{
		Payload: &data.TextureData{
			Width:     bounds.Dx(),
			Height:    bounds.Dy(),
			Format:    format,
			Thumbnail: thumbnail,
			Source:    req.Content,
		},
	}, nil
}

// makeThumbnail scales img to fit a size x size square, keeping its aspect.
func makeThumbnail(img image.Image, size int) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: empty image", data.ErrUnsupported)
	}

	tw, th := size, size
	if w > h {
		th = max(1, h*size/w)
	} else if h > w {
		tw = max(1, w*size/h)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, transform.Resize(img, tw, th, transform.Linear)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// importDDS reads the dimensions from the DDS header and keeps the
// compressed surface as is.
func importDDS(content []byte) (*Result, error) {
	if len(content) < 128 || string(content[:4]) != "DDS " {
		return nil, fmt.Errorf("%w: invalid dds header", data.ErrUnsupported)
	}

	height := binary.LittleEndian.Uint32(content[12:16])
	width := binary.LittleEndian.Uint32(content[16:20])

	return &Result{
		Payload: &data.TextureData{
			Width:  int(width),
			Height: int(height),
			Format: "dds",
			Source: content,
		},
	}, nil
}

// importTGA reads the dimensions from the TGA header; pixel data is kept.
func importTGA(content []byte) (*Result, error) {
	if len(content) < 18 {
		return nil, fmt.Errorf("%w: invalid tga header", data.ErrUnsupported)
	}

	width := binary.LittleEndian.Uint16(content[12:14])
	height := binary.LittleEndian.Uint16(content[14:16])
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: tga without dimensions", data.ErrUnsupported)
	}

	return &Result{
		Payload: &data.TextureData{
			Width:  int(width),
			Height: int(height),
			Format: "tga",
			Source: content,
		},
	}, nil
}
