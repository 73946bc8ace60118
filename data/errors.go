package data

import (
	"errors"
	"sync"
)

// Standard errors that stores, importers and the registry should use.
var (
	// Path resolution errors
	ErrInvalidPath = errors.New("assetdb: invalid path detected")
	ErrOutsideRoot = errors.New("assetdb: path outside of asset root")

	// Backend errors
	ErrBackendUnsupported = errors.New("assetdb: backend unsupported")
	ErrBackendClosed      = errors.New("assetdb: backend closed")

	// File and record errors
	ErrNotExist     = errors.New("assetdb: file does not exist")
	ErrExist        = errors.New("assetdb: file already exists")
	ErrIsDirectory  = errors.New("assetdb: is a directory")
	ErrNotDirectory = errors.New("assetdb: not a directory")
	ErrPermission   = errors.New("assetdb: permission denied")
	ErrReadOnly     = errors.New("assetdb: filesystem is read-only")
	ErrMalformed    = errors.New("assetdb: malformed metadata")

	// Import errors
	ErrUnsupported  = errors.New("assetdb: unsupported asset type")
	ErrImportFailed = errors.New("assetdb: import failed")
	ErrCorrupt      = errors.New("assetdb: corrupt library artifact")

	// Registry errors
	ErrDuplicateID   = errors.New("assetdb: duplicate resource identity")
	ErrDuplicatePath = errors.New("assetdb: duplicate asset path")
	ErrInvalid       = errors.New("assetdb: invalid argument")
	ErrInUse         = errors.New("assetdb: resource still referenced")
)

type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.errors)
}

func (e *Errors) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = make([]error, 0)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
