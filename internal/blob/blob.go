// Package blob provides the key/value object storage underneath the
// versioned graph trees: local filesystem (default), in-memory (tests), and
// S3-compatible backends behind one interface.
package blob

import (
	"context"
	"errors"
	"fmt"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem is the local filesystem backend (default, dev).
	DriverFilesystem Driver = "fs"
	// DriverS3 is an S3 / MinIO compatible backend.
	DriverS3 Driver = "s3"
	// DriverMemory is the in-memory backend used in tests.
	DriverMemory Driver = "memory"
)

// ErrNotExist is returned by Read when no object is stored under a key.
var ErrNotExist = errors.New("blob: object does not exist")

// Store is the storage contract the versioned graph trees run on. Write
// replaces any existing object under the key; immutability of archives is
// enforced a layer up via Exists.
type Store interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Driver() Driver
}

// Options selects and parameterizes a backend.
type Options struct {
	Driver Driver
	FSRoot string // driver=fs: directory root (default ./data)
	S3     S3Options
}

// S3Options parameterizes the s3 driver.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for MinIO
	AccessKeyID     string // optional (falls back to the default credentials chain)
	SecretAccessKey string
	PathStyle       bool
}

// Open constructs the Store selected by opts.Driver (default fs).
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(opts.FSRoot)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
