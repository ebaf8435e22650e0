// SPDX-License-Identifier: MIT

// Package blobstore is where finished result volumes are uploaded.
//
// Store is a minimal put/get interface over named blobs. LocalStore writes to
// a directory, MemoryStore keeps blobs in memory, and the minio subpackage
// targets MinIO and other S3-compatible object stores. Implementations are
// safe for concurrent use.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrNotFound is returned by Get for a blob that does not exist.
	ErrNotFound = errors.New("blobstore: not found")
	// ErrInvalidName indicates an empty blob name or one escaping the store root.
	ErrInvalidName = errors.New("blobstore: invalid blob name")
)

// Store reads and writes named blobs.
type Store interface {
	// Put stores size bytes from r under name, replacing any existing blob.
	// size may be -1 when unknown.
	Put(ctx context.Context, name string, r io.Reader, size int64) error
	// Get opens the blob stored under name. Missing blobs yield ErrNotFound.
	Get(ctx context.Context, name string) (io.ReadCloser, error)
}

// PutFile uploads the local file at path under name.
func PutFile(ctx context.Context, s Store, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if err = s.Put(ctx, name, f, info.Size()); err != nil {
		return fmt.Errorf("blobstore: put %s: %w", name, err)
	}

	return nil
}
