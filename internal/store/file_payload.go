// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MKhiriev/go-kdbx/internal/logger"
)

// payloadFileMode is the permission of written payloads. The payload holds
// every unprotected field of the database in clear text.
const payloadFileMode fs.FileMode = 0o600

// FilePayloadStore persists decrypted inner XML payloads on the local file
// system.
//
// Writes are atomic: the payload goes to a temporary file in the destination
// directory, is synced, and then renamed over the target, so a reader never
// observes a half-written document.
type FilePayloadStore struct {
	// logger is used for structured diagnostic logging at the storage layer.
	logger *logger.Logger
}

// NewFilePayloadStore constructs a [FilePayloadStore].
func NewFilePayloadStore(logger *logger.Logger) *FilePayloadStore {
	return &FilePayloadStore{logger: logger}
}

// Load reads the payload stored at path.
//
// Returns [ErrPayloadNotFound] (wrapped) if the file does not exist and
// [ErrEmptyPath] if path is empty.
func (s *FilePayloadStore) Load(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrPayloadNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload %s: %w", path, err)
	}

	s.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("payload loaded")
	return data, nil
}

// Save atomically replaces the payload at path with data.
//
// The context is checked before the temporary file is created and again
// before it is renamed into place; a cancelled save leaves the previous
// payload untouched.
func (s *FilePayloadStore) Save(ctx context.Context, path string, data []byte) (err error) {
	if path == "" {
		return ErrEmptyPath
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrPayloadNotSaved, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(payloadFileMode); err != nil {
		return fmt.Errorf("%w: chmod temp file: %w", ErrPayloadNotSaved, err)
	}
	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("%w: write temp file: %w", ErrPayloadNotSaved, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync temp file: %w", ErrPayloadNotSaved, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %w", ErrPayloadNotSaved, err)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: rename into place: %w", ErrPayloadNotSaved, err)
	}

	s.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("payload saved")
	return nil
}
