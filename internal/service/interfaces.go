// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/payload_store_mock.go -package=mock

// PayloadStore reads and writes decrypted inner XML payloads. It is
// implemented by store.FilePayloadStore.
type PayloadStore interface {
	Load(ctx context.Context, path string) ([]byte, error)
	Save(ctx context.Context, path string, data []byte) error
}
