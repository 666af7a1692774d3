package storage

import (
	"context"
	"io"
)

// Provider abstracts where reported audio payloads live. Keys are opaque to
// callers; the history store derives them from audio ids.
type Provider interface {
	CreateBucket(ctx context.Context, bucket string) error

	GetObject(ctx context.Context, bucket, key string) ([]byte, error)

	PutObject(ctx context.Context, bucket, key string, data io.Reader) error

	DeleteObject(ctx context.Context, bucket, key string) error

	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
}
