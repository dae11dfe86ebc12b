// Package storage persists validated upload payloads in an S3-compatible
// object store and returns their public URL. Two provider variants share one
// capability: default-endpoint S3 and custom-endpoint R2-compatible services.
package storage

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"mediadrop/gateway/internal/config"
	"mediadrop/gateway/internal/domain"
)

// UploadInput is one validated upload payload. Key is the final object key;
// the provider does not rename.
type UploadInput struct {
	Key         string
	Body        []byte
	ContentType string
}

// Provider durably writes a payload under its key and returns the stored
// object. Implementations are safe for concurrent use and retain no
// per-request buffers; errors are never retried here.
type Provider interface {
	Upload(ctx context.Context, in UploadInput) (*domain.StoredObject, error)
}

// putObjectAPI is the slice of the S3 client both variants consume. Tests
// substitute a fake.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// New selects a provider from the validated configuration. This is the only
// place the provider kind is mapped to an implementation; it performs no I/O,
// so a misconfigured variant fails here before any backend call.
func New(cfg config.StorageConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderS3:
		return newS3Provider(cfg)
	case config.ProviderR2:
		return newR2Provider(cfg)
	default:
		return nil, domain.NewConfigError("unsupported storage provider: %q", cfg.Provider)
	}
}

// publicObjectURL joins the operator-configured base URL and the object key,
// tolerating a trailing slash on the base.
func publicObjectURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
