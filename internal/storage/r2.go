package storage

import (
	"context"

	"mediadrop/gateway/internal/config"
	"mediadrop/gateway/internal/domain"
)

// r2Provider targets R2-compatible services behind a custom endpoint. R2 has
// no conventional public URL form, so a configured public base URL is
// mandatory; the check runs before any client is built so a bad configuration
// never reaches the backend.
type r2Provider struct {
	api       putObjectAPI
	bucket    string
	publicURL string
}

func newR2Provider(cfg config.StorageConfig) (*r2Provider, error) {
	if cfg.Endpoint == "" {
		return nil, domain.NewConfigError("R2 storage requires STORAGE_ENDPOINT to be set")
	}
	if cfg.PublicURL == "" {
		return nil, domain.NewConfigError("R2 storage requires STORAGE_PUBLIC_URL to be set")
	}
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &r2Provider{
		api:       client,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
	}, nil
}

func (p *r2Provider) Upload(ctx context.Context, in UploadInput) (*domain.StoredObject, error) {
	if err := putObject(ctx, p.api, p.bucket, in); err != nil {
		return nil, err
	}
	return &domain.StoredObject{
		URL:  publicObjectURL(p.publicURL, in.Key),
		Key:  in.Key,
		Size: int64(len(in.Body)),
	}, nil
}
