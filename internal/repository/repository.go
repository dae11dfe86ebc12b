package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mediadrop/gateway/internal/domain"
)

var (
	ErrNotFound = RepositoryError("not found")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UploadRepository persists upload metadata. The gateway treats it as
// best-effort bookkeeping: a nil repository disables it and the upload
// pipeline never depends on its success.
type UploadRepository interface {
	Create(ctx context.Context, record *domain.UploadRecord) (primitive.ObjectID, error)
	GetByKey(ctx context.Context, key string) (*domain.UploadRecord, error)
	ListRecent(ctx context.Context, limit int64) ([]domain.UploadRecord, error)
}
