package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadRecord stores metadata about a stored object for auditing. The actual
// bytes live only in the storage backend; this record is best-effort and the
// upload pipeline does not depend on it.
type UploadRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key          string             `bson:"key" json:"key"`
	URL          string             `bson:"url" json:"url"`
	Size         int64              `bson:"size" json:"size"`
	ContentType  string             `bson:"contentType" json:"contentType"`
	OriginalName string             `bson:"originalName" json:"originalName"`
	UploaderID   string             `bson:"uploaderId,omitempty" json:"uploaderId,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
