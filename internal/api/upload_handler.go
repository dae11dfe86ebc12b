package api

import (
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mediadrop/gateway/internal/config"
	"mediadrop/gateway/internal/domain"
	"mediadrop/gateway/internal/repository"
	"mediadrop/gateway/internal/session"
	"mediadrop/gateway/internal/storage"
)

// UploadHandler orchestrates the upload pipeline: authorize, validate,
// generate a key, delegate to the storage provider, map errors to a response.
type UploadHandler struct {
	cfg     *config.ServerConfig
	codec   *session.Codec
	uploads repository.UploadRepository

	// Injection points for tests; production wiring uses the package defaults.
	loadStorage func() (config.StorageConfig, error)
	newProvider func(config.StorageConfig) (storage.Provider, error)
}

// NewUploadHandler creates an UploadHandler. uploads may be nil; upload
// records are then skipped entirely.
func NewUploadHandler(cfg *config.ServerConfig, codec *session.Codec, uploads repository.UploadRepository) *UploadHandler {
	return &UploadHandler{
		cfg:         cfg,
		codec:       codec,
		uploads:     uploads,
		loadStorage: config.LoadStorage,
		newProvider: storage.New,
	}
}

// Upload handles POST /upload. Steps run sequentially and fail fast; either
// the whole pipeline completes and one JSON object describes the stored
// object, or one error object comes back.
func (h *UploadHandler) Upload(c *gin.Context) {
	// The edge gate already ran, but the handler verifies the session on its
	// own rather than trusting context state set by another layer.
	user, err := h.authorize(c)
	if err != nil {
		writeError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, domain.NewValidationError("no file provided"))
		return
	}

	storageCfg, err := h.loadStorage()
	if err != nil {
		writeError(c, err)
		return
	}

	if storageCfg.MaxFileSize > 0 && fileHeader.Size > storageCfg.MaxFileSize {
		writeError(c, domain.NewValidationError("file exceeds the maximum allowed size of %d bytes", storageCfg.MaxFileSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, domain.NewValidationError("failed to read file"))
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		writeError(c, domain.NewValidationError("failed to read file"))
		return
	}
	// The multipart header's size can lie; the buffer is authoritative.
	if storageCfg.MaxFileSize > 0 && int64(len(body)) > storageCfg.MaxFileSize {
		writeError(c, domain.NewValidationError("file exceeds the maximum allowed size of %d bytes", storageCfg.MaxFileSize))
		return
	}

	provider, err := h.newProvider(storageCfg)
	if err != nil {
		writeError(c, err)
		return
	}

	key := objectKey(fileHeader.Filename)
	contentType := fileHeader.Header.Get("Content-Type")

	obj, err := provider.Upload(c.Request.Context(), storage.UploadInput{
		Key:         key,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("upload failed")
		writeError(c, err)
		return
	}

	h.record(c, user, obj, fileHeader.Filename, contentType)

	c.JSON(http.StatusOK, obj)
}

// authorize re-verifies the session independently of the edge gate. With
// role-gating disabled it allows anonymous uploads.
func (h *UploadHandler) authorize(c *gin.Context) (*domain.SessionUser, error) {
	if !h.cfg.Discord.Enabled() {
		return nil, nil
	}

	token, err := c.Cookie(h.cfg.CookieName)
	if err != nil {
		return nil, domain.NewAuthError("authentication required")
	}
	user, err := h.codec.Unseal(token)
	if err != nil {
		return nil, domain.NewAuthError("authentication required")
	}
	if !user.HasRole(h.cfg.Discord.RoleID) {
		return nil, domain.NewAuthError("missing required role")
	}
	return user, nil
}

// record persists upload metadata best-effort. Failures are logged and never
// affect the response; the object is already committed.
func (h *UploadHandler) record(c *gin.Context, user *domain.SessionUser, obj *domain.StoredObject, originalName, contentType string) {
	if h.uploads == nil {
		return
	}

	rec := &domain.UploadRecord{
		Key:          obj.Key,
		URL:          obj.URL,
		Size:         obj.Size,
		ContentType:  contentType,
		OriginalName: originalName,
	}
	if user != nil {
		rec.UploaderID = user.ID
	}

	if _, err := h.uploads.Create(c.Request.Context(), rec); err != nil {
		logrus.WithError(err).WithField("key", obj.Key).Warn("failed to record upload")
	}
}

// ListUploads handles GET /uploads: the most recent upload records, newest
// first. Answers 404 when no record database is configured.
func (h *UploadHandler) ListUploads(c *gin.Context) {
	if h.uploads == nil {
		abortWithError(c, http.StatusNotFound, "upload records are not enabled")
		return
	}

	records, err := h.uploads.ListRecent(c.Request.Context(), 50)
	if err != nil {
		logrus.WithError(err).Error("failed to list upload records")
		abortWithError(c, http.StatusInternalServerError, "failed to list uploads")
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": records})
}

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// objectKey builds "{unix-milli}-{8 base36 chars}{.ext}". Collision avoidance
// is timestamp plus randomness with no existence check; the residual race is
// accepted.
func objectKey(originalName string) string {
	suffix := make([]byte, 8)
	random := make([]byte, 8)
	_, _ = rand.Read(random)
	for i, b := range random {
		suffix[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if ext == "" {
		return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
	}
	return fmt.Sprintf("%d-%s.%s", time.Now().UnixMilli(), suffix, ext)
}
