package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mediadrop/gateway/internal/config"
	"mediadrop/gateway/internal/domain"
	"mediadrop/gateway/internal/repository"
	"mediadrop/gateway/internal/session"
)

const (
	testSecret       = "a-sufficiently-long-secret"
	testRequiredRole = "role-uploader"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testServerConfig(gating bool) *config.ServerConfig {
	cfg := &config.ServerConfig{
		Address:       ":0",
		SessionSecret: testSecret,
		CookieName:    config.DefaultCookieName,
		SessionTTL:    time.Hour,
	}
	if gating {
		cfg.Discord = config.DiscordConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURI:  "http://localhost:8080/auth/callback",
			GuildID:      "guild-1",
			RoleID:       testRequiredRole,
		}
	}
	return cfg
}

func newTestCodec(t *testing.T) *session.Codec {
	t.Helper()
	codec, err := session.NewCodec(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func newTestRouter(t *testing.T, cfg *config.ServerConfig, identity IdentityExchanger, uploads repository.UploadRepository) (*gin.Engine, *session.Codec) {
	t.Helper()
	codec := newTestCodec(t)
	router := gin.New()
	SetupRoutes(router, cfg, codec, identity, uploads)
	return router, codec
}

func sessionCookie(t *testing.T, cfg *config.ServerConfig, codec *session.Codec, roles ...string) *http.Cookie {
	t.Helper()
	token, err := codec.Seal(&domain.SessionUser{
		ID:          "user-1",
		Username:    "nelly",
		AccessToken: "tok",
		Roles:       roles,
	})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	return &http.Cookie{Name: cfg.CookieName, Value: token}
}

// multipartFile builds a multipart body with one "file" part.
func multipartFile(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}
