package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"mediadrop/gateway/internal/config"
	"mediadrop/gateway/internal/domain"
)

// fakePutObjectAPI records PutObject calls and optionally fails them.
type fakePutObjectAPI struct {
	calls []*s3.PutObjectInput
	err   error
}

func (f *fakePutObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{ETag: aws.String(`"etag"`)}, nil
}

func s3Config() config.StorageConfig {
	return config.StorageConfig{
		Provider:        config.ProviderS3,
		Bucket:          "media",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
	}
}

func r2Config() config.StorageConfig {
	return config.StorageConfig{
		Provider:        config.ProviderR2,
		Bucket:          "media",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Endpoint:        "https://accountid.r2.cloudflarestorage.com",
		PublicURL:       "https://cdn.example.com",
	}
}

func TestNewSelectsVariant(t *testing.T) {
	p, err := New(s3Config())
	if err != nil {
		t.Fatalf("New(s3): %v", err)
	}
	if _, ok := p.(*s3Provider); !ok {
		t.Fatalf("New(s3) = %T, want *s3Provider", p)
	}

	p, err = New(r2Config())
	if err != nil {
		t.Fatalf("New(r2): %v", err)
	}
	if _, ok := p.(*r2Provider); !ok {
		t.Fatalf("New(r2) = %T, want *r2Provider", p)
	}
}

func TestNewUnsupportedProvider(t *testing.T) {
	cfg := s3Config()
	cfg.Provider = "gcs"
	_, err := New(cfg)
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
}

func TestNewR2RequiresPublicURL(t *testing.T) {
	cfg := r2Config()
	cfg.PublicURL = ""
	_, err := New(cfg)
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for r2 without public URL, got %T: %v", err, err)
	}
}

func TestNewR2RequiresEndpoint(t *testing.T) {
	cfg := r2Config()
	cfg.Endpoint = ""
	_, err := New(cfg)
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for r2 without endpoint, got %T: %v", err, err)
	}
}

func TestS3UploadDefaultURL(t *testing.T) {
	fake := &fakePutObjectAPI{}
	p := &s3Provider{api: fake, bucket: "media", region: "us-east-1"}

	obj, err := p.Upload(context.Background(), UploadInput{
		Key:         "123-abcd1234.png",
		Body:        []byte("payload"),
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	want := "https://media.s3.us-east-1.amazonaws.com/123-abcd1234.png"
	if obj.URL != want {
		t.Errorf("URL = %q, want %q", obj.URL, want)
	}
	if obj.Key != "123-abcd1234.png" {
		t.Errorf("Key = %q", obj.Key)
	}
	if obj.Size != int64(len("payload")) {
		t.Errorf("Size = %d, want %d", obj.Size, len("payload"))
	}

	if len(fake.calls) != 1 {
		t.Fatalf("PutObject called %d times, want 1", len(fake.calls))
	}
	in := fake.calls[0]
	if aws.ToString(in.Bucket) != "media" || aws.ToString(in.Key) != "123-abcd1234.png" {
		t.Errorf("PutObject bucket/key = %q/%q", aws.ToString(in.Bucket), aws.ToString(in.Key))
	}
	if aws.ToString(in.ContentType) != "image/png" {
		t.Errorf("ContentType = %q", aws.ToString(in.ContentType))
	}
	body, _ := io.ReadAll(in.Body)
	if string(body) != "payload" {
		t.Errorf("Body = %q", body)
	}
}

func TestS3UploadPublicURLOverride(t *testing.T) {
	p := &s3Provider{api: &fakePutObjectAPI{}, bucket: "media", region: "us-east-1", publicURL: "https://cdn.example.com/"}

	obj, err := p.Upload(context.Background(), UploadInput{Key: "k.png", Body: []byte("x")})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if obj.URL != "https://cdn.example.com/k.png" {
		t.Errorf("URL = %q, trailing slash on the base must not double", obj.URL)
	}
}

func TestR2UploadURL(t *testing.T) {
	fake := &fakePutObjectAPI{}
	p := &r2Provider{api: fake, bucket: "media", publicURL: "https://cdn.example.com"}

	obj, err := p.Upload(context.Background(), UploadInput{Key: "k.bin", Body: []byte("abc")})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if obj.URL != "https://cdn.example.com/k.bin" {
		t.Errorf("URL = %q", obj.URL)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("PutObject called %d times, want 1", len(fake.calls))
	}
}

func TestUploadBackendError(t *testing.T) {
	fake := &fakePutObjectAPI{err: errors.New("bucket not found")}
	p := &s3Provider{api: fake, bucket: "media", region: "us-east-1"}

	_, err := p.Upload(context.Background(), UploadInput{Key: "k", Body: []byte("x")})
	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %T: %v", err, err)
	}
}

func TestPublicObjectURL(t *testing.T) {
	cases := []struct{ base, key, want string }{
		{"https://cdn.example.com", "k", "https://cdn.example.com/k"},
		{"https://cdn.example.com/", "k", "https://cdn.example.com/k"},
		{"https://cdn.example.com//", "k", "https://cdn.example.com/k"},
	}
	for _, tc := range cases {
		if got := publicObjectURL(tc.base, tc.key); got != tc.want {
			t.Errorf("publicObjectURL(%q, %q) = %q, want %q", tc.base, tc.key, got, tc.want)
		}
	}
}
