package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"mediadrop/gateway/internal/config"
	"mediadrop/gateway/internal/domain"
)

// s3Provider targets AWS S3 proper. If a custom endpoint is configured it is
// honored, but unlike the R2 variant none is required.
type s3Provider struct {
	api       putObjectAPI
	bucket    string
	region    string
	publicURL string
}

func newS3Provider(cfg config.StorageConfig) (*s3Provider, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &s3Provider{
		api:       client,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		publicURL: cfg.PublicURL,
	}, nil
}

func (p *s3Provider) Upload(ctx context.Context, in UploadInput) (*domain.StoredObject, error) {
	if err := putObject(ctx, p.api, p.bucket, in); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, in.Key)
	if p.publicURL != "" {
		url = publicObjectURL(p.publicURL, in.Key)
	}

	return &domain.StoredObject{
		URL:  url,
		Key:  in.Key,
		Size: int64(len(in.Body)),
	}, nil
}

// newClient builds an S3 client scoped to exactly the validated configuration.
// Region and credentials are pinned explicitly, so nothing is picked up from
// the ambient AWS environment.
func newClient(cfg config.StorageConfig) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, domain.NewConfigError("load storage client config: %v", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Path-style addressing is what S3-compatible services expect.
			o.UsePathStyle = true
		}
	}), nil
}

// putObject performs the single logical write shared by both variants. The
// SDK uploads the buffer in one PutObject call, so the object is either fully
// visible afterward or the call failed.
func putObject(ctx context.Context, api putObjectAPI, bucket string, in UploadInput) error {
	_, err := api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(in.Key),
		Body:          bytes.NewReader(in.Body),
		ContentType:   aws.String(in.ContentType),
		ContentLength: aws.Int64(int64(len(in.Body))),
	})
	if err != nil {
		return domain.NewStorageError(err, "put object %q to bucket %q", in.Key, bucket)
	}
	return nil
}
