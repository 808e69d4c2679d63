package ledgerexport

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// UploadResult represents the result of an upload
type UploadResult struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	ETag   string `json:"etag"`
	Size   int64  `json:"size"`
}

// S3Uploader writes exports to an S3-compatible bucket
type S3Uploader struct {
	s3Client *s3.Client
	bucket   string
}

// NewS3Uploader creates the client and checks that the bucket is reachable
func NewS3Uploader(ctx context.Context, cfg *Config) (*S3Uploader, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("ledger export is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	if _, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.BucketName)}); err != nil {
		return nil, fmt.Errorf("bucket %s not accessible: %w", cfg.BucketName, err)
	}

	log.Infof("[LedgerExport] Initialized S3 client for bucket: %s", cfg.BucketName)
	return &S3Uploader{s3Client: s3Client, bucket: cfg.BucketName}, nil
}

// Upload stores body under key
func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (*UploadResult, error) {
	out, err := u.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload s3://%s/%s: %w", u.bucket, key, err)
	}

	result := &UploadResult{
		Bucket: u.bucket,
		Key:    key,
		Size:   int64(len(body)),
	}
	if out.ETag != nil {
		result.ETag = *out.ETag
	}
	log.Infof("[LedgerExport] Uploaded s3://%s/%s (%d bytes)", u.bucket, key, result.Size)
	return result, nil
}
