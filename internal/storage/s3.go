package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // S3-compatible endpoint, e.g. MinIO or R2
	AccessKey string
	SecretKey string
}

// S3Archiver mirrors final PDFs into an S3-compatible bucket.
type S3Archiver struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

func NewS3Archiver(cfg S3Config) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 archive requires a bucket")
	}

	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &S3Archiver{
		client:   s3.New(opts),
		bucket:   cfg.Bucket,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
	}, nil
}

func (a *S3Archiver) Archive(ctx context.Context, objectName string, content []byte, contentType string) (*UploadResult, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectName),
		Body:   bytes.NewReader(content),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to put %s to S3: %w", objectName, err)
	}

	result := &UploadResult{ObjectName: objectName, Size: int64(len(content))}
	if a.endpoint != "" {
		result.PublicURL = fmt.Sprintf("%s/%s/%s", a.endpoint, a.bucket, objectName)
	}
	return result, nil
}
