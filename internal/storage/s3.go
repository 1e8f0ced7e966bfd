package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store файлы в бакете S3 (или совместимом, например MinIO)
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store берёт регион и креды из стандартной цепочки AWS SDK
func NewS3Store(ctx context.Context, bucket, prefix, endpoint string, pathStyle bool) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = pathStyle
	})

	return &S3Store{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *S3Store) Put(ctx context.Context, name string, body io.Reader, contentType string) (string, error) {
	key := s.objectKey(name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// objectKey ключ всегда внутри prefix: от имени остаётся только последний элемент
func (s *S3Store) objectKey(name string) string {
	return path.Join(s.prefix, path.Base(name))
}
