// Package storage adapts S3 compatible object stores to port.ObjectStorage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/infra/config"
)

// Presigner signs PutObject requests.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Deleter removes objects.
type Deleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage issues presigned uploads and deletes objects in one bucket.
type S3Storage struct {
	bucket     string
	publicBase string
	ttl        time.Duration
	presigner  Presigner
	deleter    Deleter
}

// NewS3Storage builds an S3 client from static credentials, or the default AWS
// credential chain when none are configured. A custom endpoint targets MinIO and friends.
func NewS3Storage(ctx context.Context, cfg config.StorageSettings) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3StorageWithClients(cfg, s3.NewPresignClient(client), client), nil
}

// NewS3StorageWithClients wires the storage over explicit presign and delete clients.
func NewS3StorageWithClients(cfg config.StorageSettings, presigner Presigner, deleter Deleter) *S3Storage {
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Storage{
		bucket:     cfg.Bucket,
		publicBase: publicBase(cfg),
		ttl:        ttl,
		presigner:  presigner,
		deleter:    deleter,
	}
}

func publicBase(cfg config.StorageSettings) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// PresignPut returns a URL the client can PUT the file body to directly.
func (s *S3Storage) PresignPut(ctx context.Context, key, contentType string, size int64) (port.PresignedUpload, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}

	req, err := s.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return port.PresignedUpload{}, fmt.Errorf("presign put %s: %w", key, err)
	}

	headers := make(map[string]string, len(req.SignedHeader))
	for name, values := range req.SignedHeader {
		if strings.EqualFold(name, "host") || len(values) == 0 {
			continue
		}
		headers[http.CanonicalHeaderKey(name)] = values[0]
	}

	method := req.Method
	if method == "" {
		method = http.MethodPut
	}

	return port.PresignedUpload{
		URL:       req.URL,
		Method:    method,
		Headers:   headers,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}, nil
}

// Delete removes the object stored under key.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the address the object is served from once uploaded.
func (s *S3Storage) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicBase + "/" + strings.Join(segments, "/")
}

var _ port.ObjectStorage = (*S3Storage)(nil)
