package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
)

const S3BackendName = "s3"

type S3Config struct {
	Bucket      string
	Region      string
	AccessKeyID string
	SecretKey   string
	// Endpoint enables S3-compatible stores (MinIO, R2).
	Endpoint     string
	UsePathStyle bool
	PublicBase   string
}

type s3Backend struct {
	log        *logger.Logger
	client     *s3.Client
	bucket     string
	publicBase string
	disabled   bool
}

func NewS3Backend(ctx context.Context, log *logger.Logger, cfg S3Config) (Backend, error) {
	blog := log.With("service", "S3Storage")

	bucket := strings.TrimSpace(cfg.Bucket)
	accessKey := strings.TrimSpace(cfg.AccessKeyID)
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if bucket == "" || accessKey == "" || secretKey == "" {
		blog.Warn("S3 bucket or credentials not set; backend registered as unavailable")
		return &s3Backend{log: blog, disabled: true}, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{URL: cfg.Endpoint, PartitionID: "aws", SigningRegion: cfg.Region}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	publicBase := strings.TrimRight(strings.TrimSpace(cfg.PublicBase), "/")
	if publicBase == "" {
		if cfg.Endpoint != "" {
			publicBase = strings.TrimRight(cfg.Endpoint, "/") + "/" + bucket
		} else {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, cfg.Region)
		}
	}

	blog.Info("S3 storage initialized", "bucket", bucket, "region", cfg.Region, "endpoint", cfg.Endpoint)
	return &s3Backend{
		log:        blog,
		client:     client,
		bucket:     bucket,
		publicBase: publicBase,
	}, nil
}

func (b *s3Backend) Name() string { return S3BackendName }

func (b *s3Backend) IsAvailable(ctx context.Context) bool {
	if b.disabled || b.client == nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := b.client.HeadBucket(probeCtx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)})
	if err != nil {
		b.log.Debug("S3 availability probe failed", "bucket", b.bucket, "error", err)
		return false
	}
	return true
}

func (b *s3Backend) Upload(ctx context.Context, in UploadInput) (*StoredObject, error) {
	if b.disabled {
		return nil, fmt.Errorf("s3 storage not configured")
	}

	key := objectKey(in.Filename)
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   in.Body,
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}
	if in.CacheControl != "" {
		input.CacheControl = aws.String(in.CacheControl)
	}
	if _, err := b.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("put s3 object: %w", err)
	}

	head, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	size := int64(0)
	if err == nil && head.ContentLength != nil {
		size = *head.ContentLength
	}

	return &StoredObject{
		PublicURL: b.PublicURL(key),
		Path:      key,
		Size:      size,
		Provider:  b.Name(),
	}, nil
}

func (b *s3Backend) PublicURL(path string) string {
	return b.publicBase + "/" + path
}
