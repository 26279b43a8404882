// Package s3 stores capsule content in an S3-compatible bucket (MinIO locally).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/ghuser/timecapsule/pkg/config"
	capsuledomain "github.com/ghuser/timecapsule/services/capsule/domain"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

const keyPrefix = "capsules/"

// objectAPI is the subset of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// ContentStore implements gateways.ContentStore on S3.
type ContentStore struct {
	api       objectAPI
	bucket    string
	publicURL string
}

// NewContentStore builds an S3 client against cfg.MinioEndpoint with static
// credentials and path-style addressing, which MinIO and LocalStack require.
func NewContentStore(ctx context.Context, cfg *config.Config) (*ContentStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.MinioRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.MinioRootUser, cfg.MinioRootPassword, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.MinioEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.MinioEndpoint)
			o.UsePathStyle = true
		}
	})

	return newContentStore(client, cfg.MinioBucket, cfg.ContentPublicURL), nil
}

func newContentStore(api objectAPI, bucket, publicURL string) *ContentStore {
	return &ContentStore{
		api:       api,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Store uploads content under a random key and returns its public URL.
func (s *ContentStore) Store(ctx context.Context, content models.Content) (models.ContentRef, error) {
	key := keyPrefix + uuid.NewString() + content.Extension()
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content.Data),
		ContentType:   aws.String(content.ContentType),
		ContentLength: aws.Int64(int64(len(content.Data))),
	})
	if err != nil {
		return "", &capsuledomain.StorageError{Reason: classify(err), Err: err}
	}
	return models.ContentRef(s.publicURL + "/" + key), nil
}

// Ping checks that the bucket exists and is reachable.
func (s *ContentStore) Ping(ctx context.Context) error {
	if _, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("s3 head bucket %s: %w", s.bucket, err)
	}
	return nil
}

func classify(err error) capsuledomain.StorageReason {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return capsuledomain.StorageNetworkError
	}
	switch apiErr.ErrorCode() {
	case "NoSuchBucket", "NotFound":
		return capsuledomain.StorageBucketMissing
	case "QuotaExceeded", "EntityTooLarge", "XMinioStorageFull", "XMinioAdminBucketQuotaExceeded":
		return capsuledomain.StorageQuotaExceeded
	default:
		return capsuledomain.StorageNetworkError
	}
}
