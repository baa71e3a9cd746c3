package s3

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PhotoStorage stores listing photos and returns their public URL.
type PhotoStorage interface {
	UploadListingPhoto(ctx context.Context, listingID, fileName, contentType string, data []byte) (string, error)
}

type S3Storage struct {
	client *minio.Client
	bucket string
	log    logger.Logger
}

func NewS3Storage(ctx context.Context, cfg config.MinIOConfig, log logger.Logger) (*S3Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to make bucket %s: %w", cfg.Bucket, err)
		}
		log.Infof("S3Storage: bucket %s created", cfg.Bucket)
	}

	return &S3Storage{client: client, bucket: cfg.Bucket, log: log}, nil
}

func (s *S3Storage) UploadListingPhoto(ctx context.Context, listingID, fileName, contentType string, data []byte) (string, error) {
	objectKey := ObjectKey(listingID, fileName)

	info, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"listing-id": listingID},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}
	s.log.Infof("S3Storage: uploaded %s (%d bytes, etag %s)", info.Key, info.Size, info.ETag)

	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey), nil
}

// ObjectKey places photos under the listing's prefix with a random name that keeps the extension.
func ObjectKey(listingID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("listings/%s/%s%s", listingID, uuid.NewString(), ext)
}
