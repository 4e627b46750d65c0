package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store archives original uploads in an S3-compatible bucket so an
// outcome's source file stays retrievable after analysis.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// UploadBytes implements analysis.ArtifactStore.
func (s *Store) UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", err
	}

	// Public URL when the bucket is public; private buckets need a
	// presigned URL instead.
	return fmt.Sprintf("%s://%s/%s/%s",
		s.client.EndpointURL().Scheme, s.client.EndpointURL().Host, s.bucketName, key), nil
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html"
	case ".csv":
		return "text/csv"
	case ".xml":
		return "application/xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
