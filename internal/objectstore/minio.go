package objectstore

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nguyentantai21042004/minutes-flow/internal/config"
	"github.com/nguyentantai21042004/minutes-flow/internal/logger"
)

type minioPublisher struct {
	client *minio.Client
	bucket string
	prefix string
	logger logger.Logger
}

// New connects to the configured S3/MinIO endpoint and makes sure the bucket
// exists.
func New(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (Publisher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		log.Info(ctx, "Bucket %s does not exist, creating it", cfg.Bucket)
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &minioPublisher{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, logger: log}, nil
}

func (p *minioPublisher) Publish(ctx context.Context, runID string, paths []string) ([]string, error) {
	objects := make([]string, 0, len(paths))
	for _, file := range paths {
		object := ObjectKey(p.prefix, runID, file)
		info, err := p.client.FPutObject(ctx, p.bucket, object, file, minio.PutObjectOptions{
			ContentType: ContentType(file),
		})
		if err != nil {
			return objects, fmt.Errorf("upload %s: %w", file, err)
		}
		p.logger.Debug(ctx, "Uploaded %s (%d bytes) to %s/%s", file, info.Size, p.bucket, object)
		objects = append(objects, object)
	}
	return objects, nil
}

// ObjectKey places a run's artifact under <prefix>/<runID>/<file name>.
func ObjectKey(prefix, runID, file string) string {
	return path.Join(strings.Trim(prefix, "/"), runID, filepath.Base(file))
}

// ContentType picks the upload content type from the artifact extension.
func ContentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}
