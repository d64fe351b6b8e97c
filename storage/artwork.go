package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"musiclib/config"
	"musiclib/core/tracks"
	"musiclib/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArtworkStore keeps track artwork in a MinIO bucket.
type ArtworkStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewArtworkStore 初始化 MinIO 客户端并确保存储桶存在
func NewArtworkStore(ctx context.Context, cfg *config.Config) (*ArtworkStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("[MinIO] bucket created", logger.String("bucket", cfg.MinioBucket))
	}

	publicURL := cfg.MinioPublicURL
	if publicURL == "" {
		publicURL = strings.TrimRight(client.EndpointURL().String(), "/")
	}
	return &ArtworkStore{client: client, bucket: cfg.MinioBucket, publicURL: publicURL}, nil
}

var artworkExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ObjectName is where an upload for trackID is stored. Every upload gets a
// fresh name so cached URLs never show stale images.
func ObjectName(trackID string, up tracks.ArtworkUpload) string {
	ext, ok := artworkExt[up.ContentType]
	if !ok {
		ext = strings.ToLower(path.Ext(up.Filename))
	}
	return path.Join("artwork", trackID, uuid.NewString()+ext)
}

// PutArtwork implements tracks.ArtworkStore.
func (s *ArtworkStore) PutArtwork(ctx context.Context, trackID string, up tracks.ArtworkUpload) (string, error) {
	object := ObjectName(trackID, up)
	size := up.Size
	if size <= 0 {
		size = -1
	}
	_, err := s.client.PutObject(ctx, s.bucket, object, up.Body, size, minio.PutObjectOptions{
		ContentType: up.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传封面失败: %w", err)
	}
	return s.publicURL + "/" + s.bucket + "/" + object, nil
}
