// Package proof is the upload boundary for claim evidence. The settlement
// core only ever consumes the descriptor this package returns; artifact
// contents stay in object storage and are never inspected.
package proof

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"settlement-service/internal/config"
	"settlement-service/internal/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArtifactBucket holds uploaded proof-of-loss artifacts keyed by policy id.
const ArtifactBucket = "proof-artifacts"

// Store wraps the MinIO client with proof-artifact specific operations.
type Store struct {
	client *minio.Client
	config config.MinioConfig
}

func NewStore(cfg config.MinioConfig) (*Store, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		slog.Warn("invalid MinIO secure flag, defaulting to false", "error", err)
		isSecure = false
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, ArtifactBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO server: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, ArtifactBucket, minio.MakeBucketOptions{Region: cfg.MinioLocation}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", ArtifactBucket, err)
		}
	}

	slog.Info("connected to MinIO", "endpoint", endpoint, "bucket", ArtifactBucket)
	return &Store{client: client, config: cfg}, nil
}

// Upload stores one artifact under the policy's prefix and returns the
// updated descriptor for that policy's proof set.
func (s *Store) Upload(ctx context.Context, policyID uuid.UUID, filename string, reader io.Reader, size int64) (models.ProofDescriptor, error) {
	objectName := fmt.Sprintf("%s/%d-%s", policyID, time.Now().UnixNano(), filename)
	_, err := s.client.PutObject(ctx, ArtifactBucket, objectName, reader, size, minio.PutObjectOptions{})
	if err != nil {
		return models.ProofDescriptor{}, fmt.Errorf("failed to store proof artifact: %w", err)
	}
	return s.Describe(ctx, policyID)
}

// Describe summarizes the artifacts uploaded for a policy without reading
// their contents.
func (s *Store) Describe(ctx context.Context, policyID uuid.UUID) (models.ProofDescriptor, error) {
	descriptor := models.ProofDescriptor{}
	objects := s.client.ListObjects(ctx, ArtifactBucket, minio.ListObjectsOptions{
		Prefix:    policyID.String() + "/",
		Recursive: true,
	})
	for object := range objects {
		if object.Err != nil {
			return models.ProofDescriptor{}, fmt.Errorf("failed to list proof artifacts: %w", object.Err)
		}
		descriptor.ArtifactCount++
		descriptor.TotalBytes += object.Size
		descriptor.LastObject = object.Key
	}
	descriptor.Supplied = descriptor.ArtifactCount > 0
	return descriptor, nil
}
