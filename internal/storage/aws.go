package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Archive writes served report snapshots to S3 for offline analysis.
type S3Archive struct {
	client *s3.Client
	bucket string
}

// NewS3Archive creates an archive targeting the given bucket.
func NewS3Archive(ctx context.Context, bucket, region, profile string) (*S3Archive, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Archive{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Save writes one snapshot. Object names are date-partitioned and carry a
// random suffix so re-served requests never overwrite each other.
func (a *S3Archive) Save(ctx context.Context, key string, payload []byte) error {
	objectKey := fmt.Sprintf("snapshots/%s/%s-%s.json",
		time.Now().UTC().Format("2006-01-02"), key, uuid.New().String())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot to S3: %w", err)
	}
	return nil
}
