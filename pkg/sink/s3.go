package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/meshkit/telemetry/pkg/event"
)

// S3API is the subset of the S3 client the sink uses, extracted so tests
// can fake it.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink writes each batch as one JSON object under a date-partitioned key.
type S3Sink struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Sink creates an S3 sink writing to bucket under prefix.
func NewS3Sink(client S3API, bucket, prefix string) *S3Sink {
	if prefix == "" {
		prefix = "telemetry"
	}
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Sink) Name() string { return "s3" }

// objectKey builds prefix/YYYY/MM/DD/<uuid>.json so batches partition by
// day for downstream batch jobs.
func (s *S3Sink) objectKey(now time.Time) string {
	return fmt.Sprintf("%s/%s/%s.json", s.prefix, now.UTC().Format("2006/01/02"), uuid.NewString())
}

// Deliver uploads the whole batch as a single object.
func (s *S3Sink) Deliver(ctx context.Context, batch event.Batch) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Events: len(batch), Err: err}
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(time.Now())),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Events: len(batch), Err: err}
	}
	return nil
}
