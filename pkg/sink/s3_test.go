package sink

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshkit/telemetry/pkg/event"
)

type fakeS3 struct {
	err    error
	bucket string
	key    string
	body   []byte
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = *params.Bucket
	f.key = *params.Key
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3SinkDelivers(t *testing.T) {
	fake := &fakeS3{}
	s := NewS3Sink(fake, "telemetry-bucket", "")

	require.NoError(t, s.Deliver(context.Background(), testBatch()))

	assert.Equal(t, "telemetry-bucket", fake.bucket)
	assert.True(t, strings.HasPrefix(fake.key, "telemetry/"), "key %q should use default prefix", fake.key)
	assert.True(t, strings.HasSuffix(fake.key, ".json"))

	var got event.Batch
	require.NoError(t, json.Unmarshal(fake.body, &got))
	require.Len(t, got, 2)
	assert.Equal(t, event.KindFeatureUse, got[0].Kind)
}

func TestS3SinkCustomPrefix(t *testing.T) {
	fake := &fakeS3{}
	s := NewS3Sink(fake, "b", "archive/events")

	require.NoError(t, s.Deliver(context.Background(), testBatch()))
	assert.True(t, strings.HasPrefix(fake.key, "archive/events/"))
}

func TestS3SinkFailsOnPutError(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	s := NewS3Sink(fake, "b", "")

	err := s.Deliver(context.Background(), testBatch())
	require.Error(t, err)

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "s3", de.Sink)
}
