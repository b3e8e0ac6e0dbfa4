package sync

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// exportContentType is the MIME type for JSONL transition exports.
const exportContentType = "application/x-ndjson"

// S3Destination uploads a door's transition export to an S3-compatible bucket.
type S3Destination struct {
	client *s3.Client
	bucket string
	key    string
	door   string
}

// NewS3Destination creates an S3 destination for the given door. When key is
// empty the object key is derived from the door id. A non-empty endpoint
// enables path-style addressing (for MinIO and similar).
func NewS3Destination(ctx context.Context, door, bucket, key, region, endpoint string) (*S3Destination, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Destination{
		client: s3.NewFromConfig(cfg, s3opts...),
		bucket: bucket,
		key:    key,
		door:   door,
	}, nil
}

// objectKey returns the configured key, or one scoped to the door when no
// key was configured, so multiple supervisors can share a bucket.
func (d *S3Destination) objectKey() string {
	if d.key != "" {
		return d.key
	}
	return path.Join("doord", d.door, "transitions.jsonl")
}

// Write uploads the export, tagged with the door it belongs to.
func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(d.objectKey()),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(exportContentType),
		Metadata:    map[string]string{"door": d.door},
	})
	if err != nil {
		return fmt.Errorf("s3 put object %s: %w", d.objectKey(), err)
	}
	return nil
}
