// Package media stores uploaded assets (blog cover images, project
// screenshots) in an S3-compatible object store.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Options configure the object-store client. All fields are required; a
// service without them simply runs with uploads disabled.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

// Configured reports whether enough settings are present to build a Store.
func (o Options) Configured() bool {
	return o.Endpoint != "" && o.AccessKey != "" && o.SecretKey != "" && o.Bucket != ""
}

// Store is a thin wrapper around the AWS SDK v2 S3 client tuned for
// path-style, self-hosted endpoints.
type Store struct {
	api      *s3.Client
	bucket   string
	endpoint string
}

// NewStore initialises a Store from the given options.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	if !opts.Configured() {
		return nil, fmt.Errorf("media: endpoint, credentials, and bucket are required")
	}

	endpoint := opts.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
		awsconfig.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	)
	if err != nil {
		return nil, fmt.Errorf("media: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &Store{api: client, bucket: opts.Bucket, endpoint: endpoint}, nil
}

// Put uploads the object under a unique key derived from filename and
// returns the public object URL.
func (s *Store) Put(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("uploads/%s%s", uuid.NewString(), ext)

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("media: put object: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.endpoint, "/"), s.bucket, key), nil
}
