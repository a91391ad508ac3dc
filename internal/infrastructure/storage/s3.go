package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

var ErrInvalidS3URI = errors.New("invalid s3 uri")

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Client struct {
	client objectPutter
}

// NewS3Client uses the default AWS credential chain. An empty region defers
// to AWS_REGION or the shared config.
func NewS3Client(ctx context.Context, region string) (*S3Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &S3Client{client: s3.NewFromConfig(cfg)}, nil
}

func (s *S3Client) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("failed to upload object to S3: %w", err)
	}
	return nil
}

func IsS3URI(dest string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(dest)), s3Scheme)
}

// ParseS3URI splits s3://bucket/key/with/slashes.
func ParseS3URI(uri string) (bucket, key string, err error) {
	uri = strings.TrimSpace(uri)
	if !IsS3URI(uri) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3URI, uri)
	}
	rest := uri[len(s3Scheme):]
	bucket, key, _ = strings.Cut(rest, "/")
	key = strings.TrimLeft(key, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3URI, uri)
	}
	return bucket, key, nil
}

// ReportSink writes a finished report to stdout, a local file, or S3.
type ReportSink struct {
	Stdout   io.Writer
	S3Region string

	newS3 func(ctx context.Context, region string) (*S3Client, error)
}

// Write routes body by dest: "" or "-" is stdout, s3:// is uploaded, anything
// else is a file path whose parent directories are created.
func (w ReportSink) Write(ctx context.Context, dest string, body []byte) error {
	dest = strings.TrimSpace(dest)
	switch {
	case dest == "" || dest == "-":
		out := w.Stdout
		if out == nil {
			out = os.Stdout
		}
		_, err := out.Write(body)
		return err
	case IsS3URI(dest):
		bucket, key, err := ParseS3URI(dest)
		if err != nil {
			return err
		}
		newS3 := w.newS3
		if newS3 == nil {
			newS3 = NewS3Client
		}
		client, err := newS3(ctx, w.S3Region)
		if err != nil {
			return err
		}
		return client.Put(ctx, bucket, key, body, "application/json")
	default:
		if dir := filepath.Dir(dest); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		return os.WriteFile(dest, body, 0o644)
	}
}
