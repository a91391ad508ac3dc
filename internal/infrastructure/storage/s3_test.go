package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.contentType = aws.ToString(in.ContentType)
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestParseS3URI(t *testing.T) {
	cases := []struct {
		in, bucket, key string
		ok              bool
	}{
		{"s3://reports/skills.json", "reports", "skills.json", true},
		{"S3://reports/2024/01/skills.json", "reports", "2024/01/skills.json", true},
		{"s3://reports//skills.json", "reports", "skills.json", true},
		{"s3://reports", "", "", false},
		{"s3://reports/", "", "", false},
		{"s3:///skills.json", "", "", false},
		{"/tmp/skills.json", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidS3URI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.bucket, bucket)
			assert.Equal(t, tc.key, key)
		})
	}
}

func TestReportSink_Stdout(t *testing.T) {
	var buf bytes.Buffer
	sink := ReportSink{Stdout: &buf}

	require.NoError(t, sink.Write(context.Background(), "", []byte(`{"a":1}`)))
	require.NoError(t, sink.Write(context.Background(), "-", []byte("\n")))
	assert.Equal(t, "{\"a\":1}\n", buf.String())
}

func TestReportSink_FileCreatesParents(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out", "nested", "report.json")

	require.NoError(t, ReportSink{}.Write(context.Background(), dest, []byte(`{}`)))

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

func TestReportSink_S3(t *testing.T) {
	putter := &fakePutter{}
	var gotRegion string
	sink := ReportSink{
		S3Region: "us-east-2",
		newS3: func(ctx context.Context, region string) (*S3Client, error) {
			gotRegion = region
			return &S3Client{client: putter}, nil
		},
	}

	require.NoError(t, sink.Write(context.Background(), "s3://bucket/reports/latest.json", []byte(`{"ok":true}`)))
	assert.Equal(t, "us-east-2", gotRegion)
	assert.Equal(t, "bucket", putter.bucket)
	assert.Equal(t, "reports/latest.json", putter.key)
	assert.Equal(t, "application/json", putter.contentType)
	assert.Equal(t, `{"ok":true}`, string(putter.body))
}

func TestReportSink_S3Errors(t *testing.T) {
	called := false
	sink := ReportSink{newS3: func(ctx context.Context, region string) (*S3Client, error) {
		called = true
		return &S3Client{client: &fakePutter{err: errors.New("access denied")}}, nil
	}}

	err := sink.Write(context.Background(), "s3://bucket", nil)
	assert.ErrorIs(t, err, ErrInvalidS3URI)
	assert.False(t, called)

	err = sink.Write(context.Background(), "s3://bucket/key.json", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
