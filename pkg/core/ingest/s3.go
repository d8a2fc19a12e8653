package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectGetter is the slice of the S3 client used by FetchExport.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// IsS3URI reports whether the path names an S3 object.
func IsS3URI(uri string) bool {
	return strings.HasPrefix(strings.ToLower(uri), "s3://")
}

// ParseS3URI splits an s3://bucket/key URI into bucket and key.
func ParseS3URI(uri string) (string, string, error) {
	if !IsS3URI(uri) {
		return "", "", fmt.Errorf("not an s3 URI: %s", uri)
	}
	rest := uri[len("s3://"):]
	slash := strings.Index(rest, "/")
	if slash <= 0 || slash == len(rest)-1 {
		return "", "", fmt.Errorf("s3 URI missing object key: %s", uri)
	}
	return rest[:slash], rest[slash+1:], nil
}

// FetchExport downloads an S3 object to a temp file and returns the local
// path plus a cleanup func. Used for exports referenced by s3:// URI.
func FetchExport(ctx context.Context, client ObjectGetter, uri string) (string, func(), error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return "", nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	tmp, err := os.CreateTemp("", "polaris-export-*"+path.Ext(key))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, out.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }
	return tmp.Name(), cleanup, nil
}
