// Package s3 provides a source adapter for AWS S3 buckets.
package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
	"github.com/tessera-search/tessera/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.SourceAdapter = (*Connector)(nil)

// Client is the subset of the S3 API the connector uses.
type Client interface {
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// Connector enumerates objects under an s3://bucket[/prefix] source.
// Each object is downloaded to a temporary file so downstream models can
// read it like any local media; the object URI stays the document id.
// Items are marked transient, so the consumer removes each download after
// processing it.
type Connector struct {
	client Client
}

// New creates a connector using the default AWS credential chain.
func New(ctx context.Context) (*Connector, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(awss3.NewFromConfig(cfg)), nil
}

// NewWithClient creates a connector over an existing S3 client.
func NewWithClient(client Client) *Connector {
	return &Connector{client: client}
}

// Kind returns the source kind this connector serves.
func (c *Connector) Kind() domain.SourceKind {
	return domain.SourceS3
}

// Enumerate pages through the bucket listing and streams one item per
// object. Directory placeholder keys (trailing slash) are skipped. Download
// failures for individual objects are reported inline and the listing
// continues.
func (c *Connector) Enumerate(ctx context.Context, source string) (<-chan domain.RawItem, <-chan error) {
	items := make(chan domain.RawItem)
	errs := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errs)

		bucket, prefix, err := parseSource(source)
		if err != nil {
			errs <- err
			return
		}

		input := &awss3.ListObjectsV2Input{Bucket: &bucket}
		if prefix != "" {
			input.Prefix = &prefix
		}

		paginator := awss3.NewListObjectsV2Paginator(c.client, input)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				errs <- fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, err)
				return
			}

			for _, object := range page.Contents {
				if object.Key == nil || strings.HasSuffix(*object.Key, "/") {
					continue
				}
				key := *object.Key

				localPath, err := c.download(ctx, bucket, key)
				if err != nil {
					logger.Warn("Failed to download s3://%s/%s: %v", bucket, key, err)
					continue
				}

				select {
				case <-ctx.Done():
					os.Remove(localPath) // never delivered, nobody else will
					return
				case items <- domain.RawItem{
					DocumentID: fmt.Sprintf("s3://%s/%s", bucket, key),
					Path:       localPath,
					Transient:  true,
				}:
				}
			}
		}
	}()

	return items, errs
}

// download fetches an object into a temporary file, preserving the key's
// extension so media classification keeps working on the local copy.
func (c *Connector) download(ctx context.Context, bucket, key string) (string, error) {
	result, err := c.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return "", fmt.Errorf("get object: %w", err)
	}
	defer result.Body.Close()

	file, err := os.CreateTemp("", "tessera-s3-*"+filepath.Ext(key))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, result.Body); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("write object content: %w", err)
	}
	return file.Name(), nil
}

// parseSource splits s3://bucket[/prefix] into bucket and prefix.
func parseSource(source string) (bucket, prefix string, err error) {
	trimmed, ok := strings.CutPrefix(source, "s3://")
	if !ok || trimmed == "" {
		return "", "", fmt.Errorf("%w: %q is not an s3 uri", domain.ErrUnrecognizedSource, source)
	}
	bucket, prefix, _ = strings.Cut(trimmed, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: %q has no bucket", domain.ErrUnrecognizedSource, source)
	}
	return bucket, prefix, nil
}
