package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"schemasync/internal/config"
)

// objectPutter is the subset of the S3 client used for publishing.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads written report files to S3-compatible object storage.
type Publisher struct {
	client objectPutter
	bucket string
	prefix string
	logger *slog.Logger
}

// NewPublisher creates a publisher from the S3 settings in cfg, using
// path-style addressing so S3-compatible providers work. dest optionally
// overrides the bucket and prefix with an "s3://bucket/prefix" URI, in which
// case BUCKET need not be configured.
func NewPublisher(cfg *config.Config, dest string, logger *slog.Logger) (*Publisher, error) {
	var missing []string
	for _, v := range []struct {
		name string
		val  *string
	}{
		{"KEY_ID", cfg.S3KeyID},
		{"SECRET", cfg.S3Secret},
		{"ENDPOINT", cfg.S3Endpoint},
		{"REGION", cfg.S3Region},
	} {
		if v.val == nil {
			missing = append(missing, v.name)
		}
	}
	if dest == "" && cfg.S3Bucket == nil {
		missing = append(missing, "BUCKET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("S3 publishing requires %s", strings.Join(missing, ", "))
	}

	var bucket, prefix string
	if dest != "" {
		var err error
		if bucket, prefix, err = parseS3Path(dest); err != nil {
			return nil, err
		}
	} else {
		bucket, prefix = *cfg.S3Bucket, cfg.S3Prefix
	}

	endpoint := *cfg.S3Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	client := s3.New(s3.Options{
		Region: *cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			*cfg.S3KeyID, *cfg.S3Secret, "",
		),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
	})
	return &Publisher{client: client, bucket: bucket, prefix: prefix, logger: logger}, nil
}

// Publish uploads every file under <prefix>/<runID>/ and returns the object
// URIs in input order.
func (p *Publisher) Publish(ctx context.Context, runID string, files []string) ([]string, error) {
	uris := make([]string, 0, len(files))
	for _, file := range files {
		key := path.Join(p.prefix, runID, filepath.Base(file))
		if err := p.put(ctx, file, key); err != nil {
			return uris, err
		}
		uri := fmt.Sprintf("s3://%s/%s", p.bucket, key)
		p.logger.Info("report published", "file", file, "uri", uri)
		uris = append(uris, uri)
	}
	return uris, nil
}

func (p *Publisher) put(ctx context.Context, file, key string) error {
	f, err := os.Open(file) //nolint:gosec // file was written by this process
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close() //nolint:errcheck

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file)),
	})
	if err != nil {
		return fmt.Errorf("upload %s to s3://%s/%s: %w", file, p.bucket, key, err)
	}
	return nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".log", ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// parseS3Path extracts bucket and key prefix from an "s3://bucket/prefix" URI.
// The prefix may be empty.
func parseS3Path(s3Path string) (bucket, prefix string, err error) {
	u, err := url.Parse(s3Path)
	if err != nil {
		return "", "", fmt.Errorf("parse S3 path %q: %w", s3Path, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("expected s3:// scheme, got %q in %q", u.Scheme, s3Path)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("empty bucket in S3 path %q", s3Path)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}
