// Package s3archive uploads resilience reports to an S3-compatible bucket
// as <prefix>/<fingerprint>.json.
package s3archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/store"
)

const (
	defaultRegion      = "us-east-1"
	defaultConcurrency = 4
	contentType        = "application/json"
)

// Config holds construction parameters. Static keys are optional and fall
// back to the default credentials chain.
type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // optional; enables a custom endpoint such as MinIO
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Concurrency     int
}

// Archive writes reports to a single bucket.
type Archive struct {
	client      *s3.Client
	bucket      string
	prefix      string
	concurrency int
	logger      logging.Logger
}

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(a *Archive) {
		a.logger = logging.OrNop(l)
	}
}

// WithConcurrency bounds parallel uploads in ArchiveAll.
func WithConcurrency(n int) Option {
	return func(a *Archive) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// New creates an archive from cfg using the AWS SDK's default config loading.
func New(ctx context.Context, cfg Config, opts ...Option) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	if cfg.Concurrency > 0 {
		opts = append([]Option{WithConcurrency(cfg.Concurrency)}, opts...)
	}
	return NewWithClient(client, cfg.Bucket, cfg.Prefix, opts...), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, bucket, prefix string, opts ...Option) *Archive {
	a := &Archive{
		client:      client,
		bucket:      bucket,
		prefix:      strings.Trim(prefix, "/"),
		concurrency: defaultConcurrency,
		logger:      logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the object key of a fingerprint.
func (a *Archive) Key(fingerprint string) string {
	return path.Join(a.prefix, fingerprint+".json")
}

// Put uploads one report, replacing any previous object.
func (a *Archive) Put(ctx context.Context, report resilience.Report) error {
	if err := store.CheckFingerprint("archive report", report.Fingerprint); err != nil {
		return err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	key := a.Key(report.Fingerprint)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"scenario-type":    report.ScenarioType,
			"resilience-score": strconv.FormatFloat(report.ResilienceScore, 'f', 6, 64),
		},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	a.logger.Debug("report archived", logging.Fingerprint(report.Fingerprint), logging.String("key", key))
	return nil
}

// ArchiveAll uploads reports concurrently and returns the first failure.
func (a *Archive) ArchiveAll(ctx context.Context, reports []resilience.Report) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for _, report := range reports {
		g.Go(func() error {
			return a.Put(ctx, report)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("reports archived", logging.Count(len(reports)), logging.String("bucket", a.bucket))
	return nil
}

// Get downloads the report stored under fingerprint.
func (a *Archive) Get(ctx context.Context, fingerprint string) (resilience.Report, error) {
	key := a.Key(fingerprint)
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return resilience.Report{}, store.NotFound("get archived report", fingerprint)
		}
		return resilience.Report{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return resilience.Report{}, fmt.Errorf("read %s: %w", key, err)
	}
	var report resilience.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return resilience.Report{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return report, nil
}

// List returns the archived fingerprints in key order.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	prefix := ""
	if a.prefix != "" {
		prefix = a.prefix + "/"
	}
	var fingerprints []string
	p := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", a.bucket, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if fp, ok := strings.CutSuffix(name, ".json"); ok && !strings.Contains(fp, "/") {
				fingerprints = append(fingerprints, fp)
			}
		}
	}
	sort.Strings(fingerprints)
	return fingerprints, nil
}

// Delete removes an archived report.
func (a *Archive) Delete(ctx context.Context, fingerprint string) error {
	key := a.Key(fingerprint)
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Ping checks that the bucket exists and is reachable.
func (a *Archive) Ping(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", a.bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == 404
}
