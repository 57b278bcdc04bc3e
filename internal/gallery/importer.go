package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"
)

// Config describes the source gallery and the target bucket.
type Config struct {
	ImagesDir       string
	MetadataFile    string
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Concurrency     int
}

// ObjectAPI is the subset of the S3 client the importer needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Report counts the outcome of an import.
type Report struct {
	Uploaded int
	Skipped  int
	Failed   int
}

// NewClient builds an S3 client. Static credentials are used when both keys
// are set; otherwise the default AWS chain applies.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Importer uploads gallery entries.
type Importer struct {
	api ObjectAPI
	cfg Config
	log *slog.Logger
}

// NewImporter creates an importer.
func NewImporter(api ObjectAPI, cfg Config, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Importer{
		api: api,
		cfg: cfg,
		log: log.With("component", "gallery", "bucket", cfg.Bucket),
	}
}

// EnsureBucket creates the bucket, tolerating one that already exists.
func (i *Importer) EnsureBucket(ctx context.Context) error {
	_, err := i.api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(i.cfg.Bucket)})
	if err == nil || bucketExists(err) {
		return nil
	}
	return fmt.Errorf("create bucket %s: %w", i.cfg.Bucket, err)
}

func bucketExists(err error) bool {
	var owned *types.BucketAlreadyOwnedByYou
	var exists *types.BucketAlreadyExists
	if errors.As(err, &owned) || errors.As(err, &exists) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return true
		}
	}
	return false
}

// Import plans every entry and uploads the usable ones. With dryRun the plan
// is logged and nothing is sent. Per-entry failures are counted, not returned.
//
// Entries that map to the same key are uploaded one after another in input
// order, so the last of them is what the bucket keeps. Distinct keys upload
// concurrently.
func (i *Importer) Import(ctx context.Context, entries []Entry, dryRun bool) (Report, error) {
	var (
		mu     sync.Mutex
		report Report
	)
	count := func(field *int) {
		mu.Lock()
		*field++
		mu.Unlock()
	}

	var (
		order []string
		byKey = make(map[string][]Object)
	)
	for _, e := range entries {
		obj, err := Plan(e, i.cfg.ImagesDir)
		if err != nil {
			i.log.Warn("skipping entry", "photo", e.PhotoURL, "reason", err)
			count(&report.Skipped)
			continue
		}
		if dryRun {
			i.log.Info("would upload", "path", obj.Path, "key", obj.Key, "content_type", obj.ContentType)
			count(&report.Uploaded)
			continue
		}
		if _, ok := byKey[obj.Key]; !ok {
			order = append(order, obj.Key)
		} else {
			i.log.Warn("key shared with an earlier entry, last one wins", "key", obj.Key, "path", obj.Path)
		}
		byKey[obj.Key] = append(byKey[obj.Key], obj)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.cfg.Concurrency)

	for _, key := range order {
		objs := byKey[key]
		g.Go(func() error {
			for _, obj := range objs {
				if err := i.put(gctx, obj); err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					i.log.Error("upload failed", "path", obj.Path, "key", obj.Key, "error", err)
					count(&report.Failed)
					continue
				}
				i.log.Info("uploaded", "path", obj.Path, "key", obj.Key)
				count(&report.Uploaded)
			}
			return nil
		})
	}

	err := g.Wait()
	return report, err
}

func (i *Importer) put(ctx context.Context, obj Object) error {
	f, err := os.Open(obj.Path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	_, err = i.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(i.cfg.Bucket),
		Key:           aws.String(obj.Key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(obj.ContentType),
		Metadata:      obj.Metadata,
	})
	return err
}
