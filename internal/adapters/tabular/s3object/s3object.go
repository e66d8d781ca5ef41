// Package s3object keeps the table as one CSV object in an S3 compatible bucket.
//
// Append reads the object, widens and rewrites it. With conditional writes on, the
// rewrite carries If-Match with the ETag that was read (If-None-Match: * when the
// object did not exist), so a writer that lost the race gets a conflict instead of
// silently dropping the other writer's row
package s3object

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"likert/internal/adapters/tabular"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// API is the part of the S3 client the adapter uses
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Config holds construction parameters; credentials fall back to the default chain
type Config struct {
	Bucket          string
	Key             string
	Region          string
	Endpoint        string // set for MinIO and other S3 compatible servers
	PathStyle       bool
	Conditional     bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// DefaultKey is the object key used when none is configured
const DefaultKey = "likert/responses.csv"

// Adapter reads and writes one object
type Adapter struct {
	client      API
	bucket      string
	key         string
	conditional bool
}

// New builds an S3 client from cfg. The SDK retryer is limited to one attempt so a
// failure surfaces to the caller instead of being retried behind its back
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.RetryMaxAttempts = 1
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	return NewWithClient(client, cfg.Bucket, cfg.Key, cfg.Conditional), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client API, bucket, key string, conditional bool) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{client: client, bucket: bucket, key: key, conditional: conditional}
}

// version is what a read saw, used to condition the following write
type version struct {
	etag   string
	exists bool
}

func (a *Adapter) read(ctx context.Context, op string) (tabular.Table, version, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &a.bucket, Key: &a.key})
	if err != nil {
		if notFound(err) {
			return tabular.Table{}, version{}, nil
		}
		return tabular.Table{}, version{}, classify(op, err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return tabular.Table{}, version{}, tabular.StoreUnavailable(op, err)
	}
	t, err := tabular.DecodeCSV(op, &buf)
	if err != nil {
		return tabular.Table{}, version{}, err
	}
	return t, version{etag: aws.ToString(out.ETag), exists: true}, nil
}

func (a *Adapter) write(ctx context.Context, op string, t tabular.Table, seen *version) error {
	var buf bytes.Buffer
	if err := tabular.EncodeCSV(&buf, t); err != nil {
		return tabular.StoreUnavailable(op, err)
	}
	in := &s3.PutObjectInput{
		Bucket:      &a.bucket,
		Key:         &a.key,
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv; charset=utf-8"),
	}
	if a.conditional && seen != nil {
		if seen.exists && seen.etag != "" {
			in.IfMatch = aws.String(seen.etag)
		} else if !seen.exists {
			in.IfNoneMatch = aws.String("*")
		}
	}
	if _, err := a.client.PutObject(ctx, in); err != nil {
		return classify(op, err)
	}
	return nil
}

// ReadAll fetches and parses the object; a missing object is an empty table
func (a *Adapter) ReadAll(ctx context.Context) (tabular.Table, error) {
	t, _, err := a.read(ctx, tabular.OpReadAll)
	return t, err
}

// Append is read, widen, rewrite, conditioned on the read when enabled
func (a *Adapter) Append(ctx context.Context, rows []tabular.Row) error {
	if len(rows) == 0 {
		return nil
	}
	t, seen, err := a.read(ctx, tabular.OpAppend)
	if err != nil {
		return err
	}
	t.Header = tabular.UnionHeader(t.Header, rows)
	t.Rows = append(t.Rows, rows...)
	return a.write(ctx, tabular.OpAppend, t, &seen)
}

// OverwriteAll replaces the object unconditionally
func (a *Adapter) OverwriteAll(ctx context.Context, t tabular.Table) error {
	return a.write(ctx, tabular.OpOverwriteAll, t, nil)
}

// Ping checks the bucket is reachable
func (a *Adapter) Ping(ctx context.Context) error {
	if _, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &a.bucket}); err != nil {
		return classify(tabular.OpPing, err)
	}
	return nil
}

// Caps reports conditional writes when enabled
func (a *Adapter) Caps() tabular.Caps { return tabular.Caps{ConditionalWrite: a.conditional} }

// Driver names the store
func (a *Adapter) Driver() tabular.Driver { return tabular.DriverS3 }

func notFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var ae smithy.APIError
	if errors.As(err, &ae) && ae.ErrorCode() == "NoSuchBucket" {
		return false
	}
	return httpStatus(err) == http.StatusNotFound
}

func httpStatus(err error) int {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}

func classify(op string, err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return tabular.StoreConflict(op, err)
		case "NoSuchBucket":
			return tabular.StoreSchemaMismatch(op, "bucket does not exist: %s", strings.TrimSpace(ae.ErrorMessage()))
		}
	}
	switch httpStatus(err) {
	case http.StatusPreconditionFailed, http.StatusConflict:
		return tabular.StoreConflict(op, err)
	}
	return tabular.Classify(op, err)
}
