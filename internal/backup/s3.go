package backup

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/homelibrarian/homelibrarian/internal/errors"
)

// S3Config selects an S3-compatible bucket (AWS S3 or MinIO).
type S3Config struct {
	Bucket          string
	Region          string // Defaults to us-east-1
	Prefix          string // Key prefix, e.g. "homelib/"
	Endpoint        string // Optional custom endpoint
	PathStyle       bool
	AccessKeyID     string // Optional; falls back to the default credentials chain
	SecretAccessKey string
}

// s3API is the part of the S3 client the target uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Target keeps archives in a bucket.
type S3Target struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Target creates an S3 target from cfg.
func NewS3Target(ctx context.Context, cfg S3Config) (*S3Target, error) {
	if cfg.Bucket == "" {
		return nil, errors.Validation("s3 bucket is not configured")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Unavailablef("load aws config").WithCause(err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Target(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Target(client s3API, bucket, prefix string) *S3Target {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Target{client: client, bucket: bucket, prefix: prefix}
}

// Name implements Target.
func (t *S3Target) Name() string { return "s3" }

func (t *S3Target) key(name string) string { return t.prefix + name }

// Put implements Target.
func (t *S3Target) Put(ctx context.Context, name string, data []byte) (Info, error) {
	if err := checkName(name); err != nil {
		return Info{}, err
	}
	_, err := t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(t.bucket),
		Key:           aws.String(t.key(name)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/zip"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return Info{}, errors.Unavailablef("upload backup %s to s3://%s", name, t.bucket).WithCause(err)
	}
	return Info{Name: name, Target: t.Name(), Size: int64(len(data))}, nil
}

// Get implements Target.
func (t *S3Target) Get(ctx context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	out, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrBackupNotFound.WithDetails(map[string]string{"name": name})
		}
		return nil, errors.Unavailablef("download backup %s from s3://%s", name, t.bucket).WithCause(err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(io.LimitReader(out.Body, maxEntrySize))
	if err != nil {
		return nil, errors.Unavailablef("download backup %s", name).WithCause(err)
	}
	return data, nil
}

// List implements Target.
func (t *S3Target) List(ctx context.Context) ([]Info, error) {
	out := []Info{}
	var token *string
	for {
		page, err := t.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(t.bucket),
			Prefix:            aws.String(t.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, errors.Unavailablef("list backups in s3://%s", t.bucket).WithCause(err)
		}
		for _, obj := range page.Contents {
			name := path.Base(aws.ToString(obj.Key))
			if !IsArchiveName(name) {
				continue
			}
			out = append(out, Info{
				Name:      name,
				Target:    t.Name(),
				Size:      aws.ToInt64(obj.Size),
				CreatedAt: aws.ToTime(obj.LastModified),
			})
		}
		if aws.ToBool(page.IsTruncated) && page.NextContinuationToken != nil {
			token = page.NextContinuationToken
			continue
		}
		break
	}
	sortNewestFirst(out)
	return out, nil
}
