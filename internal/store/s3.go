package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ObjectAPI is the subset of the S3 client used by S3Backend
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type S3Options struct {
	Bucket          string
	Region          string
	AccessKey       string
	SecretAccessKey string
	// Endpoint overrides the AWS endpoint, e.g. a Cloudflare R2 account URL
	Endpoint string
	Prefix   string
}

// S3Backend keeps every shard as the object <prefix>/<kind>/<owner>.json
type S3Backend struct {
	c      ObjectAPI
	bucket *string
	prefix string
}

func NewS3Backend(ctx context.Context, o S3Options) (*S3Backend, error) {
	if o.Bucket == "" {
		return nil, errors.New("no bucket provided")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			o.AccessKey,
			o.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		so.Region = o.Region
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
		}
	})

	bucket := aws.String(o.Bucket)

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", o.Bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return NewS3BackendFromClient(client, o.Bucket, o.Prefix), nil
}

func NewS3BackendFromClient(c ObjectAPI, bucket, prefix string) *S3Backend {
	return &S3Backend{
		c:      c,
		bucket: aws.String(bucket),
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *S3Backend) kindPrefix(kind Kind) string {
	if s.prefix == "" {
		return string(kind) + "/"
	}

	return s.prefix + "/" + string(kind) + "/"
}

func (s *S3Backend) key(kind Kind, owner string) string {
	if owner == "" {
		owner = "_"
	}

	return s.kindPrefix(kind) + owner + ".json"
}

func (s *S3Backend) Get(ctx context.Context, kind Kind, owner string) ([]byte, error) {
	out, err := s.c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(s.key(kind, owner)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}

		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (s *S3Backend) Put(ctx context.Context, kind Kind, owner string, data []byte) error {
	_, err := s.c.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      s.bucket,
		Key:         aws.String(s.key(kind, owner)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})

	return err
}

func (s *S3Backend) Delete(ctx context.Context, kind Kind, owner string) error {
	_, err := s.c.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(s.key(kind, owner)),
	})

	return err
}

func (s *S3Backend) List(ctx context.Context, kind Kind) ([]string, error) {
	prefix := s.kindPrefix(kind)

	p := s3.NewListObjectsV2Paginator(s.c, &s3.ListObjectsV2Input{
		Bucket: s.bucket,
		Prefix: aws.String(prefix),
	})

	var owners []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if path.Ext(name) != ".json" || strings.Contains(name, "/") {
				continue
			}

			owner := strings.TrimSuffix(name, ".json")
			if owner == "_" {
				owner = AccountsOwner
			}

			owners = append(owners, owner)
		}
	}

	sort.Strings(owners)
	return owners, nil
}

func (s *S3Backend) Close() error {
	return nil
}

var _ Backend = (*S3Backend)(nil)
