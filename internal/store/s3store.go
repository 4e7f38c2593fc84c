package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"ecss/internal/jobs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Client is the subset of the AWS S3 SDK client this backend calls,
// narrowed so tests can substitute a fake.
type S3Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// s3Store stores one object per job at {prefix}/{id}.
type s3Store struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3Store creates a job store backed by an S3 bucket.
func NewS3Store(client S3Client, bucket, prefix string) Store {
	return &s3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *s3Store) key(id string) string {
	if s.prefix == "" {
		return id
	}
	return s.prefix + "/" + id
}

func (s *s3Store) Bootstrap(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("store: bucket %q not reachable: %w", s.bucket, err)
	}
	return nil
}

func (s *s3Store) LoadAll(ctx context.Context) ([]*jobs.Job, error) {
	var out []*jobs.Job
	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}
	var token *string
	for {
		resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("store: list %q: %w", s.bucket, err)
		}
		for _, obj := range resp.Contents {
			j, err := s.getByKey(ctx, aws.ToString(obj.Key))
			if err != nil {
				return nil, err
			}
			out = append(out, j)
		}
		if resp.IsTruncated == nil || !*resp.IsTruncated {
			break
		}
		token = resp.NextContinuationToken
	}
	return out, nil
}

func (s *s3Store) Get(ctx context.Context, id string) (*jobs.Job, error) {
	return s.getByKey(ctx, s.key(id))
}

func (s *s3Store) getByKey(ctx context.Context, key string) (*jobs.Job, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get %q: %w", key, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var j jobs.Job
	if err := json.Unmarshal(body, &j); err != nil {
		return nil, fmt.Errorf("store: decode %q: %w", key, err)
	}
	return &j, nil
}

func (s *s3Store) Create(ctx context.Context, job *jobs.Job) error {
	if _, err := s.Get(ctx, job.ID); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.put(ctx, job)
}

func (s *s3Store) Update(ctx context.Context, job *jobs.Job) error {
	if _, err := s.Get(ctx, job.ID); err != nil {
		return err
	}
	return s.put(ctx, job)
}

func (s *s3Store) put(ctx context.Context, job *jobs.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(job.ID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("store: put %q: %w", job.ID, err)
	}
	return nil
}

func (s *s3Store) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(s.key(id))})
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", id, err)
	}
	return nil
}

func (s *s3Store) Capabilities() []Capability { return FullCapabilitySet }

func (s *s3Store) Close() error { return nil }
