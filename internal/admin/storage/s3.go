// Package storage uploads photo renditions to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// CacheControl is sent with every rendition; object keys never change
// content, so they may be cached for a year.
const CacheControl = "max-age=31536000"

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

// S3Config are the connection settings of the bucket.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// StaticHost is the public base URL objects are served from.
	StaticHost string
	PathStyle  bool
}

func (c S3Config) Validate() error {
	var missing []string
	if c.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if c.AccessKeyID == "" {
		missing = append(missing, "access key id")
	}
	if c.SecretAccessKey == "" {
		missing = append(missing, "secret access key")
	}
	if c.StaticHost == "" {
		missing = append(missing, "static host")
	}
	if len(missing) > 0 {
		return fmt.Errorf("s3 config: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// putObjectAPI is the part of *s3.Client the store needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Store struct {
	client     putObjectAPI
	bucket     string
	staticHost string
}

// NewS3Store builds a client with static credentials. A non-empty Endpoint
// points the client at an S3-compatible service instead of AWS.
func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	region := c.Region
	if region == "" {
		region = regionFromEndpoint(c.Endpoint)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = c.PathStyle
	})

	return newS3Store(client, c.Bucket, c.StaticHost), nil
}

func newS3Store(client putObjectAPI, bucket, staticHost string) *S3Store {
	return &S3Store{client: client, bucket: bucket, staticHost: strings.TrimRight(staticHost, "/")}
}

// regionFromEndpoint takes the first label of the endpoint host, as in
// https://fra1.digitaloceanspaces.com. Without an endpoint it is "auto".
func regionFromEndpoint(endpoint string) string {
	host := endpoint
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if label, _, ok := strings.Cut(host, "."); ok && label != "" {
		return label
	}
	return "auto"
}

// Upload stores data as a publicly readable JPEG.
func (s *S3Store) Upload(ctx context.Context, key string, data []byte) (string, error) {
	if key == "" {
		return "", errors.New("empty object key")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String("image/jpeg"),
		CacheControl: aws.String(CacheControl),
		ACL:          types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return s.URL(key), nil
}

// URL is the public address of key.
func (s *S3Store) URL(key string) string {
	return s.staticHost + "/" + key
}
