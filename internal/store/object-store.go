package store

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type UploadOptions struct {
	Overwrite   bool
	ContentType string
}

// ObjectStore is the file storage service covers are written to.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, opts UploadOptions) error
	PublicURL(key string) string
}

type S3Store struct {
	client     *s3.Client
	bucket     string
	region     string
	public_url string
}

func NewS3Store(client *s3.Client, bucket, region, publicURL string) *S3Store {
	return &S3Store{
		client:     client,
		bucket:     bucket,
		region:     region,
		public_url: strings.TrimSuffix(publicURL, "/"),
	}
}

func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader, opts UploadOptions) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}

	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	if !opts.Overwrite {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("error uploading object to s3, %v", err)
	}

	return nil
}

func (s *S3Store) PublicURL(key string) string {
	if s.public_url != "" {
		return s.public_url + "/" + key
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

type CloudinaryStore struct {
	store *cloudinary.Cloudinary
}

func NewCloudinaryStore(store *cloudinary.Cloudinary) *CloudinaryStore {
	return &CloudinaryStore{
		store: store,
	}
}

// cloudinary appends the format itself, so public ids carry no extension.
func publicID(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}

func (s *CloudinaryStore) Upload(ctx context.Context, key string, body io.Reader, opts UploadOptions) error {
	resp, err := s.store.Upload.Upload(ctx, body, uploader.UploadParams{
		PublicID:  publicID(key),
		Overwrite: api.Bool(opts.Overwrite),
	})

	if err != nil {
		return fmt.Errorf("error uploading file: %+v", err)
	}

	if resp.Error.Message != "" {
		return fmt.Errorf("error uploading file: %s", resp.Error.Message)
	}

	return nil
}

func (s *CloudinaryStore) PublicURL(key string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s", s.store.Config.Cloud.CloudName, publicID(key))
}
