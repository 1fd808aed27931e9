package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"filevault-backend/internal/models"
	"filevault-backend/internal/storage"
)

// compile-time check
var _ storage.ObjectStorage = (*Store)(nil)

// Options configures the S3 backend.
type Options struct {
	Region       string // e.g. "us-east-1"
	Endpoint     string // custom endpoint for MinIO compatibility
	BucketPrefix string // bucket name = prefix + category
	PublicURL    string // base of public object URLs; defaults to Endpoint
}

// Store implements storage.ObjectStorage with one S3 bucket per category.
type Store struct {
	client       *s3.Client
	bucketPrefix string
	publicURL    string
}

// New creates an S3-backed Store.
func New(ctx context.Context, opts Options) (*Store, error) {
	optFns := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s3Opts := []func(*s3.Options){}
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}

	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = opts.Endpoint
	}

	return &Store{
		client:       s3.NewFromConfig(cfg, s3Opts...),
		bucketPrefix: opts.BucketPrefix,
		publicURL:    strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (s *Store) bucket(category models.Category) string {
	return s.bucketPrefix + string(category)
}

// List returns the objects directly under prefix.
func (s *Store) List(ctx context.Context, category models.Category, prefix string) ([]storage.Object, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket(category)),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var objects []storage.Object
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" {
				continue
			}
			objects = append(objects, storage.Object{
				ID:        strings.Trim(aws.ToString(obj.ETag), `"`),
				Name:      name,
				Size:      aws.ToInt64(obj.Size),
				UpdatedAt: obj.LastModified,
			})
		}
	}
	return objects, nil
}

// Upload puts data at path. Without Overwrite the write is conditional on
// the key not existing yet.
func (s *Store) Upload(ctx context.Context, category models.Category, path string, data []byte, opts storage.UploadOptions) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket(category)),
		Key:    aws.String(path),
		Body:   bytes.NewReader(data),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String("max-age=" + opts.CacheControl)
	}
	if !opts.Overwrite {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("%s/%s: %w", category, path, storage.ErrObjectExists)
		}
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Download returns the bytes stored at path.
func (s *Store) Download(ctx context.Context, category models.Category, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket(category)),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s/%s: %w", category, path, storage.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}

// Remove deletes every listed path.
func (s *Store) Remove(ctx context.Context, category models.Category, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	ids := make([]s3types.ObjectIdentifier, len(paths))
	for i, p := range paths {
		ids[i] = s3types.ObjectIdentifier{Key: aws.String(p)}
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket(category)),
		Delete: &s3types.Delete{
			Objects: ids,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("delete objects: %w", err)
	}
	if len(out.Errors) > 0 {
		e := out.Errors[0]
		return fmt.Errorf("delete %s: %s", aws.ToString(e.Key), aws.ToString(e.Message))
	}
	return nil
}

// PublicURL returns a path-style URL under the configured public base.
func (s *Store) PublicURL(category models.Category, path string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket(category), path)
}

// isNotFound checks whether the error indicates a missing S3 object.
func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	// Some S3-compatible services return a generic "NotFound" status.
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}

func isPreconditionFailed(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "PreconditionFailed") || strings.Contains(msg, "ConditionalRequestConflict")
}
