package source

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/denismitr/s3mig/migration"
	"github.com/pkg/errors"
)

var ErrBucketNotSpecified = errors.New("migrations bucket not specified")

// S3Client defines the S3 operations used by the store
type S3Client interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Options struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// S3Store lists and reads migration objects of a single bucket.
// Bucket, region and listing prefix are fixed at construction.
type S3Store struct {
	client S3Client
	bucket string
	region string
	prefix string
}

var _ Store = (*S3Store)(nil)

func NewS3Store(client S3Client, bucket, region, prefix string) (*S3Store, error) {
	if bucket == "" {
		return nil, ErrBucketNotSpecified
	}

	if client == nil {
		return nil, errors.New("s3 client is nil")
	}

	return &S3Store{
		client: client,
		bucket: bucket,
		region: region,
		prefix: prefix,
	}, nil
}

// NewS3Client builds a client from the default AWS credential chain,
// static credentials and a custom endpoint (MinIO, LocalStack) are optional
func NewS3Client(ctx context.Context, o S3Options) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(o.Region),
	}

	if o.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, o.SessionToken),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not load AWS config")
	}

	var s3Opts []func(*s3.Options)
	if o.Endpoint != "" {
		s3Opts = append(s3Opts, func(so *s3.Options) {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(cfg, s3Opts...), nil
}

func (s *S3Store) Bucket() string {
	return s.bucket
}

func (s *S3Store) Region() string {
	return s.region
}

// List returns every key of the bucket in the order S3 reports them,
// following continuation tokens until the listing is exhausted
func (s *S3Store) List(ctx context.Context) (migration.Keys, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix)
	}

	var keys migration.Keys
	p := s3.NewListObjectsV2Paginator(s.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "could not list objects of bucket [%s]", s.bucket)
		}

		for _, obj := range page.Contents {
			keys = append(keys, migration.Key(aws.ToString(obj.Key)))
		}
	}

	return keys, nil
}

func (s *S3Store) Fetch(ctx context.Context, key migration.Key) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(string(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return "", errors.Wrapf(ErrObjectNotFound, "bucket [%s] key [%s]", s.bucket, key)
		}

		return "", errors.Wrapf(err, "could not get object [%s] from bucket [%s]", key, s.bucket)
	}

	if out.Body == nil {
		return "", nil
	}

	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return "", errors.Wrapf(err, "could not read object [%s] from bucket [%s]", key, s.bucket)
	}

	return decodeText(key, b)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound"
	}

	return false
}
