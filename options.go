package s3mig

import (
	"context"
	"time"

	"github.com/denismitr/s3mig/internal/source"
)

type OptionFunc func(*Migrator) error

type (
	s3Config struct {
		options source.S3Options
		prefix  string
		client  source.S3Client
	}

	S3OptionFunc func(c *s3Config)
)

// UseS3Source reads migrations from the bucket. Unless WithS3Client is given
// a client is built from the default AWS credential chain for the region.
func UseS3Source(bucket, region string, options ...S3OptionFunc) OptionFunc {
	var c s3Config
	c.options.Region = region
	for _, o := range options {
		o(&c)
	}

	return func(m *Migrator) error {
		client := c.client
		if client == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			s3Client, err := source.NewS3Client(ctx, c.options)
			if err != nil {
				return err
			}

			client = s3Client
		}

		s, err := source.NewS3Store(client, bucket, region, c.prefix)
		if err != nil {
			return err
		}

		m.store = s
		m.lg.Debugf("using bucket [%s] in region [%s]", bucket, region)
		return nil
	}
}

// WithS3Endpoint points the client at an S3 compatible server using path style addressing
func WithS3Endpoint(endpoint string) S3OptionFunc {
	return func(c *s3Config) {
		c.options.Endpoint = endpoint
	}
}

// WithS3Prefix narrows the bucket listing, classification still expects
// keys to start with the migrations folder
func WithS3Prefix(prefix string) S3OptionFunc {
	return func(c *s3Config) {
		c.prefix = prefix
	}
}

func WithS3StaticCredentials(accessKeyID, secretAccessKey, sessionToken string) S3OptionFunc {
	return func(c *s3Config) {
		c.options.AccessKeyID = accessKeyID
		c.options.SecretAccessKey = secretAccessKey
		c.options.SessionToken = sessionToken
	}
}

func WithS3Client(client S3Client) S3OptionFunc {
	return func(c *s3Config) {
		c.client = client
	}
}

// UseLocalFolderSource reads migrations from a folder laid out like the bucket
func UseLocalFolderSource(folder string) OptionFunc {
	return func(m *Migrator) error {
		s, err := source.NewLocalFileStore(folder)
		if err != nil {
			return err
		}

		m.store = s
		return nil
	}
}

func UseInMemorySource(objects ...Object) OptionFunc {
	return func(m *Migrator) error {
		m.store = source.NewInMemoryStore(objects...)
		return nil
	}
}

func UseSource(s Store) OptionFunc {
	return func(m *Migrator) error {
		if s == nil {
			return ErrSourceNotInitialized
		}

		m.store = s
		return nil
	}
}
