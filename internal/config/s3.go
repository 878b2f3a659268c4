package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BucketConfig contains configuration settings for a specific bucket.
type BucketConfig struct {
	Bucket              string
	AWSProfile          string
	ExpectedBucketOwner *string
}

// ForBucket returns configuration for a specific bucket from the "[s3://bucket]" section.
func (l *Loader) ForBucket(bucket string) (c BucketConfig) {
	c.Bucket = bucket

	sec := l.section("s3://" + bucket)
	if sec == nil {
		return c
	}

	c.AWSProfile = sec.Key("aws-profile").String()
	if sec.HasKey("expected-bucket-owner") {
		c.ExpectedBucketOwner = aws.String(sec.Key("expected-bucket-owner").String())
	}

	return
}

// ForBucket calls Loader.ForBucket on the DefaultLoader instance.
func ForBucket(bucket string) (c BucketConfig) {
	return DefaultLoader.ForBucket(bucket)
}

// NewS3ClientForBucket creates an S3 client using the AWS profile of the bucket unless Loader.Profile is given.
//
// Clients are cached per bucket.
func (l *Loader) NewS3ClientForBucket(ctx context.Context, bucket string, optFns ...func(*s3.Options)) (*s3.Client, error) {
	key := "s3://" + bucket
	if c, ok := l.s3clientCache.Load(key); ok {
		return c.(*s3.Client), nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, func(opts *config.LoadOptions) error {
		if l.Profile != "" {
			opts.SharedConfigProfile = l.Profile
			return nil
		}

		opts.SharedConfigProfile = l.ForBucket(bucket).AWSProfile
		return nil
	})
	if err != nil {
		return nil, err
	}

	c := s3.NewFromConfig(cfg, optFns...)
	l.s3clientCache.Store(key, c)
	return c, nil
}

// NewS3ClientForBucket calls Loader.NewS3ClientForBucket on the DefaultLoader instance.
func NewS3ClientForBucket(ctx context.Context, bucket string, optFns ...func(*s3.Options)) (*s3.Client, error) {
	return DefaultLoader.NewS3ClientForBucket(ctx, bucket, optFns...)
}
