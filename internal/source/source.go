// Package source resolves the archive argument of the extract command into a local file.
package source

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"github.com/nguyengg/unnest/internal/config"
)

// ParseS3URI parses "s3://bucket/key" into its bucket and key.
//
// ok is false if the given string does not start with "s3://". A URI without a key, or with a key that ends with "/",
// returns an error because only single objects can be extracted.
func ParseS3URI(uri string) (bucket, key string, ok bool, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", false, nil
	}

	bucket, key, _ = strings.Cut(rest, "/")
	switch {
	case bucket == "":
		return "", "", true, fmt.Errorf(`invalid S3 URI "%s": missing bucket`, uri)
	case key == "" || strings.HasSuffix(key, "/"):
		return "", "", true, fmt.Errorf(`invalid S3 URI "%s": missing object key`, uri)
	}

	return bucket, key, true, nil
}

// Resolver turns archive arguments into local files.
type Resolver struct {
	// Loader provides the S3 clients and per-bucket settings.
	//
	// Defaults to config.DefaultLoader.
	Loader *config.Loader

	// Logger is used to log download progress.
	//
	// Defaults to log.Default.
	Logger *log.Logger

	// Concurrency is the number of parts to download in parallel.
	//
	// Defaults to manager.DefaultDownloadConcurrency.
	Concurrency int
}

// Resolve returns the local path of the given archive argument.
//
// Local paths are returned as is and cleanup is a no-op. S3 URIs are downloaded into a new directory under dir,
// keeping the base name of the key, and cleanup removes that directory.
// The caller must always call cleanup.
func (r Resolver) Resolve(ctx context.Context, name, dir string) (local string, cleanup func(), err error) {
	bucket, key, ok, err := ParseS3URI(name)
	if err != nil {
		return "", func() {}, err
	}
	if !ok {
		return name, func() {}, nil
	}

	loader := r.Loader
	if loader == nil {
		loader = config.DefaultLoader
	}
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}

	client, err := loader.NewS3ClientForBucket(ctx, bucket, func(options *s3.Options) {
		options.DisableLogOutputChecksumValidationSkipped = true
	})
	if err != nil {
		return "", func() {}, fmt.Errorf("create S3 client error: %w", err)
	}

	f, cleanup, err := createDownloadFile(dir, key)
	if err != nil {
		return "", func() {}, err
	}

	downloader := manager.NewDownloader(&loggingClient{DownloadAPIClient: client, logger: logger}, func(d *manager.Downloader) {
		if r.Concurrency > 0 {
			d.Concurrency = r.Concurrency
		}
	})

	logger.Printf(`start downloading "%s"`, name)
	n, err := downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket:              &bucket,
		Key:                 &key,
		ExpectedBucketOwner: loader.ForBucket(bucket).ExpectedBucketOwner,
	})
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf(`download "%s" error: %w`, name, err)
	}

	logger.Printf(`done downloading "%s" (%s)`, name, humanize.Bytes(uint64(n)))
	return f.Name(), cleanup, nil
}

// loggingClient logs every successfully downloaded part.
//
// GetObject may be called from any of the downloader's goroutines so the tally must be atomic.
type loggingClient struct {
	manager.DownloadAPIClient
	logger *log.Logger
	parts  atomic.Int32
}

func (c *loggingClient) GetObject(ctx context.Context, input *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	output, err := c.DownloadAPIClient.GetObject(ctx, input, optFns...)
	if err == nil {
		c.logger.Printf("downloaded %d parts so far", c.parts.Add(1))
	}

	return output, err
}

var _ manager.DownloadAPIClient = &loggingClient{}

// createDownloadFile creates a file named exactly like the base name of the key inside a new temporary directory under
// dir, so that the archive keeps its real name. cleanup removes the temporary directory.
func createDownloadFile(dir, key string) (_ *os.File, cleanup func(), err error) {
	if err = os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf(`create directory "%s" error: %w`, dir, err)
	}

	tmp, err := os.MkdirTemp(dir, "unnest-download-")
	if err != nil {
		return nil, nil, fmt.Errorf("create download directory error: %w", err)
	}
	cleanup = func() {
		_ = os.RemoveAll(tmp)
	}

	f, err := os.Create(filepath.Join(tmp, path.Base(key)))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create file error: %w", err)
	}

	return f, cleanup, nil
}
