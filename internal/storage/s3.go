package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Error indicates an object fetch failure (missing key, access denied,
// transport error).
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to fetch object %q: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// GetObjectAPI is the slice of the S3 client the fetcher needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher retrieves objects from a fixed bucket and materializes them
// fully in memory, since PDF extraction needs a complete byte buffer.
type S3Fetcher struct {
	client GetObjectAPI
	bucket string
}

func NewS3Fetcher(client GetObjectAPI, bucket string) *S3Fetcher {
	return &S3Fetcher{client: client, bucket: bucket}
}

// Fetch downloads the object at key and returns its bytes.
func (f *S3Fetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &Error{Key: key, Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &Error{Key: key, Err: fmt.Errorf("reading object body: %w", err)}
	}

	return data, nil
}
