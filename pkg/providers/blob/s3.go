// Package blob uploads recorded meeting audio to an S3-compatible bucket
// and issues presigned read URLs for it.
package blob

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

// Store uploads recorded meeting audio to S3 and issues presigned read URLs.
type Store struct {
	bucket string
	sess   *session.Session
	client *s3.S3
}

func NewStore(bucket string, sess *session.Session) *Store {
	return &Store{bucket: bucket, sess: sess, client: s3.New(sess)}
}

// Upload puts the file at localPath under key in the configured bucket.
func (s *Store) Upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	uploader := s3manager.NewUploader(s.sess)
	_, err = uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// Presign returns a time-limited URL for reading the object at key.
func (s *Store) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return url, nil
}

var _ meeting.BlobStore = (*Store)(nil)
