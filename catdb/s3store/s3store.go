// Package s3store exports enriched rides to AWS S3.
// The AWS library uses environment variables to configure itself.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rotblauer/gneiss/params"
)

var ErrCanceled = errors.New("s3 request canceled")

type Store struct {
	svc     s3iface.S3API
	Bucket  string
	Prefix  string
	Timeout time.Duration
	logger  *slog.Logger
}

// New returns a Store using a shared AWS session.
func New(bucket string) *Store {
	sess := session.Must(session.NewSession())
	return NewWithClient(s3.New(sess), bucket)
}

func NewWithClient(svc s3iface.S3API, bucket string) *Store {
	if bucket == "" {
		bucket = params.AWS_BUCKETNAME
	}
	return &Store{
		svc:     svc,
		Bucket:  bucket,
		Prefix:  params.RidesDir,
		Timeout: 10 * time.Second,
		logger:  slog.With("d", "s3"),
	}
}

// Key returns the object key for a ride file.
func (s *Store) Key(rideID, name string) string {
	return path.Join(s.Prefix, rideID, name)
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout > 0 {
		return context.WithTimeout(ctx, s.Timeout)
	}
	return context.WithCancel(ctx)
}

// Put uploads one ride file.
func (s *Store) Put(ctx context.Context, rideID, name, contentType string, data []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := s.Key(rideID, name)
	_, err := s.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return s.wrap("upload", key, err)
	}
	s.logger.Info("Uploaded ride file", "bucket", s.Bucket, "key", key, "size", len(data))
	return nil
}

// ExportRide uploads the gzipped enriched collection and the summary.
func (s *Store) ExportRide(ctx context.Context, rideID string, enrichedGZ, summary []byte) error {
	if err := s.Put(ctx, rideID, params.EnrichedGZFileName, "application/gzip", enrichedGZ); err != nil {
		return err
	}
	return s.Put(ctx, rideID, params.SummaryFileName, "application/json", summary)
}

// Get downloads one ride file.
func (s *Store) Get(ctx context.Context, rideID, name string) ([]byte, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := s.Key(rideID, name)
	out, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrap("download", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *Store) wrap(op, key string, err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) && aerr.Code() == request.CanceledErrorCode {
		s.logger.Error("AWS S3 request canceled", "op", op, "key", key, "error", err)
		return fmt.Errorf("%w: %s %s", ErrCanceled, op, key)
	}
	s.logger.Error("AWS S3 request failed", "op", op, "key", key, "error", err)
	return fmt.Errorf("s3 %s %s: %w", op, key, err)
}
