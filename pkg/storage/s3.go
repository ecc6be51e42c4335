package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const (
	// FolderCertificates is the S3 prefix for certificate documents.
	FolderCertificates = "certificates"
	// DefaultPresignExpire is used when no presign duration is configured.
	DefaultPresignExpire = 15 * time.Minute
)

// documentTypes maps certificate document extensions to MIME types.
var documentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
	".pdf":  "application/pdf",
}

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	CertificatesBucket   string
	PresignExpireMinutes int
}

// S3 stores certificate documents and signs download URLs for them.
type S3 struct {
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the environment
// (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY), else the default chain.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CertificatesBucket == "" {
		return nil, fmt.Errorf("certificates bucket is not configured")
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("bucket", cfg.CertificatesBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3{
		client:   client,
		presign:  s3.NewPresignClient(client),
		uploader: manager.NewUploader(client),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// CertificateKey returns the object key for one issued certificate:
// certificates/{webinar_id}/{user_id}/{certificate_id}{ext}.
func CertificateKey(webinarID, userID, certificateID, ext string) string {
	return path.Join(FolderCertificates, webinarID, userID, certificateID+ext)
}

// ContentTypeForKey returns the MIME type for a document key's extension.
func ContentTypeForKey(key string) string {
	if ct, ok := documentTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	return presignExpire(s.cfg.PresignExpireMinutes)
}

func presignExpire(minutes int) time.Duration {
	if minutes <= 0 {
		return DefaultPresignExpire
	}
	return time.Duration(minutes) * time.Minute
}

// Upload streams body to bucket/key.
func (s *S3) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if contentLength > 0 {
		input.ContentLength = aws.Int64(contentLength)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// PutDocument uploads a rendered certificate document to the certificates
// bucket. An empty contentType is derived from the key's extension.
func (s *S3) PutDocument(ctx context.Context, key, contentType string, body []byte) error {
	if contentType == "" {
		contentType = ContentTypeForKey(key)
	}
	if err := s.Upload(ctx, s.cfg.CertificatesBucket, key, contentType, bytes.NewReader(body), int64(len(body))); err != nil {
		return err
	}
	s.logger.Debug("certificate document stored", zap.String("key", key), zap.Int("bytes", len(body)))
	return nil
}

// DeleteDocument removes a certificate document.
func (s *S3) DeleteDocument(ctx context.Context, key string) error {
	return s.DeleteObject(ctx, s.cfg.CertificatesBucket, key)
}

// PresignDocument returns a pre-signed GET URL for a certificate document and its lifetime.
func (s *S3) PresignDocument(ctx context.Context, key string) (string, time.Duration, error) {
	expires := s.PresignExpire()
	url, err := s.GeneratePresignedDownloadURL(ctx, s.cfg.CertificatesBucket, key, expires)
	if err != nil {
		return "", 0, err
	}
	return url, expires, nil
}

// GeneratePresignedDownloadURL returns a pre-signed GET URL for download.
func (s *S3) GeneratePresignedDownloadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf(`attachment; filename="%s"`, path.Base(key))),
		ResponseContentType:        aws.String(ContentTypeForKey(key)),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// DeleteObject removes an object from S3.
func (s *S3) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
