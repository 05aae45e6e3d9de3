package uploader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/saipavankommuri123/liveKit-backend/pkg/logger"
)

// S3Config holds the connection settings for an S3-compatible store.
type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint is set for S3-compatible services (R2, MinIO); empty for AWS.
	Endpoint string
}

// S3Uploader pushes finished recording files into a bucket, keyed by their
// path relative to the recording output root so the room name survives.
type S3Uploader struct {
	bucket string
	root   string
	client *s3manager.Uploader
}

func NewS3Uploader(cfg S3Config, outputRoot string) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket not configured")
	}

	creds := credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	if _, err := creds.Get(); err != nil {
		return nil, fmt.Errorf("invalid S3 credentials: %v", err)
	}

	awsConfig := &aws.Config{
		Region:           aws.String(cfg.Region),
		Credentials:      creds,
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess := session.Must(session.NewSession(awsConfig))
	uploader := s3manager.NewUploaderWithClient(s3.New(sess))

	logger.Info("Recording uploader initialized",
		logger.String("bucket", cfg.Bucket),
		logger.String("region", cfg.Region),
		logger.String("endpoint", cfg.Endpoint))

	return &S3Uploader{bucket: cfg.Bucket, root: outputRoot, client: uploader}, nil
}

// UploadFile uploads one recording file. The object key preserves the
// room directory, e.g. /out/math-101/17123.mp4 -> math-101/17123.mp4.
func (u *S3Uploader) UploadFile(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", filePath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %v", filePath, err)
	}

	key := u.objectKey(filePath)
	logger.Info("Uploading recording",
		logger.String("key", key),
		logger.Int64("size_bytes", info.Size()))

	result, err := u.client.Upload(&s3manager.UploadInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("s3 upload of %s failed: %v", key, err)
	}

	logger.Info("Recording uploaded", logger.String("location", result.Location))
	return nil
}

func (u *S3Uploader) objectKey(filePath string) string {
	if rel, err := filepath.Rel(u.root, filePath); err == nil && !filepath.IsAbs(rel) && rel != "." && !isOutsideRoot(rel) {
		return filepath.ToSlash(rel)
	}
	return filepath.Base(filePath)
}

func isOutsideRoot(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
