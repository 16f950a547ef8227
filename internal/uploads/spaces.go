package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"swipr-api/internal/config"
	"swipr-api/internal/logging"
)

// SpacesStorage keeps uploads in a DigitalOcean Spaces bucket. Objects are private.
type SpacesStorage struct {
	client     *s3.S3
	bucketName string
	prefix     string
	logger     logging.Logger
}

// NewSpacesStorage creates a new DigitalOcean Spaces client
func NewSpacesStorage(cfg *config.Config) (*SpacesStorage, error) {
	logger := logging.GetGlobalLogger().WithField("component", "uploads")
	spaces := cfg.DigitalOcean.Spaces

	if spaces.AccessKeyID == "" || spaces.AccessKeySecret == "" {
		return nil, fmt.Errorf("DigitalOcean Spaces credentials are required")
	}
	if spaces.BucketName == "" {
		return nil, fmt.Errorf("DigitalOcean Spaces bucket name is required")
	}

	// Region endpoint, e.g. https://nyc3.digitaloceanspaces.com
	endpoint := fmt.Sprintf("https://%s.digitaloceanspaces.com", spaces.Region)

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			spaces.AccessKeyID,
			spaces.AccessKeySecret,
			"",
		),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(spaces.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DigitalOcean Spaces session: %w", err)
	}

	logger.Info("DigitalOcean Spaces client initialized", map[string]interface{}{
		"bucket_name": spaces.BucketName,
		"region":      spaces.Region,
		"endpoint":    endpoint,
	})

	return &SpacesStorage{
		client:     s3.New(sess),
		bucketName: spaces.BucketName,
		prefix:     spaces.Prefix,
		logger:     logger,
	}, nil
}

func (sc *SpacesStorage) Backend() string { return BackendSpaces }

func (sc *SpacesStorage) key(name string) string {
	if sc.prefix == "" {
		return name
	}
	return path.Join(sc.prefix, name)
}

func (sc *SpacesStorage) Put(ctx context.Context, name, contentType string, data []byte) error {
	_, err := sc.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(sc.bucketName),
		Key:         aws.String(sc.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         aws.String("private"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return nil
}

func (sc *SpacesStorage) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := sc.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(sc.bucketName),
		Key:    aws.String(sc.key(name)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download %s: %w", name, err)
	}
	return out.Body, nil
}

func (sc *SpacesStorage) Delete(ctx context.Context, name string) error {
	_, err := sc.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(sc.bucketName),
		Key:    aws.String(sc.key(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// Healthy checks if the Spaces client can communicate with the service
func (sc *SpacesStorage) Healthy(ctx context.Context) bool {
	_, err := sc.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(sc.bucketName),
	})
	if err != nil {
		sc.logger.Error("DigitalOcean Spaces health check failed", map[string]interface{}{
			"bucket_name": sc.bucketName,
			"error":       err.Error(),
		})
		return false
	}
	return true
}

func isNoSuchKey(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
	}
	return false
}
