// Package proofstore issues presigned upload slots for payment proofs on
// S3-compatible storage. The client uploads directly; the ledger stores
// only the stable object reference.
package proofstore

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// Config holds S3 connection settings. Endpoint is optional and supports
// S3-compatible providers.
type Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	URLExpiry time.Duration
}

// Store presigns payment proof uploads against one bucket.
type Store struct {
	s3     *s3.S3
	bucket string
	expiry time.Duration
}

// New creates a proof store from the given configuration.
func New(cfg Config) (*Store, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create s3 session: %w", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &Store{s3: s3.New(sess), bucket: cfg.Bucket, expiry: expiry}, nil
}

// PresignUpload returns a presigned PUT URL and the stable proof reference
// the client must echo back when submitting the payment. The object key is
// namespaced per user and randomized so references cannot collide or be
// guessed.
func (s *Store) PresignUpload(userID uuid.UUID, filename, contentType string) (uploadURL, proofRef string, err error) {
	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("payment-proofs/%s/%s%s", userID, uuid.New(), ext)

	req, _ := s.s3.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	uploadURL, err = req.Presign(s.expiry)
	if err != nil {
		return "", "", fmt.Errorf("presign proof upload: %w", err)
	}

	return uploadURL, fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
