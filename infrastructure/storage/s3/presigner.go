// Package s3 issues presigned upload URLs for post media.
package s3

import (
	"context"
	"fmt"
	"strings"
	"time"

	"myblog-backend/application/ports"
	"myblog-backend/domain/core/validators"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	mediaKeyPrefix = "media/"

	// DefaultUploadExpiry is how long a presigned URL stays valid
	DefaultUploadExpiry = 15 * time.Minute
)

// PresignAPI is the subset of the S3 presign client the presigner uses
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var _ PresignAPI = (*s3.PresignClient)(nil)

// Config holds the bucket and the public domain objects are served from
type Config struct {
	BucketName       string
	CloudFrontDomain string
	Expiry           time.Duration
}

// Presigner implements ports.MediaStorage with S3 presigned PUT URLs
type Presigner struct {
	client PresignAPI
	cfg    Config
	logger *zap.Logger
	newID  func() string
}

var _ ports.MediaStorage = (*Presigner)(nil)

// NewPresigner creates a presigner
func NewPresigner(client PresignAPI, cfg Config, logger *zap.Logger) *Presigner {
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultUploadExpiry
	}
	cfg.CloudFrontDomain = strings.TrimSuffix(strings.TrimPrefix(cfg.CloudFrontDomain, "https://"), "/")
	return &Presigner{
		client: client,
		cfg:    cfg,
		logger: logger,
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// PresignUpload signs a PUT for a fresh object key under media/
func (p *Presigner) PresignUpload(ctx context.Context, media validators.ValidatedMedia) (*ports.UploadTarget, error) {
	mediaID := p.newID()
	key := mediaKeyPrefix + mediaID + media.Extension

	input := &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(media.Type.MIME),
	}
	if media.Size != nil {
		input.ContentLength = media.Size
	}

	req, err := p.client.PresignPutObject(ctx, input, s3.WithPresignExpires(p.cfg.Expiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}

	p.logger.Debug("Presigned media upload",
		zap.String("key", key),
		zap.String("contentType", media.Type.MIME),
	)

	return &ports.UploadTarget{
		UploadURL: req.URL,
		MediaURL:  fmt.Sprintf("https://%s/%s", p.cfg.CloudFrontDomain, key),
		MediaID:   mediaID,
		Key:       key,
		ExpiresIn: p.cfg.Expiry,
	}, nil
}
