package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
	sc "github.com/dmitrijs2005/guardian/internal/server/config"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// EvidenceUpload is a presigned URL the client PUTs the evidence object to.
type EvidenceUpload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EvidenceService hands out upload URLs for photos or recordings attached to
// an active duress alert.
type EvidenceService struct {
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
	now         func() time.Time
}

func NewEvidenceService(m repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *EvidenceService {
	return &EvidenceService{
		repomanager: m,
		config:      config,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// EvidenceKey returns a fresh object key under the user's prefix.
func EvidenceKey(userID string, d time.Time) string {
	return fmt.Sprintf("evidence/%s/%d/%02d/%02d/%v", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *EvidenceService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// RequestUpload presigns a PUT for a new evidence object and records its key
// on the user's alert. The alert must be active.
func (s *EvidenceService) RequestUpload(ctx context.Context, userID string) (*EvidenceUpload, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if s.config.S3Bucket == "" {
		return nil, fmt.Errorf("evidence uploads: %w", common.ErrNotConfigured)
	}

	repo := s.repomanager.Duress()
	rec, err := repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !rec.Active() {
		return nil, fmt.Errorf("%w: no active duress alert", common.ErrConflict)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	now := s.now()
	bucket := s.config.S3Bucket
	key := EvidenceKey(userID, now)
	expiry := s.config.EvidenceURLExpiry

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	if _, err := repo.AttachEvidence(ctx, userID, key); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "evidence upload requested", "user_id", userID, "key", key)
	return &EvidenceUpload{Key: key, URL: req.URL, ExpiresAt: now.Add(expiry)}, nil
}
