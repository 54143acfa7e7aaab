// Package avatar hands out presigned S3 URLs for profile pictures. Uploads go
// straight from the browser to the bucket; only the object key is stored.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/ukrch/platform/internal/config"
	"github.com/ukrch/platform/internal/profile"
)

const keyPrefix = "avatars"

var (
	ErrNotConfigured = errors.New("avatar storage is not configured")
	ErrInvalidKey    = errors.New("avatar key does not belong to the account")
	ErrNoAvatar      = errors.New("profile has no avatar")
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ProfileStore is the part of the profile repository avatars need
type ProfileStore interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*profile.Profile, error)
	SetAvatar(ctx context.Context, id, key string) error
}

type Service struct {
	cfg      config.StorageConfig
	profiles ProfileStore
	now      func() time.Time
}

func NewService(cfg config.StorageConfig, profiles ProfileStore) *Service {
	return &Service{cfg: cfg, profiles: profiles, now: time.Now}
}

// Upload is a presigned PUT for a new avatar object
type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// KeyFor returns a fresh object key under the account's prefix
func KeyFor(accountID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s", keyPrefix, accountID, uuid.New())
}

// OwnedBy reports whether key was issued for accountID
func OwnedBy(key string, accountID uuid.UUID) bool {
	rest, ok := strings.CutPrefix(key, fmt.Sprintf("%s/%s/", keyPrefix, accountID))
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

func (s *Service) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	if !s.cfg.Configured() {
		return nil, ErrNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s.cfg.Region)}
	// Without static keys the default chain (env, shared config, instance role) applies
	if s.cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.AccessKeyID, s.cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if s.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return s3.NewPresignClient(client), nil
}

// UploadURL presigns a PUT for a new avatar key of the account
func (s *Service) UploadURL(ctx context.Context, accountID uuid.UUID) (*Upload, error) {
	pc, err := s.presignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.cfg.Bucket
	key := KeyFor(accountID)

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.cfg.PresignTTL))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &Upload{
		Key:       key,
		URL:       req.URL,
		Method:    req.Method,
		ExpiresAt: s.now().Add(s.cfg.PresignTTL).UTC(),
	}, nil
}

// SetAvatar stores key on the profile after checking it was issued to the account
func (s *Service) SetAvatar(ctx context.Context, accountID uuid.UUID, key string) error {
	if !s.cfg.Configured() {
		return ErrNotConfigured
	}
	if !OwnedBy(key, accountID) {
		return ErrInvalidKey
	}

	prof, err := s.profiles.GetByAccountID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	return s.profiles.SetAvatar(ctx, prof.ID, key)
}

// DownloadURL presigns a GET for the stored avatar of the account
func (s *Service) DownloadURL(ctx context.Context, accountID uuid.UUID) (string, error) {
	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", err
	}

	prof, err := s.profiles.GetByAccountID(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	if prof.AvatarKey == "" {
		return "", ErrNoAvatar
	}

	bucket := s.cfg.Bucket
	key := prof.AvatarKey

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.cfg.PresignTTL))
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}

	return req.URL, nil
}
