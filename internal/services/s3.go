package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/config"
	"github.com/mithilsmehta/TaskFlow/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AttachmentLinker resolves stored attachment references to fetchable URLs
type AttachmentLinker interface {
	Link(ctx context.Context, ref string) (string, error)
}

// S3AttachmentLinker presigns GET requests for attachment keys stored in a bucket
type S3AttachmentLinker struct {
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

// NewS3AttachmentLinker creates a linker for the configured bucket
func NewS3AttachmentLinker(ctx context.Context, cfg *config.S3Config) (*S3AttachmentLinker, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3AttachmentLinker{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		ttl:     cfg.PresignTTL,
	}, nil
}

// Link returns a presigned GET URL for the key
func (l *S3AttachmentLinker) Link(ctx context.Context, ref string) (string, error) {
	req, err := l.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(strings.TrimPrefix(ref, "/")),
	}, s3.WithPresignExpires(l.ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", ref, err)
	}
	return req.URL, nil
}

// AttachmentLinks pairs each attachment of a task with a URL. Absolute URLs are
// returned as stored; other references need a linker and get an empty URL
// without one.
func AttachmentLinks(ctx context.Context, linker AttachmentLinker, task *models.Task) ([]models.AttachmentLink, error) {
	links := make([]models.AttachmentLink, 0, len(task.Attachments))
	for _, ref := range task.Attachments {
		link := models.AttachmentLink{Ref: ref}
		switch {
		case isAbsoluteURL(ref):
			link.URL = ref
		case linker != nil:
			url, err := linker.Link(ctx, ref)
			if err != nil {
				return nil, err
			}
			link.URL = url
		}
		links = append(links, link)
	}
	return links, nil
}

func isAbsoluteURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
