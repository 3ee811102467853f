package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const archivePrefix = "drafts/"

// Uploader is the subset of the S3 client the archive uses
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ArchiveConfig points at an S3-compatible bucket. Endpoint is set for
// Cloudflare R2 and left empty for AWS.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

// Archive uploads exported drafts to object storage
type Archive struct {
	client Uploader
	bucket string
}

func NewArchive(ctx context.Context, cfg ArchiveConfig) (*Archive, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewArchiveWithClient(client, cfg.Bucket), nil
}

func NewArchiveWithClient(client Uploader, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// Key returns the object key of a draft
func Key(id int64) string {
	return fmt.Sprintf("%s%d.md", archivePrefix, id)
}

// Upload stores the rendered draft and returns its object key
func (a *Archive) Upload(ctx context.Context, id int64, content []byte) (string, error) {
	key := Key(id)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/markdown; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object to S3: %w", err)
	}
	return key, nil
}
