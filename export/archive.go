package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/linesmerrill/police-investigations-api/models"
)

// Archiver keeps a copy of every exported document
type Archiver interface {
	Archive(ctx context.Context, inv models.Investigation, filename string, body []byte) error
}

// PutObjectAPI is the part of the S3 client the archiver uses
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes exports to exports/<officerId>/<investigationId>/<filename>
type S3Archiver struct {
	client PutObjectAPI
	bucket string
}

// NewS3Archiver loads the default AWS credential chain for region
func NewS3Archiver(ctx context.Context, bucket, region string) (*S3Archiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewS3ArchiverWithClient(s3.NewFromConfig(awsCfg), bucket), nil
}

// NewS3ArchiverWithClient wraps an existing client
func NewS3ArchiverWithClient(client PutObjectAPI, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket}
}

// Key returns the object key used for an export
func Key(inv models.Investigation, filename string) string {
	return path.Join("exports", inv.OfficerID, inv.ID, filename)
}

func (a *S3Archiver) Archive(ctx context.Context, inv models.Investigation, filename string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(Key(inv, filename)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return fmt.Errorf("archive export: %w", err)
	}
	return nil
}

// NoopArchiver discards exports
type NoopArchiver struct{}

func (NoopArchiver) Archive(context.Context, models.Investigation, string, []byte) error { return nil }
