package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/spec-kit/paydesk/internal/config"
)

// PutObjectAPI is the part of the S3 client the exporter uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter uploads reports to a bucket on AWS S3 or an S3-compatible store.
type S3Exporter struct {
	client PutObjectAPI
	bucket string
}

// NewS3Exporter builds a client from the default AWS credential chain.
func NewS3Exporter(ctx context.Context, cfg config.ReportConfig) (*S3Exporter, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("REPORT_S3_BUCKET required for s3 export")
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})
	return NewS3ExporterWithClient(client, cfg.S3Bucket), nil
}

// NewS3ExporterWithClient wraps an existing client.
func NewS3ExporterWithClient(client PutObjectAPI, bucket string) *S3Exporter {
	return &S3Exporter{client: client, bucket: bucket}
}

// Export uploads body under key name.
func (e *S3Exporter) Export(ctx context.Context, name string, body []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := e.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", e.bucket, name), nil
}
