// Package storage uploads post blobs to S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"github.com/bobrnor/postpublisher/internal/publish"
)

const contentType = "text/markdown; charset=utf-8"

// NewSession builds an AWS session. When both accountName and accountKey are
// set they are used as static credentials; otherwise the default chain applies.
func NewSession(region, accountName, accountKey string) (*session.Session, error) {
	cfg := &aws.Config{
		Region: aws.String(region),
	}

	if accountName != "" && accountKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accountName, accountKey, "")
	}

	return session.NewSession(cfg)
}

// S3Uploader stores blobs as objects: container is the bucket, name the key.
type S3Uploader struct {
	API s3manageriface.UploaderAPI
}

// NewS3Uploader wraps an s3manager uploader for sess.
func NewS3Uploader(sess *session.Session) *S3Uploader {
	return &S3Uploader{API: s3manager.NewUploader(sess)}
}

// Upload implements publish.Uploader.
func (u *S3Uploader) Upload(ctx context.Context, blob publish.Blob) error {
	metadata := make(map[string]*string, len(blob.Metadata))
	for k, v := range blob.Metadata {
		metadata[k] = aws.String(v)
	}

	result, err := u.API.UploadWithContext(ctx, &s3manager.UploadInput{
		Body:        bytes.NewReader(blob.Body),
		Bucket:      aws.String(blob.Container),
		Key:         aws.String(blob.Name),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("s3 upload to %s/%s: %w", blob.Container, blob.Name, err)
	}

	log.Println("Uploaded:", result.Location)
	return nil
}
