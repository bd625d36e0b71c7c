package statements

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"MvpxArtistSaas/api/constants"
)

// Archiver keeps a copy of every uploaded workbook in S3 for audit.
// Best effort: an archive failure is logged by the caller, never fails
// the import itself.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewArchiverFromEnv builds the archiver from STATEMENT_ARCHIVE_BUCKET
// and (optionally) STATEMENT_ARCHIVE_PREFIX. Returns nil when no bucket
// is configured; archiving is opt-in per environment.
func NewArchiverFromEnv(ctx context.Context) (*Archiver, error) {
	bucket := os.Getenv("STATEMENT_ARCHIVE_BUCKET")
	if bucket == "" {
		return nil, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Archiver{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: os.Getenv("STATEMENT_ARCHIVE_PREFIX"),
	}, nil
}

// Archive stores the raw workbook bytes under a timestamped key.
func (a *Archiver) Archive(ctx context.Context, filename string, data []byte) error {
	key := fmt.Sprintf("%sstatements/%s/%s", a.prefix,
		time.Now().UTC().Format("2006/01/02"), filename)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(constants.ContentTypeXLSX),
	})
	return err
}
