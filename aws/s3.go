package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignPut mints a URL allowing exactly one PUT of the given object. The
// content type and length are baked into the signature so the client can't
// swap in a different payload shape than the one its grant was issued for.
func (c *S3Client) PresignPut(ctx context.Context, key, mimeType string, size int64, ttl time.Duration) (string, error) {
	req, err := c.Presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        c.Bucket,
		Key:           aws.String(key),
		ContentType:   aws.String(mimeType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign PUT for %s, %w", key, err)
	}

	return req.URL, nil
}

// PresignGet mints a download URL that serves the object as an attachment
// under its original file name
func (c *S3Client) PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error) {
	req, err := c.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     c.Bucket,
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", filename)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign GET for %s, %w", key, err)
	}

	return req.URL, nil
}

func (c *S3Client) Stat(ctx context.Context, key string) error {
	_, err := c.C.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to stat object %s, %w", key, err)
	}

	return nil
}

func (c *S3Client) Delete(ctx context.Context, key string) error {
	_, err := c.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s, %w", key, err)
	}

	return nil
}
