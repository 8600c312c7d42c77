package cloudflare

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type R2Client struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

var globalR2 *R2Client

// InitR2 builds the S3 client pointed at the Cloudflare R2 endpoint.
// Missing credentials leave uploads disabled rather than crashing the server.
func InitR2() {
	accountID := os.Getenv("R2_ACCOUNT_ID")
	accessKey := os.Getenv("R2_ACCESS_KEY_ID")
	secretKey := os.Getenv("R2_SECRET_ACCESS_KEY")
	bucket := os.Getenv("R2_BUCKET_NAME")
	publicURL := os.Getenv("R2_PUBLIC_URL")

	if accountID == "" || accessKey == "" || secretKey == "" || bucket == "" {
		log.Println("R2 credentials not configured, file uploads disabled")
		return
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		log.Printf("R2 config error: %v", err)
		return
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID))
	})

	globalR2 = &R2Client{
		client:    client,
		bucket:    bucket,
		publicURL: publicURL,
	}
}

func GetR2() *R2Client {
	return globalR2
}

// UploadFile stores the buffer under a uuid-prefixed key and returns the
// public URL of the object.
func (r *R2Client) UploadFile(ctx context.Context, data *bytes.Buffer, contentType, folder, ext string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("could not upload to R2: %v", err)
	}

	return fmt.Sprintf("%s/%s", r.publicURL, key), nil
}

// DeleteFile removes an object by key.
func (r *R2Client) DeleteFile(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	return err
}
