package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// getGoogleClient prefers ADC unless explicit credentials JSON is given.
func getGoogleClient(ctx context.Context, credJSON string) (*storage.Client, error) {
	if strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

// UploadToGCS writes data to bucket/objectName and returns its gs:// URI.
func UploadToGCS(ctx context.Context, bucket, credJSON, objectName, contentType string, data []byte) (string, error) {
	if bucket == "" {
		return "", errors.New("GCS_BUCKET is required")
	}
	client, err := getGoogleClient(ctx, credJSON)
	if err != nil {
		return "", err
	}
	defer client.Close()

	wc := client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", bucket, objectName), nil
}
