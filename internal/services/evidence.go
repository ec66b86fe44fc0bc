package services

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"assistance_back_end/internal/database"

	"github.com/minio/minio-go/v7"
)

// UploadEvidence stocke une photo de preuve dans le bucket MinIO et retourne
// son URL publique.
func UploadEvidence(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("stockage des preuves indisponible")
	}

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "evidence"
	}

	_, err := database.MinIO.PutObject(ctx, bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}

	scheme := "http"
	if os.Getenv("MINIO_USE_SSL") == "true" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, os.Getenv("MINIO_ENDPOINT"), bucket, objectName), nil
}
