package storage

import (
	"context"
	"fmt"
	"time"
)

// Archiver mirrors final PDFs outside the remote store.
type Archiver interface {
	Archive(ctx context.Context, objectName string, content []byte, contentType string) (*UploadResult, error)
}

type UploadResult struct {
	ObjectName string `json:"object_name"`
	PublicURL  string `json:"public_url"`
	Size       int64  `json:"size"`
}

type NoopArchiver struct{}

func (NoopArchiver) Archive(context.Context, string, []byte, string) (*UploadResult, error) {
	return nil, nil
}

func GenerationObjectName(generationID, filename string) string {
	timestamp := time.Now().Unix()
	return fmt.Sprintf("generations/%s/%d_%s", generationID, timestamp, filename)
}
