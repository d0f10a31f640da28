package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/clinicore/docintake/internal/records"
	"github.com/clinicore/docintake/pkg/logger"
	"github.com/clinicore/docintake/pkg/queue"
	"github.com/clinicore/docintake/pkg/storage"
)

// ArchiveTransport persists a confirmed document: it moves the staged
// payload under the archive prefix, writes a metadata record beside it
// and enqueues a preview task for the worker. It implements
// records.Uploader.
type ArchiveTransport struct {
	storage storage.Storage
	queue   queue.Queue
	logger  logger.Logger
}

var _ records.Uploader = (*ArchiveTransport)(nil)

func NewArchiveTransport(store storage.Storage, q queue.Queue, log logger.Logger) *ArchiveTransport {
	return &ArchiveTransport{
		storage: store,
		queue:   q,
		logger:  log,
	}
}

// archiveRecord is the metadata document written next to the payload.
type archiveRecord struct {
	DocumentID   string    `json:"documentId"`
	FileName     string    `json:"fileName"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	Category     string    `json:"category"`
	DocumentType string    `json:"documentType"`
	OwnerID      string    `json:"ownerId"`
	Tags         []string  `json:"tags,omitempty"`
	ArchivedAt   time.Time `json:"archivedAt"`
}

// Upload copies the staged payload into the archive and returns the
// persisted identifier. The staged object is deleted afterwards; the
// preview task is best-effort and never fails the upload.
func (t *ArchiveTransport) Upload(ctx context.Context, req records.UploadRequest) (string, error) {
	payload, err := t.storage.Get(ctx, req.FileKey)
	if err != nil {
		return "", fmt.Errorf("failed to open staged payload: %w", err)
	}
	defer payload.Close()

	archiveKey := fmt.Sprintf("%s%s/%s/%s%s",
		storage.ArchivePrefix, req.OwnerID, req.Category, req.DocumentID,
		filepath.Ext(req.FileName),
	)
	if _, err := t.storage.Store(ctx, payload, archiveKey); err != nil {
		return "", fmt.Errorf("failed to archive payload: %w", err)
	}

	record := archiveRecord{
		DocumentID:   req.DocumentID,
		FileName:     req.FileName,
		MimeType:     req.MimeType,
		SizeBytes:    req.SizeBytes,
		Category:     string(req.Category),
		DocumentType: req.DocumentType,
		OwnerID:      req.OwnerID,
		Tags:         req.Tags,
		ArchivedAt:   time.Now(),
	}
	metadata, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal archive record: %w", err)
	}
	if _, err := t.storage.Store(ctx, bytes.NewReader(metadata), archiveKey+".json"); err != nil {
		return "", fmt.Errorf("failed to store archive record: %w", err)
	}

	if err := t.storage.Delete(ctx, req.FileKey); err != nil {
		t.logger.Warn("Failed to delete staged payload",
			logger.String("key", req.FileKey),
			logger.Error(err),
		)
	}

	task := &queue.Task{
		ID:   req.DocumentID,
		Type: queue.TaskTypePreview,
		Payload: map[string]interface{}{
			"archiveKey": archiveKey,
		},
		Metadata: map[string]string{
			"fileName": req.FileName,
			"mimeType": req.MimeType,
		},
		CreatedAt: time.Now(),
	}
	if err := t.queue.Enqueue(ctx, task); err != nil {
		t.logger.Warn("Failed to enqueue preview task",
			logger.String("documentId", req.DocumentID),
			logger.Error(err),
		)
	}

	return req.DocumentID, nil
}
