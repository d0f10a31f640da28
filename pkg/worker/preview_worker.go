package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"io"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/hibiken/asynq"
	"github.com/ledongthuc/pdf"

	"github.com/clinicore/docintake/pkg/logger"
	"github.com/clinicore/docintake/pkg/queue"
	"github.com/clinicore/docintake/pkg/storage"
)

const thumbnailWidth = 320

// PreviewWorker consumes document:preview tasks after a batch confirm.
// For images it renders a thumbnail under the previews prefix; for PDFs
// it records the page count in the task status. It runs entirely
// downstream of the intake engine and never touches pending records.
type PreviewWorker struct {
	BaseWorker
	storage storage.Storage
	queue   queue.Queue
}

func NewPreviewWorker(cfg *Config, store storage.Storage, q queue.Queue, log logger.Logger) (*PreviewWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Minute
			},
		},
	)

	w := &PreviewWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		storage: store,
		queue:   q,
	}

	w.mux.HandleFunc(queue.TaskTypePreview, w.handlePreview)

	return w, nil
}

func (w *PreviewWorker) Start(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start preview worker: %w", err)
	}
	w.logger.Info("Preview worker started")
	return nil
}

func (w *PreviewWorker) handlePreview(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		return fmt.Errorf("failed to unmarshal preview task: %w", err)
	}

	archiveKey, _ := task.Payload["archiveKey"].(string)
	if archiveKey == "" {
		return fmt.Errorf("preview task %s has no archive key", task.ID)
	}
	mimeType := task.Metadata["mimeType"]

	status := &queue.TaskStatus{
		TaskID:    task.ID,
		Status:    "completed",
		StartedAt: time.Now(),
	}

	var err error
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		err = w.renderThumbnail(ctx, task.ID, archiveKey)
	case mimeType == "application/pdf":
		err = w.recordPageCount(ctx, task.ID, archiveKey)
	default:
		w.logger.Debug("No preview for content type",
			logger.String("documentId", task.ID),
			logger.String("mimeType", mimeType),
		)
	}
	if err != nil {
		status.Status = "failed"
		status.Error = err.Error()
	}
	status.FinishedAt = time.Now()

	if saveErr := w.queue.SaveFinalStatus(ctx, status); saveErr != nil {
		w.logger.Error("Failed to save preview status",
			logger.String("taskId", task.ID),
			logger.Error(saveErr),
		)
	}

	return err
}

// renderThumbnail decodes the archived image and stores a fixed-width
// JPEG thumbnail under the previews prefix.
func (w *PreviewWorker) renderThumbnail(ctx context.Context, documentID, archiveKey string) error {
	reader, err := w.storage.Get(ctx, archiveKey)
	if err != nil {
		return fmt.Errorf("failed to open archived image: %w", err)
	}
	defer reader.Close()

	img, err := imaging.Decode(reader, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	previewKey := fmt.Sprintf("%s%s.jpg", storage.PreviewPrefix, documentID)
	if _, err := w.storage.Store(ctx, &buf, previewKey); err != nil {
		return fmt.Errorf("failed to store thumbnail: %w", err)
	}

	w.logger.Info("Thumbnail generated",
		logger.String("documentId", documentID),
		logger.String("previewKey", previewKey),
	)
	return nil
}

// recordPageCount reads the archived PDF and stores its page count as a
// sidecar metadata object.
func (w *PreviewWorker) recordPageCount(ctx context.Context, documentID, archiveKey string) error {
	reader, err := w.storage.Get(ctx, archiveKey)
	if err != nil {
		return fmt.Errorf("failed to open archived pdf: %w", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read pdf: %w", err)
	}

	byteReader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(byteReader, byteReader.Size())
	if err != nil {
		return fmt.Errorf("failed to parse pdf: %w", err)
	}

	info, err := json.Marshal(map[string]interface{}{
		"documentId": documentID,
		"pages":      pdfReader.NumPage(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal pdf info: %w", err)
	}

	infoKey := fmt.Sprintf("%s%s.pages.json", storage.PreviewPrefix, documentID)
	if _, err := w.storage.Store(ctx, bytes.NewReader(info), infoKey); err != nil {
		return fmt.Errorf("failed to store pdf info: %w", err)
	}

	return nil
}
