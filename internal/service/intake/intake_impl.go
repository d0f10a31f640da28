package intake

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/docintake/internal/classify"
	"github.com/clinicore/docintake/internal/directory"
	"github.com/clinicore/docintake/internal/models"
	"github.com/clinicore/docintake/internal/records"
	"github.com/clinicore/docintake/pkg/logger"
	"github.com/clinicore/docintake/pkg/queue"
	"github.com/clinicore/docintake/pkg/storage"
	"github.com/clinicore/docintake/pkg/transport"
)

type Service struct {
	classifier   *classify.Classifier
	store        *records.Store
	orchestrator *records.Orchestrator
	provider     directory.Provider
	storage      storage.Storage
	logger       logger.Logger
	config       *ServiceConfig
}

type ServiceConfig struct {
	MaxFileSize int64
}

var _ IntakeService = (*Service)(nil)

func NewService(
	classifier *classify.Classifier,
	store *records.Store,
	orchestrator *records.Orchestrator,
	provider directory.Provider,
	objectStore storage.Storage,
	log logger.Logger,
	cfg *ServiceConfig,
) *Service {
	if cfg == nil {
		cfg = &ServiceConfig{
			MaxFileSize: 50 * 1024 * 1024, // 50MB
		}
	}

	return &Service{
		classifier:   classifier,
		store:        store,
		orchestrator: orchestrator,
		provider:     provider,
		storage:      objectStore,
		logger:       log,
		config:       cfg,
	}
}

// GetService wires the default stack: minio-backed object storage, an
// asynq post-commit queue, the archive transport and the built-in
// lexicon. The patient directory provider comes from the caller since
// it is owned by the surrounding application.
func GetService(log logger.Logger, provider directory.Provider, lexicon *classify.Lexicon) (*Service, error) {
	objectStore, err := storage.NewStorage(storage.StorageTypeMinio, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	q, err := queue.GetQueue()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	store := records.NewStore()
	uploader := transport.NewArchiveTransport(objectStore, q, log)
	orchestrator := records.NewOrchestrator(store, uploader, log)

	return NewService(classify.New(lexicon), store, orchestrator, provider, objectStore, log, nil), nil
}

// IntakeFile stages the payload, classifies the file against the
// current directory snapshot and appends the pending document.
func (s *Service) IntakeFile(ctx context.Context, in FileInput, effectivePatientID string) (*models.PendingDocument, error) {
	patients := s.patientSnapshot(ctx)
	return s.intakeOne(ctx, in, effectivePatientID, patients)
}

// IntakeBatch classifies a drop batch sequentially against one
// directory snapshot. Classification of each file is independent of the
// others, so the result per file does not depend on batch order.
func (s *Service) IntakeBatch(ctx context.Context, files []FileInput, effectivePatientID string) ([]*models.PendingDocument, error) {
	patients := s.patientSnapshot(ctx)

	docs := make([]*models.PendingDocument, 0, len(files))
	for _, in := range files {
		doc, err := s.intakeOne(ctx, in, effectivePatientID, patients)
		if err != nil {
			return docs, fmt.Errorf("failed to intake %s: %w", in.Name, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Service) intakeOne(ctx context.Context, in FileInput, effectivePatientID string, patients []models.PatientRecord) (*models.PendingDocument, error) {
	if s.config.MaxFileSize > 0 && in.SizeBytes > s.config.MaxFileSize {
		return nil, fmt.Errorf("file size exceeds maximum limit of %d bytes", s.config.MaxFileSize)
	}

	id := uuid.New().String()

	var fileKey string
	if in.Payload != nil {
		fileKey = storage.StagingPrefix + id + strings.ToLower(filepath.Ext(in.Name))
		if _, err := s.storage.Store(ctx, in.Payload, fileKey); err != nil {
			return nil, fmt.Errorf("failed to stage payload: %w", err)
		}
	}

	meta := models.FileMeta{
		Name:      in.Name,
		MimeType:  in.MimeType,
		SizeBytes: in.SizeBytes,
	}
	classification := s.classifier.Classify(meta, classify.Context{
		Patients:           patients,
		EffectivePatientID: effectivePatientID,
	})

	doc := &models.PendingDocument{
		ID:             id,
		File:           meta,
		FileKey:        fileKey,
		Classification: classification,
		Tags:           in.Tags,
		CreatedAt:      time.Now(),
	}
	if strings.HasPrefix(strings.ToLower(in.MimeType), "image/") {
		doc.PreviewRef = fmt.Sprintf("%s%s.jpg", storage.PreviewPrefix, id)
	}

	if err := s.store.Append(doc); err != nil {
		return nil, err
	}

	s.logger.Info("Document classified",
		logger.String("documentId", id),
		logger.String("filename", in.Name),
		logger.String("category", string(classification.Category)),
		logger.String("documentType", classification.DocumentType),
		logger.Float64("confidence", classification.Confidence),
	)

	return doc, nil
}

// patientSnapshot fetches the current directory snapshot. A failing or
// not-yet-loaded directory degrades to no patients, never to an error:
// matching then simply finds nothing.
func (s *Service) patientSnapshot(ctx context.Context) []models.PatientRecord {
	if s.provider == nil {
		return nil
	}
	patients, err := s.provider.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("Patient directory unavailable, classifying without name matching",
			logger.Error(err),
		)
		return nil
	}
	return patients
}

func (s *Service) Pending(ctx context.Context) []models.PendingDocument {
	return s.store.List()
}

func (s *Service) OverrideCategory(ctx context.Context, id string, category models.Category, editedBy string) (models.PendingDocument, error) {
	return s.store.UpdateCategory(id, category, editedBy)
}

func (s *Service) OverrideDocumentType(ctx context.Context, id, documentType, editedBy string) (models.PendingDocument, error) {
	return s.store.UpdateDocumentType(id, documentType, editedBy)
}

func (s *Service) OverrideOwner(ctx context.Context, id string, owner *models.OwnerRef, editedBy string) (models.PendingDocument, error) {
	return s.store.UpdateOwner(id, owner, editedBy)
}

// Discard drops a pending document and its staged payload. Discarding
// an unknown id is a no-op.
func (s *Service) Discard(ctx context.Context, id string) {
	doc, ok := s.store.Get(id)
	s.store.Remove(id)
	if !ok || doc.FileKey == "" {
		return
	}
	if err := s.storage.Delete(ctx, doc.FileKey); err != nil {
		s.logger.Warn("Failed to delete staged payload",
			logger.String("key", doc.FileKey),
			logger.Error(err),
		)
	}
}

func (s *Service) ConfirmAll(ctx context.Context) ([]models.PendingDocument, error) {
	return s.orchestrator.ConfirmAll(ctx)
}

func (s *Service) Patients(ctx context.Context) ([]models.PatientRecord, error) {
	if s.provider == nil {
		return nil, nil
	}
	return s.provider.Snapshot(ctx)
}
