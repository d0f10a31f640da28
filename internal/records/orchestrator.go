package records

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/clinicore/docintake/internal/models"
	"github.com/clinicore/docintake/pkg/logger"
)

// VirtualClinicID is the fixed owner id the upload transport expects
// for clinic-level documents.
const VirtualClinicID = "clinic"

// ErrUnresolvedOwner rejects a confirm while a medical document still
// has no patient owner. The UI must resolve ownership first; the engine
// never forces a medical document into clinic ownership.
var ErrUnresolvedOwner = errors.New("medical document has no resolved patient owner")

// UploadRequest is the per-document payload handed to the external
// upload transport. Tags are passed through untouched.
type UploadRequest struct {
	DocumentID   string          `json:"documentId"`
	FileName     string          `json:"fileName"`
	MimeType     string          `json:"mimeType"`
	SizeBytes    int64           `json:"sizeBytes"`
	FileKey      string          `json:"fileKey"`
	Category     models.Category `json:"category"`
	DocumentType string          `json:"documentType"`
	OwnerID      string          `json:"ownerId"`
	Tags         []string        `json:"tags,omitempty"`
}

// Uploader is the external transport accepting one prepared record plus
// its staged binary payload and returning a persisted identifier. Its
// timeout and retry policy are its own; failures surface as opaque
// errors.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (string, error)
}

// Orchestrator drains the store into the upload transport.
type Orchestrator struct {
	store    *Store
	uploader Uploader
	logger   logger.Logger
}

func NewOrchestrator(store *Store, uploader Uploader, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		uploader: uploader,
		logger:   log,
	}
}

// ConfirmAll uploads every pending document concurrently and waits for
// the whole batch. On joint success the store is cleared and the
// submitted records returned. On any failure the store is left
// untouched so the user can retry without re-classifying; documents
// already persisted by the transport are not rolled back. An empty
// store confirms trivially with zero submissions.
func (o *Orchestrator) ConfirmAll(ctx context.Context) ([]models.PendingDocument, error) {
	docs := o.store.List()
	if len(docs) == 0 {
		return nil, nil
	}

	for _, doc := range docs {
		if doc.Classification.Category == models.CategoryMedical && patientID(doc) == "" {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedOwner, doc.File.Name)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			persistedID, err := o.uploader.Upload(ctx, buildUploadRequest(doc))
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", doc.File.Name, err)
			}
			o.logger.Info("Document uploaded",
				logger.String("documentId", doc.ID),
				logger.String("persistedId", persistedID),
				logger.String("filename", doc.File.Name),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Error("Batch confirm failed, store left intact",
			logger.Int("pending", len(docs)),
			logger.Error(err),
		)
		return nil, err
	}

	o.store.Clear()
	return docs, nil
}

// buildUploadRequest maps a classification into the transport's fields.
// Medical records carry their resolved patient id; everything else is
// filed under the virtual clinic sentinel.
func buildUploadRequest(doc models.PendingDocument) UploadRequest {
	ownerID := VirtualClinicID
	if doc.Classification.Category == models.CategoryMedical {
		ownerID = patientID(doc)
	}
	return UploadRequest{
		DocumentID:   doc.ID,
		FileName:     doc.File.Name,
		MimeType:     doc.File.MimeType,
		SizeBytes:    doc.File.SizeBytes,
		FileKey:      doc.FileKey,
		Category:     doc.Classification.Category,
		DocumentType: doc.Classification.DocumentType,
		OwnerID:      ownerID,
		Tags:         doc.Tags,
	}
}

func patientID(doc models.PendingDocument) string {
	if doc.Classification.SuggestedOwner == nil {
		return ""
	}
	return doc.Classification.SuggestedOwner.PatientID
}
