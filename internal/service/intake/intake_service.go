package intake

import (
	"context"
	"io"

	"github.com/clinicore/docintake/internal/models"
)

// FileInput is one dropped file: its metadata plus the binary payload
// to stage. Tags are passed through to the upload transport untouched.
type FileInput struct {
	Name      string
	MimeType  string
	SizeBytes int64
	Payload   io.Reader
	Tags      []string
}

type IntakeService interface {
	IntakeFile(ctx context.Context, in FileInput, effectivePatientID string) (*models.PendingDocument, error)
	IntakeBatch(ctx context.Context, files []FileInput, effectivePatientID string) ([]*models.PendingDocument, error)
	Pending(ctx context.Context) []models.PendingDocument
	OverrideCategory(ctx context.Context, id string, category models.Category, editedBy string) (models.PendingDocument, error)
	OverrideDocumentType(ctx context.Context, id, documentType, editedBy string) (models.PendingDocument, error)
	OverrideOwner(ctx context.Context, id string, owner *models.OwnerRef, editedBy string) (models.PendingDocument, error)
	Discard(ctx context.Context, id string)
	ConfirmAll(ctx context.Context) ([]models.PendingDocument, error)
	Patients(ctx context.Context) ([]models.PatientRecord, error)
}
