package models

import (
	"time"
)

// Category is the administrative category a document is filed under.
type Category string

const (
	CategoryMedical        Category = "medical"
	CategoryLegal          Category = "legal"
	CategoryBilling        Category = "billing"
	CategoryAdministrative Category = "administrative"
)

// Document subtypes. Subtypes are open string tags scoped to a category;
// the engine treats them as free text and the API boundary validates them
// against a per-category allow-list.
const (
	SubtypeXRay            = "xray"
	SubtypeVoiceNote       = "voice_note"
	SubtypeTreatmentPlan   = "treatment_plan"
	SubtypeScan3D          = "scan_3d"
	SubtypePrescription    = "prescription"
	SubtypePhotoClinical   = "photo_clinical"
	SubtypeLabResults      = "lab_results"
	SubtypeInvoice         = "invoice"
	SubtypeReceipt         = "receipt"
	SubtypeQuote           = "quote"
	SubtypeConsentForm     = "consent_form"
	SubtypeContract        = "contract"
	SubtypeDocumentGeneral = "document_general"
)

// OwnerRef points a document at exactly one owner: a patient record or
// the clinic's own virtual record. A nil *OwnerRef means "no owner yet".
type OwnerRef struct {
	PatientID     string `json:"patientId,omitempty"`
	VirtualClinic bool   `json:"virtualClinic,omitempty"`
}

// PatientOwner builds an OwnerRef for a specific patient.
func PatientOwner(patientID string) *OwnerRef {
	return &OwnerRef{PatientID: patientID}
}

// ClinicOwner builds the virtual-clinic owner.
func ClinicOwner() *OwnerRef {
	return &OwnerRef{VirtualClinic: true}
}

// Classification is the engine's verdict for one file: category, subtype,
// suggested owner, a confidence in [0,1] and a human-readable rationale.
// It is replaced wholesale by automatic classification and field-mutated
// by manual edits.
type Classification struct {
	Category       Category  `json:"category"`
	Confidence     float64   `json:"confidence"`
	DocumentType   string    `json:"documentType"`
	SuggestedOwner *OwnerRef `json:"suggestedOwner,omitempty"`
	Reasoning      string    `json:"reasoning"`
}

// FileMeta carries the immutable file facts a classification is derived
// from. Missing name or MIME type are tolerated as empty strings and a
// missing size as zero; the engine never rejects malformed metadata.
type FileMeta struct {
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

// PendingDocument is one dropped file awaiting human review and confirm.
// FileKey references the staged binary payload in object storage.
// PreviewRef is set for image files only.
type PendingDocument struct {
	ID             string         `json:"id"`
	File           FileMeta       `json:"file"`
	FileKey        string         `json:"fileKey"`
	Classification Classification `json:"classification"`
	UserOverride   bool           `json:"userOverride"`
	PreviewRef     string         `json:"previewRef,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}
