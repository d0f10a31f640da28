package classify

import (
	"strings"

	"github.com/clinicore/docintake/internal/models"
)

// Context carries the external inputs a classification depends on: the
// current patient directory snapshot and the patient selected in the
// surrounding upload screen, if any. Both are passed in explicitly so
// Classify stays a pure function of its arguments.
type Context struct {
	Patients           []models.PatientRecord
	EffectivePatientID string
}

// Classifier resolves a file into a category, subtype and owner.
type Classifier struct {
	scorer *Scorer
}

// New builds a Classifier. A nil lexicon selects the built-in term lists.
func New(lexicon *Lexicon) *Classifier {
	return &Classifier{scorer: NewScorer(lexicon)}
}

// Classify scores the file, picks a subtype from finer filename cues and
// assigns an owner. Lab documents fold into the medical category with
// the lab_results subtype and follow medical ownership.
//
// Ownership is a strict priority order: a patient name detected in the
// filename always outranks the effective patient from the upload
// context. Medical documents without either stay unowned; billing,
// legal and administrative documents fall back to the virtual clinic.
func (c *Classifier) Classify(file models.FileMeta, ctx Context) models.Classification {
	result := c.scorer.Score(file.Name, file.MimeType, file.SizeBytes)
	lowerName := fold(file.Name)
	lowerMime := strings.ToLower(file.MimeType)
	isImage := strings.HasPrefix(lowerMime, "image/")

	matchedID := MatchPatient(file.Name, ctx.Patients)

	var category models.Category
	var subtype string

	switch result.Winner {
	case ScoreMedical:
		category = models.CategoryMedical
		subtype = medicalSubtype(lowerName, lowerMime, isImage)
	case ScoreLab:
		category = models.CategoryMedical
		subtype = models.SubtypeLabResults
	case ScoreBilling:
		category = models.CategoryBilling
		subtype = billingSubtype(lowerName)
	case ScoreLegal:
		category = models.CategoryLegal
		subtype = legalSubtype(lowerName)
	default:
		category = models.CategoryAdministrative
		subtype = models.SubtypeDocumentGeneral
	}

	var owner *models.OwnerRef
	reasons := result.Reasons
	medicalPath := result.Winner == ScoreMedical || result.Winner == ScoreLab

	switch {
	case matchedID != "":
		owner = models.PatientOwner(matchedID)
		reasons = append(reasons, "patient name detected in filename")
	case medicalPath && ctx.EffectivePatientID != "":
		owner = models.PatientOwner(ctx.EffectivePatientID)
		reasons = append(reasons, "assigned to the currently selected patient")
	case medicalPath:
		// no owner yet: the UI must resolve it before confirm
	default:
		owner = models.ClinicOwner()
		reasons = append(reasons, "filed under the clinic record")
	}

	return models.Classification{
		Category:       category,
		Confidence:     result.Confidence,
		DocumentType:   subtype,
		SuggestedOwner: owner,
		Reasoning:      strings.Join(reasons, "; "),
	}
}

func medicalSubtype(lowerName, lowerMime string, isImage bool) string {
	switch {
	case containsAny(lowerName, "rx", "radiografia", "xray"):
		return models.SubtypeXRay
	case strings.HasPrefix(lowerMime, "audio/") ||
		hasAnySuffix(lowerName, ".mp3", ".wav", ".m4a", ".ogg"):
		return models.SubtypeVoiceNote
	case containsAny(lowerName, "plan", "tratamiento"):
		return models.SubtypeTreatmentPlan
	case containsAny(lowerName, "3d") || hasAnySuffix(lowerName, ".stl", ".ply", ".obj"):
		return models.SubtypeScan3D
	case containsAny(lowerName, "receta", "prescri"):
		return models.SubtypePrescription
	case isImage:
		return models.SubtypePhotoClinical
	default:
		return models.SubtypeDocumentGeneral
	}
}

func billingSubtype(lowerName string) string {
	switch {
	case containsAny(lowerName, "recibo", "receipt", "ticket"):
		return models.SubtypeReceipt
	case containsAny(lowerName, "presupuesto", "quote"):
		return models.SubtypeQuote
	default:
		return models.SubtypeInvoice
	}
}

func legalSubtype(lowerName string) string {
	switch {
	case containsAny(lowerName, "consentimiento", "consent"):
		return models.SubtypeConsentForm
	case containsAny(lowerName, "contrato", "contract"):
		return models.SubtypeContract
	default:
		return models.SubtypeDocumentGeneral
	}
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
