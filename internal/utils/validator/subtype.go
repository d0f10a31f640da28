package validator

import (
	"fmt"

	"github.com/clinicore/docintake/internal/models"
)

// Per-category subtype allow-lists. These are enforced at the API
// boundary only; the classification engine treats subtypes as free
// text.
var subtypesByCategory = map[models.Category][]string{
	models.CategoryMedical: {
		models.SubtypeXRay,
		models.SubtypeVoiceNote,
		models.SubtypeTreatmentPlan,
		models.SubtypeScan3D,
		models.SubtypePrescription,
		models.SubtypePhotoClinical,
		models.SubtypeLabResults,
		models.SubtypeDocumentGeneral,
	},
	models.CategoryBilling: {
		models.SubtypeInvoice,
		models.SubtypeReceipt,
		models.SubtypeQuote,
		models.SubtypeDocumentGeneral,
	},
	models.CategoryLegal: {
		models.SubtypeConsentForm,
		models.SubtypeContract,
		models.SubtypeDocumentGeneral,
	},
	models.CategoryAdministrative: {
		models.SubtypeDocumentGeneral,
	},
}

// ValidationError is a typed, field-scoped validation failure.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	_, ok := subtypesByCategory[models.Category(s)]
	return ok
}

// Subtypes returns the allowed subtypes of a category.
func Subtypes(category models.Category) []string {
	return subtypesByCategory[category]
}

// CheckSubtype validates a subtype against its category's allow-list.
func CheckSubtype(category models.Category, subtype string) error {
	allowed, ok := subtypesByCategory[category]
	if !ok {
		return ValidationError{
			Code:    "INVALID_CATEGORY",
			Message: fmt.Sprintf("unknown category: %s", category),
			Field:   "category",
		}
	}
	for _, s := range allowed {
		if s == subtype {
			return nil
		}
	}
	return ValidationError{
		Code:    "INVALID_SUBTYPE",
		Message: fmt.Sprintf("subtype %s is not allowed for category %s", subtype, category),
		Field:   "documentType",
	}
}
