package validator

import (
	"errors"
	"testing"

	"github.com/clinicore/docintake/internal/models"
)

func TestValidCategory(t *testing.T) {
	for _, c := range []string{"medical", "legal", "billing", "administrative"} {
		if !ValidCategory(c) {
			t.Errorf("%s should be valid", c)
		}
	}
	for _, c := range []string{"lab", "", "Medical", "finance"} {
		if ValidCategory(c) {
			t.Errorf("%s should be invalid", c)
		}
	}
}

func TestCheckSubtype(t *testing.T) {
	cases := []struct {
		category models.Category
		subtype  string
		ok       bool
	}{
		{models.CategoryMedical, models.SubtypeXRay, true},
		{models.CategoryMedical, models.SubtypeLabResults, true},
		{models.CategoryMedical, models.SubtypeInvoice, false},
		{models.CategoryBilling, models.SubtypeInvoice, true},
		{models.CategoryBilling, models.SubtypeConsentForm, false},
		{models.CategoryLegal, models.SubtypeContract, true},
		{models.CategoryAdministrative, models.SubtypeDocumentGeneral, true},
		{models.CategoryAdministrative, models.SubtypeXRay, false},
	}
	for _, tc := range cases {
		err := CheckSubtype(tc.category, tc.subtype)
		if tc.ok && err != nil {
			t.Errorf("%s/%s: unexpected error %v", tc.category, tc.subtype, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s/%s: expected error", tc.category, tc.subtype)
		}
	}
}

func TestCheckSubtype_ErrorDetails(t *testing.T) {
	err := CheckSubtype(models.CategoryBilling, models.SubtypeXRay)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Code != "INVALID_SUBTYPE" || verr.Field != "documentType" {
		t.Errorf("unexpected error details %+v", verr)
	}

	err = CheckSubtype(models.Category("finance"), models.SubtypeInvoice)
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Code != "INVALID_CATEGORY" {
		t.Errorf("unexpected code %s", verr.Code)
	}
}
