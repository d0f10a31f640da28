package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/docintake/internal/models"
	"github.com/clinicore/docintake/internal/records"
	intakesvc "github.com/clinicore/docintake/internal/service/intake"
	"github.com/clinicore/docintake/pkg/logger"
)

// mockService records calls and serves canned responses.
type mockService struct {
	pending    []models.PendingDocument
	patients   []models.PatientRecord
	confirmErr error
	overridden models.PendingDocument
	discarded  []string
}

func (m *mockService) IntakeFile(_ context.Context, in intakesvc.FileInput, effectivePatientID string) (*models.PendingDocument, error) {
	docs, err := m.IntakeBatch(context.Background(), []intakesvc.FileInput{in}, effectivePatientID)
	if err != nil {
		return nil, err
	}
	return docs[0], nil
}

func (m *mockService) IntakeBatch(_ context.Context, files []intakesvc.FileInput, _ string) ([]*models.PendingDocument, error) {
	out := make([]*models.PendingDocument, 0, len(files))
	for _, f := range files {
		out = append(out, &models.PendingDocument{
			ID:   "doc-" + f.Name,
			File: models.FileMeta{Name: f.Name, MimeType: f.MimeType, SizeBytes: f.SizeBytes},
			Tags: f.Tags,
		})
	}
	return out, nil
}

func (m *mockService) Pending(_ context.Context) []models.PendingDocument { return m.pending }

func (m *mockService) OverrideCategory(_ context.Context, id string, category models.Category, editedBy string) (models.PendingDocument, error) {
	return m.override(id)
}

func (m *mockService) OverrideDocumentType(_ context.Context, id, documentType, editedBy string) (models.PendingDocument, error) {
	return m.override(id)
}

func (m *mockService) OverrideOwner(_ context.Context, id string, owner *models.OwnerRef, editedBy string) (models.PendingDocument, error) {
	return m.override(id)
}

func (m *mockService) override(id string) (models.PendingDocument, error) {
	for _, doc := range m.pending {
		if doc.ID == id {
			return m.overridden, nil
		}
	}
	return models.PendingDocument{}, records.ErrNotFound
}

func (m *mockService) Discard(_ context.Context, id string) {
	m.discarded = append(m.discarded, id)
}

func (m *mockService) ConfirmAll(_ context.Context) ([]models.PendingDocument, error) {
	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	out := m.pending
	m.pending = nil
	return out, nil
}

func (m *mockService) Patients(_ context.Context) ([]models.PatientRecord, error) {
	return m.patients, nil
}

func setupRouter(svc intakesvc.IntakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewIntakeHandler(svc, logger.NewTestLogger())
	r := gin.New()
	r.POST("/files", h.IntakeFiles)
	r.GET("/pending", h.ListPending)
	r.PATCH("/pending/:id", h.Override)
	r.DELETE("/pending/:id", h.Discard)
	r.POST("/confirm", h.ConfirmAll)
	r.GET("/patients", h.ListPatients)
	return r
}

func multipartBody(t *testing.T, filenames []string, patientID string, tags []string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range filenames {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("payload"))
		require.NoError(t, err)
	}
	if patientID != "" {
		require.NoError(t, w.WriteField("patientId", patientID))
	}
	for _, tag := range tags {
		require.NoError(t, w.WriteField("tags", tag))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestIntakeFiles(t *testing.T) {
	r := setupRouter(&mockService{})

	body, contentType := multipartBody(t, []string{"factura.pdf", "rx.jpg"}, "p1", []string{"2026"})
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Documents []models.PendingDocument `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Documents, 2)
}

func TestIntakeFiles_NoFiles(t *testing.T) {
	r := setupRouter(&mockService{})

	body, contentType := multipartBody(t, nil, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPending(t *testing.T) {
	svc := &mockService{pending: []models.PendingDocument{{ID: "d1"}, {ID: "d2"}}}
	r := setupRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/pending", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Documents []models.PendingDocument `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Documents, 2)
}

func TestOverride_Category(t *testing.T) {
	svc := &mockService{
		pending:    []models.PendingDocument{{ID: "d1"}},
		overridden: models.PendingDocument{ID: "d1", UserOverride: true},
	}
	r := setupRouter(svc)

	payload := `{"field":"category","value":"legal","editedBy":"dr.ramos"}`
	req := httptest.NewRequest(http.MethodPatch, "/pending/d1", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOverride_UnknownCategory(t *testing.T) {
	r := setupRouter(&mockService{pending: []models.PendingDocument{{ID: "d1"}}})

	payload := `{"field":"category","value":"finance"}`
	req := httptest.NewRequest(http.MethodPatch, "/pending/d1", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOverride_SubtypeMustMatchCategory(t *testing.T) {
	svc := &mockService{
		pending: []models.PendingDocument{{
			ID: "d1",
			Classification: models.Classification{
				Category: models.CategoryBilling,
			},
		}},
	}
	r := setupRouter(svc)

	// xray is a medical subtype; the document is billing
	payload := `{"field":"documentType","value":"xray"}`
	req := httptest.NewRequest(http.MethodPatch, "/pending/d1", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	payload = `{"field":"documentType","value":"invoice"}`
	req = httptest.NewRequest(http.MethodPatch, "/pending/d1", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOverride_UnknownDocument(t *testing.T) {
	r := setupRouter(&mockService{})

	payload := `{"field":"category","value":"legal"}`
	req := httptest.NewRequest(http.MethodPatch, "/pending/missing", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDiscard(t *testing.T) {
	svc := &mockService{}
	r := setupRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/pending/d1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"d1"}, svc.discarded)
}

func TestConfirmAll(t *testing.T) {
	svc := &mockService{pending: []models.PendingDocument{{ID: "d1"}}}
	r := setupRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/confirm", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Submitted int `json:"submitted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Submitted)
}

func TestConfirmAll_UnresolvedOwner(t *testing.T) {
	svc := &mockService{confirmErr: records.ErrUnresolvedOwner}
	r := setupRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/confirm", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestConfirmAll_TransportFailure(t *testing.T) {
	svc := &mockService{confirmErr: errors.New("archive unavailable")}
	r := setupRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/confirm", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestListPatients(t *testing.T) {
	svc := &mockService{patients: []models.PatientRecord{{ID: "p1"}}}
	r := setupRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Patients []models.PatientRecord `json:"patients"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Patients, 1)
}
