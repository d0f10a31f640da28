package records

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/docintake/internal/models"
	"github.com/clinicore/docintake/pkg/logger"
)

type mockUploader struct {
	mu       sync.Mutex
	requests []UploadRequest
	failFor  map[string]error
}

func (m *mockUploader) Upload(_ context.Context, req UploadRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[req.DocumentID]; ok {
		return "", err
	}
	m.requests = append(m.requests, req)
	return "persisted-" + req.DocumentID, nil
}

func (m *mockUploader) uploaded() []UploadRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]UploadRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func ownedPending(id, name string, category models.Category, owner *models.OwnerRef) *models.PendingDocument {
	doc := pending(id, name, category)
	doc.Classification.SuggestedOwner = owner
	return doc
}

func TestOrchestrator_ConfirmEmptyStore(t *testing.T) {
	up := &mockUploader{}
	o := NewOrchestrator(NewStore(), up, logger.NewTestLogger())

	docs, err := o.ConfirmAll(context.Background())
	require.NoError(t, err)
	assert.Nil(t, docs)
	assert.Empty(t, up.uploaded())
}

func TestOrchestrator_ConfirmSuccessClearsStore(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Append(ownedPending("d1", "factura.pdf", models.CategoryBilling, models.ClinicOwner())))
	require.NoError(t, s.Append(ownedPending("d2", "rx.jpg", models.CategoryMedical, models.PatientOwner("p1"))))

	up := &mockUploader{}
	o := NewOrchestrator(s, up, logger.NewTestLogger())

	docs, err := o.ConfirmAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, 0, s.Len())
	assert.Len(t, up.uploaded(), 2)
}

func TestOrchestrator_MedicalWithoutOwnerRejected(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Append(ownedPending("d1", "factura.pdf", models.CategoryBilling, models.ClinicOwner())))
	require.NoError(t, s.Append(ownedPending("d2", "radiografia.jpg", models.CategoryMedical, nil)))

	up := &mockUploader{}
	o := NewOrchestrator(s, up, logger.NewTestLogger())

	_, err := o.ConfirmAll(context.Background())
	assert.True(t, errors.Is(err, ErrUnresolvedOwner))
	// precondition failure means nothing was sent at all
	assert.Empty(t, up.uploaded())
	assert.Equal(t, 2, s.Len())
}

func TestOrchestrator_PartialFailureKeepsStore(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Append(ownedPending("d1", "a.pdf", models.CategoryBilling, models.ClinicOwner())))
	require.NoError(t, s.Append(ownedPending("d2", "b.pdf", models.CategoryBilling, models.ClinicOwner())))
	require.NoError(t, s.Append(ownedPending("d3", "c.pdf", models.CategoryBilling, models.ClinicOwner())))

	up := &mockUploader{failFor: map[string]error{"d2": errors.New("transport down")}}
	o := NewOrchestrator(s, up, logger.NewTestLogger())

	docs, err := o.ConfirmAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, docs)
	// all three stay pending so the user can retry without re-classifying
	assert.Equal(t, 3, s.Len())
}

func TestOrchestrator_OwnerIDMapping(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Append(ownedPending("med", "rx.jpg", models.CategoryMedical, models.PatientOwner("p42"))))
	require.NoError(t, s.Append(ownedPending("bill", "factura.pdf", models.CategoryBilling, models.PatientOwner("p42"))))
	require.NoError(t, s.Append(ownedPending("adm", "notas.txt", models.CategoryAdministrative, models.ClinicOwner())))

	up := &mockUploader{}
	o := NewOrchestrator(s, up, logger.NewTestLogger())

	_, err := o.ConfirmAll(context.Background())
	require.NoError(t, err)

	byID := map[string]UploadRequest{}
	for _, req := range up.uploaded() {
		byID[req.DocumentID] = req
	}
	// only medical records carry the patient id; everything else is
	// filed under the clinic sentinel even when a patient was matched
	assert.Equal(t, "p42", byID["med"].OwnerID)
	assert.Equal(t, VirtualClinicID, byID["bill"].OwnerID)
	assert.Equal(t, VirtualClinicID, byID["adm"].OwnerID)
}

func TestOrchestrator_TagsPassThrough(t *testing.T) {
	s := NewStore()
	doc := ownedPending("d1", "factura.pdf", models.CategoryBilling, models.ClinicOwner())
	doc.Tags = []string{"2026", "seguro"}
	require.NoError(t, s.Append(doc))

	up := &mockUploader{}
	o := NewOrchestrator(s, up, logger.NewTestLogger())

	_, err := o.ConfirmAll(context.Background())
	require.NoError(t, err)
	require.Len(t, up.uploaded(), 1)
	assert.Equal(t, []string{"2026", "seguro"}, up.uploaded()[0].Tags)
}
