package records

import (
	"errors"
	"fmt"
	"sync"

	"github.com/clinicore/docintake/internal/models"
)

// ManualConfidence is the fixed confidence a record is clamped to after
// any manual edit. Once a human touches a record it is considered
// verified and its automatic provenance is gone for good.
const ManualConfidence = 0.95

var (
	ErrNotFound    = errors.New("pending document not found")
	ErrDuplicateID = errors.New("pending document id already present")
)

// Store is the in-memory ordered collection of pending documents. All
// operations are synchronous and safe to call from request handlers.
type Store struct {
	mu    sync.Mutex
	order []*models.PendingDocument
	byID  map[string]*models.PendingDocument
}

func NewStore() *Store {
	return &Store{
		byID: make(map[string]*models.PendingDocument),
	}
}

// Append adds a freshly classified document. Ids must be unique.
func (s *Store) Append(doc *models.PendingDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[doc.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, doc.ID)
	}
	s.order = append(s.order, doc)
	s.byID[doc.ID] = doc
	return nil
}

// Get returns a copy of the document with the given id.
func (s *Store) Get(id string) (models.PendingDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byID[id]
	if !ok {
		return models.PendingDocument{}, false
	}
	return *doc, true
}

// List returns copies of all pending documents in insertion order.
func (s *Store) List() []models.PendingDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.PendingDocument, 0, len(s.order))
	for _, doc := range s.order {
		out = append(out, *doc)
	}
	return out
}

// Len returns the number of pending documents.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Remove drops the document with the given id. Removing an unknown id
// is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, doc := range s.order {
		if doc.ID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Clear drops every pending document. Called once a batch confirm
// succeeds.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.byID = make(map[string]*models.PendingDocument)
}

// UpdateCategory overrides the category of a pending document.
func (s *Store) UpdateCategory(id string, category models.Category, editedBy string) (models.PendingDocument, error) {
	return s.update(id, editedBy, func(doc *models.PendingDocument) {
		doc.Classification.Category = category
	})
}

// UpdateDocumentType overrides the subtype of a pending document.
func (s *Store) UpdateDocumentType(id, documentType, editedBy string) (models.PendingDocument, error) {
	return s.update(id, editedBy, func(doc *models.PendingDocument) {
		doc.Classification.DocumentType = documentType
	})
}

// UpdateOwner overrides the owner of a pending document.
func (s *Store) UpdateOwner(id string, owner *models.OwnerRef, editedBy string) (models.PendingDocument, error) {
	return s.update(id, editedBy, func(doc *models.PendingDocument) {
		doc.Classification.SuggestedOwner = owner
	})
}

// update applies a field mutation plus the manual-edit side effects:
// confidence clamped to ManualConfidence, reasoning replaced with an
// editor-attributed string and userOverride set. The flag is never
// reset. Re-applying an identical edit changes nothing else, so the
// operation is idempotent.
func (s *Store) update(id, editedBy string, mutate func(*models.PendingDocument)) (models.PendingDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byID[id]
	if !ok {
		return models.PendingDocument{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	mutate(doc)
	doc.Classification.Confidence = ManualConfidence
	if editedBy == "" {
		doc.Classification.Reasoning = "Manually verified"
	} else {
		doc.Classification.Reasoning = fmt.Sprintf("Manually verified by %s", editedBy)
	}
	doc.UserOverride = true

	return *doc, nil
}
