package models

// PatientRecord is the read-only view of a patient used for filename
// matching. The directory it comes from is owned by an external
// collaborator; the engine never mutates it.
type PatientRecord struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
