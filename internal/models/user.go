package models

// Identity is the verified subject attached to a request by the auth
// middleware. The application only relies on a stable subject id to
// attribute authorship; everything else is informational.
type Identity struct {
	SubjectID string `json:"subject_id"`
	Email     string `json:"email,omitempty"`
}
