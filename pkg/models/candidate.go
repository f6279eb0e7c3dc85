package models

// CandidateProfile holds the candidate-editable profile fields. The
// résumé flag drives the "apply with profile résumé" shortcut: the
// apply endpoint accepts use_profile_resume only when HasResume is set.
type CandidateProfile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	HasResume      bool   `json:"has_resume"`
	ResumeFilename string `json:"resume_filename,omitempty"`
	PhotoURL       string `json:"photo_url,omitempty"`
}
