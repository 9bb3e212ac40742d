package types

// ContactHints holds contact details extracted from résumé text.
type ContactHints struct {
	Emails          []string `json:"emails"`
	Phones          []string `json:"phones"`
	LinkedInHandles []string `json:"linkedin_handles"`
}

// ResumeProfile is the structured extraction derived from raw résumé text.
// It is built once at session start and used as generation/evaluation
// context; it is never persisted.
type ResumeProfile struct {
	Skills             []string     `json:"skills"`
	ExperienceSnippets []string     `json:"experience_snippets"`
	EducationSnippets  []string     `json:"education_snippets"`
	ProjectSnippets    []string     `json:"project_snippets"`
	Contact            ContactHints `json:"contact"`
	Summary            string       `json:"summary"`
}

// HasSkill reports whether the profile detected the given skill
// (exact match against the extracted skill list).
func (p *ResumeProfile) HasSkill(skill string) bool {
	for _, s := range p.Skills {
		if s == skill {
			return true
		}
	}
	return false
}
