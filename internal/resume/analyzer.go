// Package resume extracts a structured profile from raw résumé text using
// keyword and regex heuristics. Extraction never fails: empty or
// unrecognizable input yields an empty profile.
package resume

import (
	"regexp"
	"strings"

	"github.com/jonathan/interview-coach/internal/types"
)

// Caps on extracted snippet lists. These keep the profile (and the
// prompts built from it) bounded regardless of résumé length.
const (
	maxEducationSnippets  = 5
	maxExperienceSnippets = 10
	maxProjectSnippets    = 5

	// maxSummaryChars bounds the summary used as AI prompt context.
	maxSummaryChars = 1000
)

var (
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern    = regexp.MustCompile(`[+]?[(]?[0-9]{1,4}[)]?[-\s.]?[0-9]{3}[-\s.]?[0-9]{3,6}`)
	linkedinPattern = regexp.MustCompile(`(?i)linkedin\.com/in/[a-zA-Z0-9-]+`)
)

// techSkills is the fixed allow-list of technology names tested against
// the whole text.
var techSkills = []string{
	"JavaScript", "React", "Node.js", "Python", "Java", "HTML", "CSS",
	"MongoDB", "SQL", "Express", "TypeScript", "Redux", "AWS", "Docker",
	"Git", "REST API", "GraphQL", "Firebase", "Next.js", "Vue.js",
}

var educationKeywords = []string{
	"B.Tech", "BTech", "B.E", "B.Sc", "BSc", "M.Tech", "MTech", "M.Sc", "MSc",
	"Bachelor", "Master", "PhD", "University", "College", "Institute",
}

var experienceKeywords = []string{
	"Experience", "Work History", "Employment", "Internship",
	"Software Engineer", "Developer", "Frontend", "Backend",
}

var projectKeywords = []string{
	"Project", "Developed", "Built", "Created", "Implemented",
}

// Analyze runs the heuristic extractions against rawText and assembles a
// profile. The five extractions are independent; a miss in one does not
// affect the others.
func Analyze(rawText string) *types.ResumeProfile {
	profile := &types.ResumeProfile{
		Skills:             SkillsIn(rawText),
		ExperienceSnippets: matchingLines(rawText, experienceKeywords, maxExperienceSnippets),
		EducationSnippets:  matchingLines(rawText, educationKeywords, maxEducationSnippets),
		ProjectSnippets:    matchingLines(rawText, projectKeywords, maxProjectSnippets),
		Contact:            extractContact(rawText),
	}
	profile.Summary = buildSummary(profile)
	return profile
}

// extractContact pulls emails, phone numbers and LinkedIn handles.
// Emails and handles are deduplicated; phone matches keep their order.
func extractContact(text string) types.ContactHints {
	return types.ContactHints{
		Emails:          dedupe(emailPattern.FindAllString(text, -1)),
		Phones:          nonNil(phonePattern.FindAllString(text, -1)),
		LinkedInHandles: dedupe(linkedinPattern.FindAllString(text, -1)),
	}
}

// SkillsIn returns the subset of the allow-list present in the text,
// matched case-insensitively, in allow-list order. It also serves to
// re-detect skills from a stored résumé summary, which embeds the
// comma-joined skill names verbatim.
func SkillsIn(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, skill := range techSkills {
		if strings.Contains(lower, strings.ToLower(skill)) {
			found = append(found, skill)
		}
	}
	return found
}

// matchingLines splits the text into lines and keeps lines containing any
// keyword (case-insensitive), preserving original order, capped to limit.
func matchingLines(text string, keywords []string, limit int) []string {
	matched := []string{}
	for _, line := range strings.Split(text, "\n") {
		if len(matched) >= limit {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, keyword := range keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				matched = append(matched, trimmed)
				break
			}
		}
	}
	return matched
}

// buildSummary joins skills and experience into the compact string used as
// downstream prompt context, truncated to maxSummaryChars. A profile with
// neither skills nor experience yields "".
func buildSummary(p *types.ResumeProfile) string {
	var parts []string
	if len(p.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(p.Skills, ", "))
	}
	if len(p.ExperienceSnippets) > 0 {
		parts = append(parts, "Experience: "+strings.Join(p.ExperienceSnippets, " | "))
	}
	summary := strings.Join(parts, ". ")
	if len(summary) > maxSummaryChars {
		summary = summary[:maxSummaryChars]
	}
	return summary
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := []string{}
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
