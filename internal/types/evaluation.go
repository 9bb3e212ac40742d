package types

// Evaluation is the structured result of scoring one answer. Score is
// always within [0, 10]; Strengths and Improvements are never nil,
// empty when nothing is available.
type Evaluation struct {
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// QuestionDraft is a generated question before it is appended to a
// session: text plus type/difficulty tags, no identity or answer state.
type QuestionDraft struct {
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	Difficulty Difficulty   `json:"difficulty"`
}
