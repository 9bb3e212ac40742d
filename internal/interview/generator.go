package interview

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/logger"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/types"
)

// Generation bounds for question prompts.
const (
	questionMaxTokens   = 150
	questionTemperature = 0.7

	// aiCallTimeout bounds every backend call; a timeout is treated the
	// same as any other backend failure.
	aiCallTimeout = 20 * time.Second
)

// fallbackSkills is the vocabulary intersected with the profile's detected
// skills when the backend is unavailable.
var fallbackSkills = []string{"JavaScript", "React", "Node.js", "Python", "Database"}

// fallbackTemplates are the deterministic question templates, parameterized
// by the chosen skill.
var fallbackTemplates = []string{
	"Explain your experience with %s and a project where you used it.",
	"What are the key concepts of %s that you find most important?",
	"How would you debug a performance issue in a %s application?",
	"Describe a challenging problem you solved using %s.",
	"What are the best practices for %s development?",
}

// Generator produces interview questions. It is safe for concurrent use.
type Generator struct {
	client  llm.Client
	log     *zap.Logger
	timeout time.Duration

	// rng picks the fallback template. Injected so tests can pin the draw.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGenerator creates a Generator backed by the given client. rng must be
// non-nil; pass a seeded source in production and a pinned one in tests.
func NewGenerator(client llm.Client, rng *rand.Rand, log *zap.Logger) *Generator {
	return &Generator{
		client:  client,
		rng:     rng,
		log:     log,
		timeout: aiCallTimeout,
	}
}

// Next returns one new question for the session. It never fails: when the
// backend errors out or returns unusable text, a deterministic templated
// question is produced instead. All questions are tagged technical/medium;
// the tagging is a fixed default, not derived from content.
func (g *Generator) Next(ctx context.Context, profile *types.ResumeProfile, jobRole string, priorQuestions []string) types.QuestionDraft {
	prompt := g.buildPrompt(profile, jobRole, priorQuestions)

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.client.Generate(callCtx, prompt, llm.GenerateOptions{
		MaxTokens:   questionMaxTokens,
		Temperature: questionTemperature,
	})
	if err != nil {
		g.log.Warn("question generation fell back to template",
			zap.Error(err),
			zap.String("job_role", jobRole))
		return g.fallback(profile)
	}

	text := llm.TrimQuotes(llm.FirstLine(strings.TrimSpace(raw)))
	if text == "" {
		g.log.Warn("question generation returned empty text, using template",
			zap.String("job_role", jobRole),
			zap.String("raw", logger.Truncate(raw, 120)))
		return g.fallback(profile)
	}

	return types.QuestionDraft{
		Text:       text,
		Type:       types.QuestionTechnical,
		Difficulty: types.DifficultyMedium,
	}
}

func (g *Generator) buildPrompt(profile *types.ResumeProfile, jobRole string, priorQuestions []string) string {
	if len(priorQuestions) == 0 {
		template := prompts.MustGet("interview.json", "generate-question")
		return prompts.Format(template, map[string]string{
			"ResumeSummary": profile.Summary,
			"JobRole":       jobRole,
		})
	}

	template := prompts.MustGet("interview.json", "generate-question-followup")
	return prompts.Format(template, map[string]string{
		"ResumeSummary":  profile.Summary,
		"JobRole":        jobRole,
		"PriorQuestions": "- " + strings.Join(priorQuestions, "\n- "),
	})
}

// fallback builds a templated question from the profile's skills. Fully
// local, never fails.
func (g *Generator) fallback(profile *types.ResumeProfile) types.QuestionDraft {
	skill := "programming"
	for _, candidate := range fallbackSkills {
		if profile.HasSkill(candidate) {
			skill = candidate
			break
		}
	}

	g.rngMu.Lock()
	template := fallbackTemplates[g.rng.Intn(len(fallbackTemplates))]
	g.rngMu.Unlock()

	return types.QuestionDraft{
		Text:       fmt.Sprintf(template, skill),
		Type:       types.QuestionTechnical,
		Difficulty: types.DifficultyMedium,
	}
}
