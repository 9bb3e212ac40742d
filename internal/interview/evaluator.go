package interview

import (
	"context"
	_ "embed"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/logger"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/types"
)

// Generation bounds for evaluation prompts: longer output, low temperature
// to favor consistent scoring.
const (
	evaluationMaxTokens   = 300
	evaluationTemperature = 0.3
)

//go:embed evaluation_schema.json
var evaluationSchemaJSON []byte

// evaluationSchema validates the AI's JSON payload before it is accepted.
// The payload is untrusted external input; any structural mismatch routes
// to the fallback path instead of propagating a parse error.
var evaluationSchema = func() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(evaluationSchemaJSON))
	if err != nil {
		panic("invalid embedded evaluation schema: " + err.Error())
	}
	return schema
}()

// Evaluator scores free-text answers. It is safe for concurrent use.
type Evaluator struct {
	client  llm.Client
	log     *zap.Logger
	timeout time.Duration
}

// NewEvaluator creates an Evaluator backed by the given client.
func NewEvaluator(client llm.Client, log *zap.Logger) *Evaluator {
	return &Evaluator{
		client:  client,
		log:     log,
		timeout: aiCallTimeout,
	}
}

// Evaluate scores one answer against its question and résumé context. It
// never fails; the two failure modes take distinct fallbacks:
//
//   - backend call failure: a length heuristic over the answer,
//     clamp(round(words/20), 5, 10), with generic feedback
//   - unparseable or malformed response: a fixed score-7 evaluation
func (e *Evaluator) Evaluate(ctx context.Context, questionText, answerText, resumeContext string) types.Evaluation {
	prompt := e.buildPrompt(questionText, answerText, resumeContext)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.client.Generate(callCtx, prompt, llm.GenerateOptions{
		MaxTokens:   evaluationMaxTokens,
		Temperature: evaluationTemperature,
	})
	if err != nil {
		e.log.Warn("answer evaluation fell back to length heuristic", zap.Error(err))
		return heuristicEvaluation(answerText)
	}

	eval, ok := parseEvaluation(raw)
	if !ok {
		e.log.Warn("answer evaluation returned malformed payload, using default",
			zap.String("raw", logger.Truncate(raw, 200)))
		return defaultEvaluation()
	}
	return eval
}

func (e *Evaluator) buildPrompt(questionText, answerText, resumeContext string) string {
	template := prompts.MustGet("interview.json", "evaluate-answer")
	return prompts.Format(template, map[string]string{
		"Question":      questionText,
		"Answer":        answerText,
		"ResumeContext": resumeContext,
	})
}

// parseEvaluation extracts and validates the JSON object embedded in the
// model's response. Returns ok=false on any structural mismatch.
func parseEvaluation(raw string) (types.Evaluation, bool) {
	jsonText := llm.ExtractJSONObject(llm.CleanJSONBlock(raw))
	if jsonText == "" {
		return types.Evaluation{}, false
	}

	result, err := evaluationSchema.Validate(gojsonschema.NewStringLoader(jsonText))
	if err != nil || !result.Valid() {
		return types.Evaluation{}, false
	}

	var eval types.Evaluation
	if err := json.Unmarshal([]byte(jsonText), &eval); err != nil {
		return types.Evaluation{}, false
	}

	eval.Score = clampScore(eval.Score)
	if eval.Strengths == nil {
		eval.Strengths = []string{}
	}
	if eval.Improvements == nil {
		eval.Improvements = []string{}
	}
	return eval, true
}

// heuristicEvaluation is the backend-failure fallback: longer answers score
// higher, bounded to [5, 10].
func heuristicEvaluation(answerText string) types.Evaluation {
	words := len(strings.Fields(answerText))
	score := float64(words) / 20
	if score < 5 {
		score = 5
	}
	if score > 10 {
		score = 10
	}

	return types.Evaluation{
		Score:        math.Round(score),
		Feedback:     "Answer received. Keep practicing!",
		Strengths:    []string{"Answered the question"},
		Improvements: []string{"Could elaborate more"},
	}
}

// defaultEvaluation is the parse-failure fallback.
func defaultEvaluation() types.Evaluation {
	return types.Evaluation{
		Score:        7,
		Feedback:     "Good answer. Could provide more specific examples.",
		Strengths:    []string{"Relevant to question"},
		Improvements: []string{"Add more technical details"},
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
