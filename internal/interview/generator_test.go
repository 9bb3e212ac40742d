package interview

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/types"
)

// fakeClient is a scripted llm.Client shared by the tests in this package.
type fakeClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeClient) Generate(_ context.Context, prompt string, _ llm.GenerateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("fakeClient: no responses scripted")
	}
	response := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return response, nil
}

func (f *fakeClient) Close() error { return nil }

func newTestGenerator(client llm.Client) *Generator {
	return NewGenerator(client, rand.New(rand.NewSource(1)), zap.NewNop())
}

func TestGeneratorNextUsesBackendResponse(t *testing.T) {
	client := &fakeClient{responses: []string{"\"What is a goroutine?\"\nIgnore this line."}}
	g := newTestGenerator(client)

	draft := g.Next(context.Background(), &types.ResumeProfile{Summary: "Skills: Go"}, "Backend Engineer", nil)

	assert.Equal(t, "What is a goroutine?", draft.Text)
	assert.Equal(t, types.QuestionTechnical, draft.Type)
	assert.Equal(t, types.DifficultyMedium, draft.Difficulty)
	assert.Equal(t, 1, client.calls)
}

func TestGeneratorNextIncludesPriorQuestionsInFollowupPrompt(t *testing.T) {
	client := &fakeClient{responses: []string{"Tell me about testing."}}
	g := newTestGenerator(client)

	prior := []string{"What is a goroutine?", "Explain channels."}
	g.Next(context.Background(), &types.ResumeProfile{}, "Backend Engineer", prior)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "What is a goroutine?")
	assert.Contains(t, client.prompts[0], "Explain channels.")
}

func TestGeneratorNextFallsBackOnBackendError(t *testing.T) {
	client := &fakeClient{err: errors.New("backend down")}
	g := newTestGenerator(client)

	profile := &types.ResumeProfile{Skills: []string{"Docker", "React", "Python"}}
	draft := g.Next(context.Background(), profile, "Frontend Engineer", nil)

	// React comes before Python in the fallback vocabulary even though the
	// profile lists Python after Docker.
	assert.Contains(t, draft.Text, "React")
	assertTemplated(t, draft.Text, "React")
}

func TestGeneratorNextFallsBackOnEmptyResponse(t *testing.T) {
	client := &fakeClient{responses: []string{"   \n  "}}
	g := newTestGenerator(client)

	draft := g.Next(context.Background(), &types.ResumeProfile{Skills: []string{"Python"}}, "", nil)

	assertTemplated(t, draft.Text, "Python")
}

func TestGeneratorFallbackWithoutKnownSkills(t *testing.T) {
	client := &fakeClient{err: errors.New("backend down")}
	g := newTestGenerator(client)

	draft := g.Next(context.Background(), &types.ResumeProfile{Skills: []string{"COBOL"}}, "", nil)

	assertTemplated(t, draft.Text, "programming")
}

// assertTemplated checks that text is one of the fallback templates
// instantiated with skill.
func assertTemplated(t *testing.T, text, skill string) {
	t.Helper()
	for _, template := range fallbackTemplates {
		if text == fmt.Sprintf(template, skill) {
			return
		}
	}
	t.Fatalf("question %q does not match any fallback template for skill %q", text, skill)
}
