package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/linesmerrill/causelist-api/models"
)

var transcript = []models.TranscriptLine{
	{ID: "t1", Speaker: models.SpeakerJudge, Text: "Counsel for the petitioner may proceed.", Confidence: 0.98},
	{ID: "t2", Speaker: models.SpeakerPetitioner, Text: "The impugned order was passed without notice.", Confidence: 0.91},
}

type fakeGenerator struct {
	gotModel  string
	gotPrompt string
	gotSystem string
	text      string
	err       error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotPrompt = contents[0].Parts[0].Text
	f.gotSystem = config.SystemInstruction.Parts[0].Text
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestRender(t *testing.T) {
	assert.Equal(t,
		"Judge: Counsel for the petitioner may proceed.\nPetitioner: The impugned order was passed without notice.",
		Render(transcript))
	assert.Equal(t, "", Render(nil))
}

func TestGenAI_Summarize(t *testing.T) {
	gen := &fakeGenerator{text: "  Heard counsel. Notice to issue.  "}
	g := &GenAI{models: gen, model: DefaultModel}

	got, err := g.Summarize(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "Heard counsel. Notice to issue.", got)
	assert.Equal(t, DefaultModel, gen.gotModel)
	assert.True(t, strings.HasPrefix(gen.gotPrompt, promptPrefix))
	assert.True(t, strings.HasSuffix(gen.gotPrompt, "Petitioner: The impugned order was passed without notice."))
	assert.Equal(t, systemInstruction, gen.gotSystem)
}

func TestGenAI_SummarizeErrors(t *testing.T) {
	g := &GenAI{models: &fakeGenerator{err: errors.New("quota")}, model: DefaultModel}
	_, err := g.Summarize(context.Background(), transcript)
	assert.ErrorContains(t, err, "quota")

	g = &GenAI{models: &fakeGenerator{text: ""}, model: DefaultModel}
	_, err = g.Summarize(context.Background(), transcript)
	assert.Error(t, err)

	_, err = g.Summarize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestNewGenAI_RequiresKey(t *testing.T) {
	_, err := NewGenAI(context.Background(), "", "")
	assert.Error(t, err)
}

type stubSummarizer struct {
	text  string
	err   error
	delay time.Duration
}

func (s stubSummarizer) Summarize(ctx context.Context, _ []models.TranscriptLine) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name string
		f    Fallback
		want string
	}{
		{"no backend", Fallback{}, FallbackOrder},
		{"success", Fallback{Next: stubSummarizer{text: "Disposed of."}}, "Disposed of."},
		{"error", Fallback{Next: stubSummarizer{err: errors.New("boom")}}, FallbackOrder},
		{"blank draft", Fallback{Next: stubSummarizer{text: "  "}}, FallbackOrder},
		{"custom text", Fallback{Next: stubSummarizer{err: errors.New("boom")}, Text: "Stand over."}, "Stand over."},
		{"timeout", Fallback{Next: stubSummarizer{text: "late", delay: time.Second}, Timeout: 10 * time.Millisecond}, FallbackOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.f.Summarize(context.Background(), transcript)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
