// Package summarize drafts the record of proceedings for a hearing from its transcript.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/linesmerrill/causelist-api/models"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "gemini-3-flash-preview"
	// DefaultTimeout bounds a single drafting call
	DefaultTimeout = 15 * time.Second
	// FallbackOrder is returned whenever a draft cannot be produced
	FallbackOrder = "Matter partly heard. Adjourned for further arguments."

	systemInstruction = "You are a senior judicial assistant helping a judge draft a record of proceedings. Use professional legal terminology."
	promptPrefix      = "Given the following court transcript fragment, generate a concise, formal judicial order summary for the day's proceedings:\n\n"
)

// ErrEmptyTranscript is returned when there is nothing to summarize
var ErrEmptyTranscript = errors.New("transcript is empty")

// Summarizer turns a transcript into final-order text
type Summarizer interface {
	Summarize(ctx context.Context, transcript []models.TranscriptLine) (string, error)
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAI drafts orders with a Gemini model
type GenAI struct {
	models contentGenerator
	model  string
}

// NewGenAI creates a Gemini-backed summarizer
func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAI{models: client.Models, model: model}, nil
}

// Summarize asks the model for a formal order summarizing the transcript
func (g *GenAI) Summarize(ctx context.Context, transcript []models.TranscriptLine) (string, error) {
	if len(transcript) == 0 {
		return "", ErrEmptyTranscript
	}

	resp, err := g.models.GenerateContent(ctx, g.model,
		genai.Text(promptPrefix+Render(transcript)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("GenAI returned no text")
	}
	return text, nil
}

// Render formats the transcript as "Speaker: text" lines
func Render(transcript []models.TranscriptLine) string {
	var b strings.Builder
	for i, l := range transcript {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(l.Speaker))
		b.WriteString(": ")
		b.WriteString(l.Text)
	}
	return b.String()
}

// Fallback wraps a Summarizer with a deadline and never fails: any error, timeout or
// empty draft yields the fallback order. A nil Next always yields the fallback.
type Fallback struct {
	Next    Summarizer
	Timeout time.Duration
	Text    string
}

type draft struct {
	text string
	err  error
}

// Summarize implements Summarizer
func (f Fallback) Summarize(ctx context.Context, transcript []models.TranscriptLine) (string, error) {
	if f.Next == nil {
		return f.fallback(), nil
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan draft, 1)
	go func() {
		text, err := f.Next.Summarize(ctx, transcript)
		ch <- draft{text: text, err: err}
	}()

	select {
	case d := <-ch:
		if d.err != nil || strings.TrimSpace(d.text) == "" {
			zap.S().Warnw("order draft failed, using fallback",
				"lines", len(transcript),
				"error", d.err)
			return f.fallback(), nil
		}
		return d.text, nil
	case <-ctx.Done():
		zap.S().Warnw("order draft timed out, using fallback",
			"lines", len(transcript),
			"timeout", timeout)
		return f.fallback(), nil
	}
}

func (f Fallback) fallback() string {
	if f.Text != "" {
		return f.Text
	}
	return FallbackOrder
}
