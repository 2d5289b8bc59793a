package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/api/option"

	"github.com/daniel/expert-match/internal/admission"
	"github.com/daniel/expert-match/internal/types"
)

// Describer generates a short clinical abstract for a case, used as
// the embedding input when no stored abstract exists.
type Describer interface {
	Describe(ctx context.Context, c types.Case) (string, error)
}

// abstractSchema constrains the model's JSON output before it is
// trusted.
const abstractSchema = `{
	"type": "object",
	"required": ["abstract"],
	"properties": {
		"abstract": {"type": "string", "minLength": 1}
	}
}`

const describePrompt = `Summarize the following medical case as a single concise clinical abstract suitable for semantic search.
Respond with JSON only, in the form {"abstract": "..."}.

%s`

// GeminiDescriber generates abstracts through the Gemini chat API,
// gated by the admission controller's chat pool.
type GeminiDescriber struct {
	client *genai.Client
	model  *genai.GenerativeModel
	ctrl   *admission.Controller
	policy admission.Policy
}

// NewGeminiDescriber creates the backend client for abstract generation.
func NewGeminiDescriber(ctx context.Context, cfg Config, ctrl *admission.Controller, policy admission.Policy) (*GeminiDescriber, error) {
	cfg = cfg.MergeWithDefaults()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := client.GenerativeModel(cfg.DescribeModel)
	model.ResponseMIMEType = "application/json"

	return &GeminiDescriber{client: client, model: model, ctrl: ctrl, policy: policy}, nil
}

// Close releases the backend client.
func (d *GeminiDescriber) Close() error {
	return d.client.Close()
}

// Describe generates a validated abstract for the case.
func (d *GeminiDescriber) Describe(ctx context.Context, c types.Case) (string, error) {
	prompt := fmt.Sprintf(describePrompt, CaseText(c))

	var abstract string
	err := d.ctrl.Do(ctx, admission.CategoryChat, func(ctx context.Context) error {
		return admission.Retry(ctx, d.policy, func(ctx context.Context) error {
			resp, err := d.model.GenerateContent(ctx, genai.Text(prompt))
			if err != nil {
				return fmt.Errorf("failed to generate description: %w", err)
			}
			raw := responseText(resp)
			abstract, err = ParseAbstract(raw)
			return err
		})
	})
	if err != nil {
		return "", err
	}
	return abstract, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}

// ParseAbstract validates the model's JSON output against the abstract
// schema and extracts the abstract text.
func ParseAbstract(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(abstractSchema),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return "", fmt.Errorf("failed to validate description: %w", err)
	}
	if !result.Valid() {
		return "", fmt.Errorf("description does not match schema: %v", result.Errors())
	}

	var parsed struct {
		Abstract string `json:"abstract"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", fmt.Errorf("failed to parse description: %w", err)
	}
	return strings.TrimSpace(parsed.Abstract), nil
}

// TextForCase resolves the embedding input: the stored abstract first,
// then a generated description, then the structured-field fallback.
// Description failures are logged, never propagated.
func TextForCase(ctx context.Context, c types.Case, describer Describer, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	if text := strings.TrimSpace(c.AbstractText); text != "" {
		return text
	}
	if describer != nil {
		text, err := describer.Describe(ctx, c)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			logger.Warn("case description generation failed, falling back to structured fields",
				"case_id", c.ID, "error", err)
		}
	}
	return CaseText(c)
}
