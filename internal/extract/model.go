package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/flow"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/llm"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/patterns"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/profile"
)

const defaultMaxTokens = 700

// ModelConfig tunes the model extractor.
type ModelConfig struct {
	MaxTokens int
	// SkipSteps are steps with nothing for the model to extract; the
	// call is skipped entirely and a zero-usage empty result returned.
	SkipSteps   []flow.Step
	DateOptions DateOptions
}

// ModelExtractor asks a completion service to pull profile fields out of
// a message. A nil result with an error means the service failed; an
// empty result means it answered but found nothing.
type ModelExtractor struct {
	client    llm.Chatter
	model     string
	maxTokens int
	skip      map[flow.Step]bool
	dateOpts  DateOptions
}

// NewModelExtractor creates an extractor with the shipped defaults:
// the terminal step and the lifestyle step skip the call.
func NewModelExtractor(client llm.Chatter, model string) *ModelExtractor {
	return NewModelExtractorWithConfig(client, model, ModelConfig{
		SkipSteps:   []flow.Step{flow.StepLifestyle, flow.StepComplete},
		DateOptions: DefaultDateOptions(),
	})
}

// NewModelExtractorWithConfig creates an extractor with explicit tuning.
func NewModelExtractorWithConfig(client llm.Chatter, model string, cfg ModelConfig) *ModelExtractor {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	skip := make(map[flow.Step]bool, len(cfg.SkipSteps))
	for _, s := range cfg.SkipSteps {
		skip[s] = true
	}
	return &ModelExtractor{
		client:    client,
		model:     model,
		maxTokens: cfg.MaxTokens,
		skip:      skip,
		dateOpts:  cfg.DateOptions,
	}
}

// Extract runs one model extraction. ref is the date used as "now" for
// deadline normalization. Returns (nil, err) on transport or parse
// failure so the caller can fall back; never panics on malformed output.
func (e *ModelExtractor) Extract(ctx context.Context, message string, step flow.Step, existing *profile.ProfileData, history []llm.Message, workingMemory []string, ref time.Time) (*Result, error) {
	if e.skip[step] {
		return &Result{Data: &profile.ProfileData{}, Source: SourceModel}, nil
	}

	messages := BuildPrompt(message, step, existing, history, workingMemory)
	raw, usage, err := e.client.ChatJSON(ctx, e.model, messages, e.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("model extraction call: %w", err)
	}

	var data profile.ProfileData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decoding model extraction output: %w", err)
	}

	e.postprocess(&data, step, ref)

	return &Result{
		Data:   &data,
		Usage:  usage,
		Cost:   EstimateCost(e.model, usage),
		Source: SourceModel,
	}, nil
}

// postprocess cleans the model's output: blank scalars are dropped
// (explicit empty arrays are kept), the name loses trailing punctuation,
// free-text deadlines are normalized or dropped, and a known city
// auto-attaches its currency on the city-collection step.
func (e *ModelExtractor) postprocess(data *profile.ProfileData, step flow.Step, ref time.Time) {
	data.Name = cleanString(data.Name)
	data.Diploma = cleanString(data.Diploma)
	data.Field = cleanString(data.Field)
	data.City = cleanString(data.City)
	data.Currency = cleanString(data.Currency)
	data.GoalName = cleanString(data.GoalName)
	data.GoalDeadline = cleanString(data.GoalDeadline)

	if data.Name != nil {
		name := strings.TrimRight(*data.Name, ".!,;:")
		if name == "" {
			data.Name = nil
		} else {
			data.Name = &name
		}
	}

	if data.GoalDeadline != nil {
		if iso, ok := NormalizeDeadlineWith(*data.GoalDeadline, ref, e.dateOpts); ok {
			data.GoalDeadline = &iso
		} else {
			// A wrong date is worse than no date.
			data.GoalDeadline = nil
		}
	}

	if step == flow.StepGreeting && data.City != nil && data.Currency == nil {
		if cur, ok := patterns.CityCurrency(*data.City); ok {
			data.Currency = profile.String(cur)
		}
	}
}

func cleanString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
