// Package pipeline orchestrates one conversational turn: model
// extraction with deterministic fallback, the ambiguity gate, profile
// merge, step advancement, and the reply. The processor holds no
// per-session state; everything a turn needs arrives in TurnInput and
// the caller persists what comes back.
package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/extract"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/flow"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/llm"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/observe"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/profile"
)

// TurnInput carries everything one turn needs. A zero ReferenceDate
// means "now"; Surface is diagnostic ("http", "mcp", "cli").
type TurnInput struct {
	Message       string
	Step          flow.Step
	Profile       *profile.ProfileData
	History       []llm.Message
	WorkingMemory []string
	ReferenceDate time.Time
	Surface       string
}

// UIResource is an opaque structured prompt the caller renders when the
// turn needs a user confirmation instead of a merge.
type UIResource struct {
	Type     string `json:"type"`
	Field    string `json:"field"`
	Value    any    `json:"value"`
	Question string `json:"question"`
}

// TurnOutput is the turn contract: the reply text, what was extracted,
// where the flow moved, and the merged profile for the caller to
// persist.
type TurnOutput struct {
	Response   string               `json:"response"`
	Extracted  *profile.ProfileData `json:"extractedData"`
	NextStep   flow.Step            `json:"nextStep"`
	IsComplete bool                 `json:"isComplete"`
	Profile    *profile.ProfileData `json:"profileData"`
	Source     extract.Source       `json:"source"`
	UIResource *UIResource          `json:"uiResource,omitempty"`
	Usage      llm.Usage            `json:"usage"`
	Cost       float64              `json:"cost"`
}

// Processor runs turns. A nil model extractor makes every turn take the
// deterministic path, which keeps the whole pipeline usable offline.
type Processor struct {
	model    *extract.ModelExtractor
	recorder observe.Recorder
}

// NewProcessor creates a Processor. model may be nil; recorder defaults
// to the no-op recorder.
func NewProcessor(model *extract.ModelExtractor, recorder observe.Recorder) *Processor {
	if recorder == nil {
		recorder = observe.Nop()
	}
	return &Processor{model: model, recorder: recorder}
}

// ProcessTurn runs one turn end to end. It never returns an error:
// model failures degrade to the deterministic extractor, empty
// extractions become clarification replies, and ambiguous extractions
// become confirmation resources.
func (p *Processor) ProcessTurn(ctx context.Context, in TurnInput) *TurnOutput {
	ref := in.ReferenceDate
	if ref.IsZero() {
		ref = time.Now()
	}

	ctx, turn := p.recorder.StartSpan(ctx, "turn")
	defer turn.End()
	turn.SetAttribute("step", string(in.Step))
	turn.SetAttribute("surface", in.Surface)
	turn.SetAttribute("message_length", len(in.Message))

	if flow.IsTerminal(in.Step) {
		out := &TurnOutput{
			Response:   flow.Prompt(flow.StepComplete),
			Extracted:  &profile.ProfileData{},
			NextStep:   flow.StepComplete,
			IsComplete: true,
			Profile:    in.Profile.Clone(),
			Source:     extract.SourceFallback,
		}
		turn.SetOutput(string(out.NextStep))
		return out
	}

	result := p.extract(ctx, in, ref)
	extracted := result.Data

	// Ambiguous extractions are confirmed, never merged speculatively:
	// the flow stays put and the caller renders the question.
	if len(extracted.AmbiguousFields) > 0 {
		res := confirmation(extracted)
		out := &TurnOutput{
			Response:   res.Question,
			Extracted:  extracted,
			NextStep:   in.Step,
			IsComplete: false,
			Profile:    in.Profile.Clone(),
			Source:     result.Source,
			UIResource: res,
			Usage:      result.Usage,
			Cost:       result.Cost,
		}
		turn.SetOutput(string(out.NextStep))
		return out
	}

	_, mergeSpan := p.recorder.StartSpan(ctx, "merge")
	merged := profile.Merge(in.Profile, extracted, in.Step)
	mergeSpan.SetAttribute("field_count", merged.FieldCount())
	mergeSpan.End()

	next := flow.Next(in.Step, extracted, merged)

	_, replySpan := p.recorder.StartSpan(ctx, "reply")
	response := buildReply(in.Step, next, extracted, merged)
	replySpan.End()

	out := &TurnOutput{
		Response:   response,
		Extracted:  extracted,
		NextStep:   next,
		IsComplete: flow.IsTerminal(next),
		Profile:    merged,
		Source:     result.Source,
		Usage:      result.Usage,
		Cost:       result.Cost,
	}
	turn.SetOutput(string(out.NextStep))
	return out
}

// extract runs the model extractor when one is configured and falls
// back to the deterministic extractor when the model fails or returns
// nothing. Fallback results never carry usage or cost.
func (p *Processor) extract(ctx context.Context, in TurnInput, ref time.Time) *extract.Result {
	ctx, span := p.recorder.StartSpan(ctx, "extract")
	defer span.End()

	if p.model != nil {
		result, err := p.model.Extract(ctx, in.Message, in.Step, in.Profile, in.History, in.WorkingMemory, ref)
		switch {
		case err != nil:
			slog.Warn("model extraction failed, using deterministic extractor", "step", in.Step, "error", err)
		case result.Data.FieldCount() > 0 || len(result.Data.AmbiguousFields) > 0 || len(result.Data.MissingInfo) > 0:
			span.SetAttribute("source", string(result.Source))
			span.SetUsage(result.Usage.PromptTokens, result.Usage.CompletionTokens)
			return result
		default:
			slog.Debug("model extracted nothing, using deterministic extractor", "step", in.Step)
		}
	}

	data := extract.Fallback(in.Message, in.Step, in.Profile, ref)
	span.SetAttribute("source", string(extract.SourceFallback))
	return &extract.Result{Data: data, Source: extract.SourceFallback}
}

// confirmation builds the confirmation resource for the first ambiguous
// field, in stable field order.
func confirmation(extracted *profile.ProfileData) *UIResource {
	fields := make([]string, 0, len(extracted.AmbiguousFields))
	for f := range extracted.AmbiguousFields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	field := fields[0]
	return &UIResource{
		Type:     "confirmation",
		Field:    field,
		Value:    extracted.AmbiguousFields[field],
		Question: confirmationQuestion(field, extracted.AmbiguousFields[field]),
	}
}
