// Package planning detects multi-part requests ("order food and also send a
// parcel"), decomposes them into an ordered list of steps with dependency
// edges, and executes them sequentially with fail-fast semantics. Plan
// generation is LLM-backed with a rule-based conjunction splitter fallback.
package planning

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
	"github.com/querypilot/querypilot/model"
)

// Options configure the planner.
type Options struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Planner turns an incoming message into an ExecutionPlan. Plans are
// ephemeral: created fresh per message and discarded after execution.
type Planner struct {
	llm    core.LanguageModel
	logger logging.Logger
}

// NewPlanner constructs a planner. llm may be nil; planning then relies on
// the rule-based splitter alone.
func NewPlanner(llm core.LanguageModel, optFns ...func(o *Options)) *Planner {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Planner{llm: llm, logger: opts.Logger}
}

// Plan decomposes a message. Trivial messages bypass planning with a single
// step; detected multi-task messages are decomposed into ordered dependent
// steps.
func (p *Planner) Plan(ctx context.Context, text string) core.ExecutionPlan {
	if isTrivial(text) {
		return trivialPlan(text)
	}

	multi, categories := detectMultiTask(text)
	if !multi {
		return p.singleTaskPlan(ctx, text, categories)
	}

	if plan, ok := p.llmPlan(ctx, text, true); ok {
		return plan
	}
	return p.rulePlan(text)
}

// trivialPlan wraps the message in one general step.
func trivialPlan(text string) core.ExecutionPlan {
	return core.ExecutionPlan{
		Goal: text,
		Steps: []core.PlanStep{{
			ID:          "step_1",
			Type:        core.TaskGeneral,
			Description: text,
		}},
		MultiTask:      false,
		Reasoning:      "trivial message; no decomposition needed",
		EstimatedTurns: 1,
	}
}

// singleTaskPlan asks the model for a one-step plan, falling back to a
// keyword-typed single step.
func (p *Planner) singleTaskPlan(ctx context.Context, text string, categories []core.TaskType) core.ExecutionPlan {
	if plan, ok := p.llmPlan(ctx, text, false); ok {
		return plan
	}
	taskType := core.TaskGeneral
	if len(categories) > 0 {
		taskType = categories[0]
	}
	return core.ExecutionPlan{
		Goal: text,
		Steps: []core.PlanStep{{
			ID:          "step_1",
			Type:        taskType,
			Description: text,
		}},
		MultiTask:      false,
		Reasoning:      "single task detected",
		EstimatedTurns: 1,
	}
}

const planPrompt = `Decompose this marketplace request into an ordered task plan.
Request: %q
Multi-task: %t
Reply with ONLY a JSON object:
{"goal":"...","steps":[{"id":"step_1","type":"food_order|parcel|tracking|help|general","description":"...","params":{},"depends_on":[]}],"reasoning":"...","estimated_turns":1}
Later steps may list earlier step ids in depends_on. Keep steps atomic.`

// llmPlan asks the model for a plan and validates the returned shape.
func (p *Planner) llmPlan(ctx context.Context, text string, multi bool) (core.ExecutionPlan, bool) {
	if p.llm == nil {
		return core.ExecutionPlan{}, false
	}
	raw, err := p.llm.GenerateResponse(ctx, fmt.Sprintf(planPrompt, text, multi), 500)
	if err != nil {
		p.logger.Warn("plan generation failed, using rule-based splitter", "error", err)
		return core.ExecutionPlan{}, false
	}
	obj, ok := model.ExtractJSONObject(raw)
	if !ok {
		return core.ExecutionPlan{}, false
	}
	var plan core.ExecutionPlan
	if err := json.Unmarshal(obj, &plan); err != nil {
		return core.ExecutionPlan{}, false
	}
	if len(plan.Steps) == 0 {
		return core.ExecutionPlan{}, false
	}
	for i := range plan.Steps {
		if plan.Steps[i].ID == "" {
			plan.Steps[i].ID = fmt.Sprintf("step_%d", i+1)
		}
		if plan.Steps[i].Type == "" {
			plan.Steps[i].Type = core.TaskGeneral
		}
	}
	if plan.Goal == "" {
		plan.Goal = text
	}
	plan.MultiTask = multi || len(plan.Steps) > 1
	return plan, true
}

var clauseSplitRe = regexp.MustCompile(`(?i)\s*(?:,\s*)?\b(?:and also|then also|and then|after that|and|then|also)\b\s*`)

// rulePlan splits the message on conjunction words, types each clause by
// keyword match, and chains each step's dependency to the immediately
// preceding step.
func (p *Planner) rulePlan(text string) core.ExecutionPlan {
	clauses := clauseSplitRe.Split(text, -1)
	var steps []core.PlanStep
	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		taskType := core.TaskGeneral
		if cats := taskCategories(clause); len(cats) > 0 {
			taskType = cats[0]
		}
		step := core.PlanStep{
			ID:          fmt.Sprintf("step_%d", len(steps)+1),
			Type:        taskType,
			Description: clause,
			Params:      map[string]any{"text": clause},
		}
		if len(steps) > 0 {
			step.DependsOn = []string{steps[len(steps)-1].ID}
		}
		steps = append(steps, step)
	}
	if len(steps) == 0 {
		return trivialPlan(text)
	}
	return core.ExecutionPlan{
		Goal:           text,
		Steps:          steps,
		MultiTask:      len(steps) > 1,
		Reasoning:      "rule-based split on conjunctions",
		EstimatedTurns: len(steps),
	}
}
