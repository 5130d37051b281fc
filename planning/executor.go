package planning

import (
	"context"
	"errors"
	"time"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
)

// StepHandler executes one plan step and returns its output. The façade
// supplies a handler that dispatches on step type (search, cart, track,
// help).
type StepHandler func(ctx context.Context, step core.PlanStep) (any, error)

// Executor runs plan steps strictly in order with fail-fast semantics.
type Executor struct {
	logger logging.Logger
}

// NewExecutor constructs a plan executor.
func NewExecutor(logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Executor{logger: logger}
}

// Execute runs each step in order. A step whose declared dependencies have
// not all completed is marked skipped and execution halts; a step whose
// handler errors halts execution with no best-effort continuation. Completed
// is true only when every planned step finished successfully.
func (e *Executor) Execute(ctx context.Context, plan core.ExecutionPlan, handler StepHandler) core.ExecutionResult {
	start := time.Now()
	result := e.run(ctx, plan, handler)
	if pl, ok := e.logger.(logging.PlanLogger); ok {
		pl.LogPlanExecution(len(plan.Steps), time.Since(start), result.Completed, stepError(result))
	}
	return result
}

func (e *Executor) run(ctx context.Context, plan core.ExecutionPlan, handler StepHandler) core.ExecutionResult {
	done := make(map[string]bool, len(plan.Steps))
	result := core.ExecutionResult{Completed: true}

	for _, step := range plan.Steps {
		if unmet := unmetDeps(step, done); len(unmet) > 0 {
			e.logger.Warn("skipping step with unsatisfied dependencies", "step", step.ID, "missing", unmet)
			result.Results = append(result.Results, core.StepResult{
				StepID:  step.ID,
				Err:     "unsatisfied dependencies",
				Skipped: true,
			})
			result.Completed = false
			return result
		}

		output, err := handler(ctx, step)
		if err != nil {
			e.logger.Warn("step failed, halting plan", "step", step.ID, "error", err)
			result.Results = append(result.Results, core.StepResult{
				StepID: step.ID,
				Err:    err.Error(),
			})
			result.Completed = false
			return result
		}

		done[step.ID] = true
		result.Results = append(result.Results, core.StepResult{
			StepID:  step.ID,
			Output:  output,
			Success: true,
		})
	}
	return result
}

// stepError surfaces the first failed step's error, if any.
func stepError(result core.ExecutionResult) error {
	for _, sr := range result.Results {
		if sr.Err != "" {
			return errors.New(sr.Err)
		}
	}
	return nil
}

func unmetDeps(step core.PlanStep, done map[string]bool) []string {
	var unmet []string
	for _, dep := range step.DependsOn {
		if !done[dep] {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}
