package planning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/core"
)

func twoStepPlan() core.ExecutionPlan {
	return core.ExecutionPlan{
		Goal: "food and parcel",
		Steps: []core.PlanStep{
			{ID: "step_1", Type: core.TaskFood, Description: "order pizza"},
			{ID: "step_2", Type: core.TaskParcel, Description: "send parcel", DependsOn: []string{"step_1"}},
		},
		MultiTask: true,
	}
}

func TestExecuteAllStepsSucceed(t *testing.T) {
	e := NewExecutor(nil)

	result := e.Execute(context.Background(), twoStepPlan(), func(ctx context.Context, step core.PlanStep) (any, error) {
		return step.ID + " done", nil
	})

	assert.True(t, result.Completed)
	require.Len(t, result.Results, 2)
	for _, step := range result.Results {
		assert.True(t, step.Success)
		assert.False(t, step.Skipped)
	}
	assert.Equal(t, "step_1 done", result.Results[0].Output)
}

func TestExecuteHaltsOnFailure(t *testing.T) {
	e := NewExecutor(nil)
	var executed []string

	result := e.Execute(context.Background(), twoStepPlan(), func(ctx context.Context, step core.PlanStep) (any, error) {
		executed = append(executed, step.ID)
		return nil, errors.New("store unavailable")
	})

	assert.False(t, result.Completed)
	require.Len(t, result.Results, 1, "no best-effort continuation after a failure")
	assert.Equal(t, []string{"step_1"}, executed)
	assert.Equal(t, "store unavailable", result.Results[0].Err)
	assert.False(t, result.Results[0].Success)
}

func TestExecuteSkipsUnmetDependencyAndHalts(t *testing.T) {
	e := NewExecutor(nil)
	plan := core.ExecutionPlan{
		Steps: []core.PlanStep{
			{ID: "step_1", Type: core.TaskGeneral, DependsOn: []string{"step_0"}},
			{ID: "step_2", Type: core.TaskGeneral},
		},
	}
	var executed []string

	result := e.Execute(context.Background(), plan, func(ctx context.Context, step core.PlanStep) (any, error) {
		executed = append(executed, step.ID)
		return nil, nil
	})

	assert.False(t, result.Completed)
	assert.Empty(t, executed, "a step with unmet dependencies never runs")
	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].Skipped)
}

func TestExecuteEmptyPlanCompletes(t *testing.T) {
	e := NewExecutor(nil)

	result := e.Execute(context.Background(), core.ExecutionPlan{}, func(ctx context.Context, step core.PlanStep) (any, error) {
		t.Fatal("handler must not run for an empty plan")
		return nil, nil
	})

	assert.True(t, result.Completed)
	assert.Empty(t, result.Results)
}

func TestExecuteDependencyOnEarlierStepRuns(t *testing.T) {
	e := NewExecutor(nil)

	result := e.Execute(context.Background(), twoStepPlan(), func(ctx context.Context, step core.PlanStep) (any, error) {
		return nil, nil
	})

	assert.True(t, result.Completed)
	assert.True(t, result.Results[1].Success, "satisfied dependency lets the step run")
}
