package core

// TaskType tags a plan step with the vertical it belongs to.
type TaskType string

// Task categories the planner distinguishes.
const (
	TaskFood    TaskType = "food_order"
	TaskParcel  TaskType = "parcel"
	TaskTrack   TaskType = "tracking"
	TaskHelp    TaskType = "help"
	TaskGeneral TaskType = "general"
)

// PlanStep is one atomic sub-task within a decomposed request. DependsOn
// lists step ids that must complete before this step may run.
type PlanStep struct {
	ID          string         `json:"id"`
	Type        TaskType       `json:"type"`
	Description string         `json:"description"`
	Params      map[string]any `json:"params,omitempty"`
	DependsOn   []string       `json:"depends_on,omitempty"`
}

// ExecutionPlan is the ordered decomposition of an incoming message. It is
// created fresh per message and discarded after execution; never persisted.
type ExecutionPlan struct {
	Goal           string     `json:"goal"`
	Steps          []PlanStep `json:"steps"`
	MultiTask      bool       `json:"multi_task"`
	Reasoning      string     `json:"reasoning,omitempty"`
	EstimatedTurns int        `json:"estimated_turns,omitempty"`
}

// StepResult is the outcome of executing a single plan step.
type StepResult struct {
	StepID  string `json:"step_id"`
	Output  any    `json:"output,omitempty"`
	Err     string `json:"error,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Success bool   `json:"success"`
}

// ExecutionResult aggregates step outcomes. Completed is true only when
// every planned step finished successfully.
type ExecutionResult struct {
	Results   []StepResult `json:"results"`
	Completed bool         `json:"completed"`
}
