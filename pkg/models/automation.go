package models

import "time"

// TriggerBinding declares how an automation is started: by a named business
// event, or only by an operator's manual invocation.
type TriggerBinding struct {
	EventName string `json:"event_name,omitempty"`
	Manual    bool   `json:"manual"`
}

// Automation is the unit an operator attaches to an automation node: a saved
// action with a trigger binding.
type Automation struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"       validate:"required"`
	Description string         `json:"description"`
	Category    string         `json:"category,omitempty"`
	IsActive    bool           `json:"is_active"`
	Trigger     TriggerBinding `json:"trigger"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Schedule fires a workflow's schedule trigger on a cron expression.
type Schedule struct {
	ID         string     `json:"id"`
	WorkflowID string     `json:"workflow_id" validate:"required"`
	CronExpr   string     `json:"cron_expr"   validate:"required"`
	Timezone   string     `json:"timezone,omitempty"`
	Enabled    bool       `json:"enabled"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	NextRunAt  *time.Time `json:"next_run_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
