package postgresql

// migrations maps schema versions to the DDL applied for that version.
var migrations = map[int]string{
	1: `
		CREATE TABLE IF NOT EXISTS workflows (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category VARCHAR(100) NOT NULL DEFAULT '',
			is_template BOOLEAN NOT NULL DEFAULT FALSE,
			graph JSONB NOT NULL DEFAULT '{"nodes":[],"edges":[]}',
			owner VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_workflows_category ON workflows(category);
		CREATE INDEX IF NOT EXISTS idx_workflows_is_template ON workflows(is_template);
	`,
	2: `
		CREATE TABLE IF NOT EXISTS executions (
			id UUID PRIMARY KEY,
			workflow_id UUID NOT NULL,
			status VARCHAR(50) NOT NULL,
			steps JSONB NOT NULL DEFAULT '[]',
			progress INTEGER NOT NULL DEFAULT 0,
			current_step VARCHAR(255),
			input JSONB,
			output JSONB,
			error TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			started_at TIMESTAMP WITH TIME ZONE,
			completed_at TIMESTAMP WITH TIME ZONE
		);

		CREATE INDEX IF NOT EXISTS idx_executions_workflow_id ON executions(workflow_id);
		CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status);
	`,
	3: `
		CREATE TABLE IF NOT EXISTS automations (
			id VARCHAR(255) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category VARCHAR(100) NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			trigger_event VARCHAR(255) NOT NULL DEFAULT '',
			trigger_manual BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_automations_trigger_event ON automations(trigger_event);
	`,
	4: `
		CREATE TABLE IF NOT EXISTS schedules (
			id UUID PRIMARY KEY,
			workflow_id UUID NOT NULL,
			cron_expr VARCHAR(255) NOT NULL,
			timezone VARCHAR(100) NOT NULL DEFAULT 'UTC',
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			last_run_at TIMESTAMP WITH TIME ZONE,
			next_run_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_schedules_workflow_id ON schedules(workflow_id);
		CREATE INDEX IF NOT EXISTS idx_schedules_enabled ON schedules(enabled);
	`,
}
