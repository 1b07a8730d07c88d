package postgresql

// migrations maps schema versions to the SQL that establishes them.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS automations (
				id UUID PRIMARY KEY,
				owner_id TEXT NOT NULL,
				name TEXT NOT NULL,
				enabled BOOLEAN NOT NULL DEFAULT TRUE,
				trigger_service TEXT NOT NULL,
				trigger_action TEXT NOT NULL,
				trigger_params JSONB,
				reaction JSONB,
				steps JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_automations_trigger
				ON automations (trigger_service, trigger_action)
				WHERE enabled;

			CREATE TABLE IF NOT EXISTS execution_logs (
				id UUID PRIMARY KEY,
				automation_id UUID NOT NULL,
				status TEXT NOT NULL,
				output JSONB,
				error_message TEXT,
				step_details JSONB,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_execution_logs_automation
				ON execution_logs (automation_id, started_at);

			CREATE TABLE IF NOT EXISTS credentials (
				user_id TEXT NOT NULL,
				service TEXT NOT NULL,
				access_token TEXT NOT NULL,
				refresh_token TEXT,
				expires_at TIMESTAMP WITH TIME ZONE,
				PRIMARY KEY (user_id, service)
			);
		`,
	}
}
