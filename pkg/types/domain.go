package types

// NotificationEvent describes one scheduling block state change.
// Values are built per notification and never persisted.
type NotificationEvent struct {
	// Scheduling block id.
	// example: 2056
	SBID int64 `json:"sbid" example:"2056"`
	// New observation state of the block.
	// example: PROCESSING
	State ObsState `json:"state" swaggertype:"string" example:"PROCESSING"`
	// Update timestamp as reported by the scheduler.
	// example: 2016-06-01 12:00:00.000000
	UpdateTime string `json:"update_time" example:"2016-06-01 12:00:00.000000"`
}

// TestResult is a single self-test outcome.
type TestResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}
