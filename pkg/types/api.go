package types

// StateResponse is returned by GET /admin/state.
type StateResponse struct {
	// Current component state.
	// example: STANDBY
	State ComponentState `json:"state" swaggertype:"string" example:"STANDBY"`
}

// SelfTestResponse is returned by POST /admin/selftest.
type SelfTestResponse struct {
	Results []TestResult `json:"results"`
}

// VersionResponse is returned by GET /admin/version.
type VersionResponse struct {
	// example: 0.3.0
	Version string `json:"version" example:"0.3.0"`
}

// ObjectsResponse lists identities currently visible on the service adapter.
type ObjectsResponse struct {
	// example: ["CentralProcessorAdmin","CentralProcessorService"]
	Objects []string `json:"objects"`
}

// SBStateRequest is the body of POST /sbstate.
type SBStateRequest struct {
	// example: 2056
	SBID int64 `json:"sbid" example:"2056"`
	// example: PROCESSING
	State string `json:"state" example:"PROCESSING"`
	// Optional; the server time is used when empty.
	UpdateTime string `json:"update_time,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
