package cpctl

// Indirection layer to allow stubbing in tests

var (
	fnNewAdmin = func(cfg *Config) Admin { return NewClient(cfg.Addr, cfg.Timeout) }
	fnWaitHTTP = waitHTTP
)
