package app

// StopReason records why the daemon is shutting down, for logging and for
// any future operational tooling that wants to distinguish a clean
// operator-requested stop from a signal or a fatal background error.
type StopReason string

const (
	StopUnknown    StopReason = "unknown"
	StopSIGINT     StopReason = "sigint"
	StopSIGTERM    StopReason = "sigterm"
	StopFatalError StopReason = "fatal_error"
	StopAppStop    StopReason = "app_stop"
)
