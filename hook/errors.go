package hook

import "errors"

// Sentinel errors for package hook.
var (
	ErrHookFailed = errors.New("hook failed")
	ErrNoChild    = errors.New("no hook running")
)
