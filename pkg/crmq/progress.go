package crmq

// ProgressReporter receives operator-facing status updates from long-running
// runners. Each call owns its own reporter; implementations need not be safe
// for use across concurrent calls.
type ProgressReporter interface {
	Start(msg string)
	Update(msg string)
	Done(msg string)
	Fail(msg string)
}

// NoOpProgress discards all progress updates. It is the default reporter for
// library use.
type NoOpProgress struct{}

// Start does nothing.
func (NoOpProgress) Start(msg string) {}

// Update does nothing.
func (NoOpProgress) Update(msg string) {}

// Done does nothing.
func (NoOpProgress) Done(msg string) {}

// Fail does nothing.
func (NoOpProgress) Fail(msg string) {}
