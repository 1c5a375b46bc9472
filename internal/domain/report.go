package domain

// Report is the ephemeral value handed to the composer once a workflow
// completes. It is consumed exactly once and never stored.
type Report struct {
	TargetChat    int64
	TargetLink    string
	Reason        string
	ReporterLabel string
}
