package domain

// Verdict is the moderation classifier's decision for a single request.
// It serves as the canonical data structure across the application
// (Moderator -> Pipeline -> Adapter) and lives only for the duration of
// one pipeline invocation.
type Verdict struct {
	Flagged bool
	// Categories holds the classifier-provided labels that were flagged.
	// May be empty even when Flagged is true.
	Categories []string
}

// Outcome is the terminal result of one pipeline invocation: either a
// generated reply or a rejection. A reply is never produced for a
// flagged request.
type Outcome struct {
	Rejected   bool
	Notice     string
	Categories []string
	Reply      string
}
