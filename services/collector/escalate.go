package collector

import "context"

// Choice is an operator's answer to an enumeration failure.
type Choice string

const (
	// ChoiceRetry re-runs enumeration on the page as it stands.
	ChoiceRetry Choice = "r"
	// ChoiceRefresh reloads the page first, then re-runs enumeration.
	ChoiceRefresh Choice = "u"
	// ChoiceDump writes the page source to the dump directory and
	// asks again.
	ChoiceDump Choice = "d"
	// ChoiceInspect leaves the browser alone for a while so the
	// operator can poke at it, then asks again.
	ChoiceInspect Choice = "i"
	// ChoiceQuit abandons the run.
	ChoiceQuit Choice = "q"
)

// Escalator is consulted when account enumeration fails even after
// its internal retries. A nil Escalator means fail immediately, which
// is what unattended runs want.
type Escalator interface {
	Ask(ctx context.Context) (Choice, error)
}
