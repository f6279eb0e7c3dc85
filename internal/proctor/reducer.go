package proctor

// Status is the proctoring state of one monitored interview
type Status string

const (
	// StatusClean means no focus-loss violations have been recorded
	StatusClean Status = "clean"
	// StatusWarned means at least one violation was recorded but the
	// interview is still live.
	StatusWarned Status = "warned"
	// StatusTerminated is absorbing: once entered, no further report
	// can change the state.
	StatusTerminated Status = "terminated"
)

// State is the tracker's view of the monitored interview. Count is the
// number of violations the tracker believes have been recorded; the
// authoritative count arrives with each Report and overwrites it.
type State struct {
	Status Status
	Count  int
}

// Report is the authoritative outcome of one recorded violation, as
// returned by the violations endpoint.
type Report struct {
	Count      int
	Terminated bool
}

// Reduce folds one authoritative report into the current state. It is a
// pure function: the returned state depends only on its inputs.
//
// The authoritative count always overwrites the local count, even when
// it is lower than what the tracker optimistically assumed. Terminated
// is absorbing: reports arriving after termination are ignored.
func Reduce(state State, report Report) State {
	if state.Status == StatusTerminated {
		return state
	}

	next := State{Count: report.Count}
	switch {
	case report.Terminated:
		next.Status = StatusTerminated
	case report.Count > 0:
		next.Status = StatusWarned
	default:
		next.Status = StatusClean
	}
	return next
}
