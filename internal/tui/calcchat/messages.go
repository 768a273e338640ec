package calcchat

import (
	"time"
)

// Entry is one line of the transcript
type Entry struct {
	Role      string   // user, calc, system
	Content   string   // input text or reply
	Calls     []string // rendered calls, for calc entries
	Failed    bool
	Timestamp time.Time
	Duration  time.Duration
}

// turnDoneMsg is sent when a submitted line has been executed
type turnDoneMsg struct {
	calls    []string
	reply    string
	err      error
	duration time.Duration
}

// modelStatusMsg is sent when the model backend has been probed
type modelStatusMsg struct {
	online bool
}
