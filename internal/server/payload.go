package server

import (
	"fmt"

	mdwerror "github.com/msto63/rechenwerk/foundation/core/error"
	"github.com/msto63/rechenwerk/internal/dispatch"
)

// ErrorPayload represents an error payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CallResult is the outcome of one call
type CallResult struct {
	Operation string        `json:"operation"`
	Operand   string        `json:"operand,omitempty"`
	Total     string        `json:"total"`
	Error     *ErrorPayload `json:"error,omitempty"`
}

// ResultPayload answers call and ask messages. Total and UndoAvailable
// describe the session after the last call.
type ResultPayload struct {
	Input         string        `json:"input,omitempty"`
	Raw           string        `json:"raw,omitempty"`
	Results       []CallResult  `json:"results"`
	Total         string        `json:"total"`
	UndoAvailable bool          `json:"undo_available"`
	Error         *ErrorPayload `json:"error,omitempty"`
}

func newErrorPayload(err error) *ErrorPayload {
	if err == nil {
		return nil
	}
	return &ErrorPayload{
		Code:    string(mdwerror.GetCode(err)),
		Message: err.Error(),
	}
}

func buildResultPayload(session *dispatch.Session, results []dispatch.Result, err error) ResultPayload {
	out := ResultPayload{
		Results: make([]CallResult, 0, len(results)),
		Error:   newErrorPayload(err),
	}
	for _, r := range results {
		cr := CallResult{
			Operation: r.Op.String(),
			Total:     r.Display,
			Error:     newErrorPayload(r.Err),
		}
		if r.Operand != nil {
			cr.Operand = fmt.Sprint(r.Operand)
		}
		out.Results = append(out.Results, cr)
	}

	snap := session.Snapshot()
	out.Total = session.Format(snap.Total)
	out.UndoAvailable = snap.Undo != nil
	return out
}
