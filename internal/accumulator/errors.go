package accumulator

import (
	mdwerror "github.com/msto63/rechenwerk/foundation/core/error"
)

// Sentinel errors. Returned errors are decorated copies that match these with
// errors.Is.
var (
	ErrInvalidInput = mdwerror.New("invalid numeric input").
			WithCode(mdwerror.CodeInvalidInput)

	ErrUnsupportedType = mdwerror.New("unsupported value type").
				WithCode(mdwerror.CodeUnsupportedType)

	ErrDivideByZero = mdwerror.New("division by zero").
			WithCode(mdwerror.CodeDivideByZero)

	ErrMagnitudeExceeded = mdwerror.New("total max value reached").
				WithCode(mdwerror.CodeMagnitudeExceeded)
)
