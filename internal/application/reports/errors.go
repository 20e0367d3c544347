package reports

import "errors"

var (
	ErrValidation      = errors.New("Invalid report")
	ErrQuotaExceeded   = errors.New("Report limit reached")
	ErrUnauthorized    = errors.New("Invalid admin key")
	ErrForbidden       = errors.New("Not your report")
	ErrNotFound        = errors.New("Report not found")
	ErrAlreadyAnswered = errors.New("Report already answered")
	ErrAnswerRequired  = errors.New("Answer is required")
	ErrAnsweredLocked  = errors.New("Answered reports cannot be deleted")
	ErrNoIdentity      = errors.New("Login required")
)
