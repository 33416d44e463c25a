package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnavailable       = errors.New("upstream service unavailable")
	ErrSignatureRequired = errors.New("signed transaction required")
)

// User-facing messages for failed pipeline stages.
const (
	MessageRenderFailed = "PDF oluşturulurken hata oluştu"
	MessageUploadFailed = "IPFS yüklemesi sırasında hata oluştu"
	MessageLedgerFailed = "Algorand işlemi sırasında hata oluştu"
)

// StageError pairs an internal cause with the message shown to the user.
type StageError struct {
	Message string
	Err     error
}

func (e *StageError) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(message string, err error) error {
	return &StageError{Message: message, Err: err}
}
