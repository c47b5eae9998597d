package form

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalid      = "FORM_INVALID"
	textCodeRejected     = "FORM_REJECTED"
	textCodeContract     = "FORM_CONTRACT_VIOLATION"
	textCodeSubmitFailed = "FORM_SUBMIT_FAILED"
	textCodeLoadFailed   = "FORM_LOAD_FAILED"
	textCodeUploadFailed = "FORM_UPLOAD_FAILED"
)

var (
	errInvalid  = errors.New("form: one or more fields are invalid")
	errRejected = errors.New("form: the backend rejected the entry")
)

func wrapValidationError(err error, code, message string) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, message).WithTextCode(code)
}

func wrapCommandError(err error, code, message string) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, message).WithTextCode(code)
}

// IsRejected reports whether err is a submission refused for field-level
// reasons, locally or by the backend. The form state then carries the
// messages and the caller can let the user correct them.
func IsRejected(err error) bool {
	return err != nil && goerrors.IsCategory(err, goerrors.CategoryValidation)
}
