package directory

import "errors"

var (
	ErrDoctorNotFound = errors.New("doctor not found")
	ErrValidation     = errors.New("validation error")
)
