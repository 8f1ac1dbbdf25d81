package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("concurrent update conflict")
	ErrValidation        = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrDuplicateSerial   = errors.New("serial number already registered")
	ErrReturnFinalized   = errors.New("return already sent to warehouse")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)
