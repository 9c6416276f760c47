package domain

import "errors"

// Validation errors raised at construction time. They are never retried.
var (
	ErrInvalidSide      = errors.New("invalid order side")
	ErrInvalidOrderType = errors.New("invalid order type")
	ErrInvalidState     = errors.New("invalid pair state")
	ErrInvalidCapital   = errors.New("invalid order capital")
	ErrInvalidTicker    = errors.New("invalid ticker")
)
