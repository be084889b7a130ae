package lending

import "errors"

var (
	ErrMissingFields = errors.New("please fill in all required fields")
	ErrEmptyMessage  = errors.New("please enter a message")
)
