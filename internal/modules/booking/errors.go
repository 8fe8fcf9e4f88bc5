package booking

import "errors"

var (
	errNoContact     = errors.New("guest needs an email or a phone number")
	errUnknownMethod = errors.New("unknown payment method")
)
