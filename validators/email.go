// Package validators contains request field validators shared by the handlers
package validators

import (
	"errors"
	"net/mail"
)

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailTooLong = errors.New("email address is too long")
	ErrEmailInvalid = errors.New("invalid email address provided")
)

// EmailValidator accepts plain addresses only. Display-name forms like
// "Bob <bob@example.com>" parse fine but aren't account emails.
func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	if len(e) > 254 {
		return ErrEmailTooLong
	}

	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return ErrEmailInvalid
	}

	return nil
}
