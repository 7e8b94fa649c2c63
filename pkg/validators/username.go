package validators

import (
	"errors"
	"regexp"
)

const MaxUsernameLength = 10

var (
	ErrUsernameEmpty   = errors.New("no username provided")
	ErrUsernameTooLong = errors.New("username must be at most 10 characters long")
	ErrUsernameInvalid = errors.New("username may only contain letters and digits and must include at least one letter")

	usernameCharset = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	usernameLetter  = regexp.MustCompile(`[a-zA-Z]`)
)

func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if len(u) > MaxUsernameLength {
		return ErrUsernameTooLong
	}

	if !usernameCharset.MatchString(u) || !usernameLetter.MatchString(u) {
		return ErrUsernameInvalid
	}

	return nil
}
