// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package password

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
	"unicode"
)

//go:embed common_passwords.txt
var commonPasswordsFS embed.FS

var commonPasswords map[string]struct{}

func init() {
	commonPasswords = make(map[string]struct{})
	file, err := commonPasswordsFS.Open("common_passwords.txt")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		pw := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if pw != "" {
			commonPasswords[pw] = struct{}{}
		}
	}
}

// Validator checks candidate passwords against the complexity policy.
type Validator struct {
	MinLength            int
	RequireDigit         bool
	RequireLetter        bool
	CheckCommonPasswords bool
}

// DefaultValidator returns a validator with the service's default policy.
func DefaultValidator() *Validator {
	return &Validator{
		MinLength:            10,
		RequireDigit:         true,
		RequireLetter:        true,
		CheckCommonPasswords: true,
	}
}

// ValidationError describes one failed policy rule.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// PolicyError wraps all failed rules for a candidate password.
type PolicyError struct {
	Errors []ValidationError
}

func (e *PolicyError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return e.Errors[0].Message
}

// Messages returns all error messages.
func (e *PolicyError) Messages() []string {
	messages := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		messages[i] = err.Message
	}
	return messages
}

// Validate checks a password against the policy. userAttributes (such as the
// account email) must not appear inside the password.
func (v *Validator) Validate(password string, userAttributes ...string) error {
	var errs []ValidationError

	if len(password) < v.MinLength {
		errs = append(errs, ValidationError{
			Code:    "min_length",
			Message: fmt.Sprintf("Password must be at least %d characters long.", v.MinLength),
		})
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if v.RequireLetter && !hasLetter {
		errs = append(errs, ValidationError{
			Code:    "no_letter",
			Message: "Password must contain at least one letter.",
		})
	}

	if v.RequireDigit && !hasDigit {
		errs = append(errs, ValidationError{
			Code:    "no_digit",
			Message: "Password must contain at least one digit.",
		})
	}

	if v.CheckCommonPasswords {
		if _, common := commonPasswords[strings.ToLower(password)]; common {
			errs = append(errs, ValidationError{
				Code:    "common_password",
				Message: "This password is too common. Please choose a more secure password.",
			})
		}
	}

	if containsUserAttribute(password, userAttributes) {
		errs = append(errs, ValidationError{
			Code:    "too_similar",
			Message: "Password is too similar to your personal information.",
		})
	}

	if len(errs) > 0 {
		return &PolicyError{Errors: errs}
	}
	return nil
}

// containsUserAttribute checks the password against each attribute and, for
// email addresses, the local part on its own.
func containsUserAttribute(password string, attributes []string) bool {
	pw := strings.ToLower(password)

	for _, attr := range attributes {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if len(attr) < 4 {
			continue
		}
		if strings.Contains(pw, attr) {
			return true
		}
		if local, _, ok := strings.Cut(attr, "@"); ok && len(local) >= 4 && strings.Contains(pw, local) {
			return true
		}
	}

	return false
}
