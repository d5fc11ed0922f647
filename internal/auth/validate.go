package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nkarlsen/payflow/internal/apperror"
)

// Validation rules shared with the client package. The SPA runs the same
// checks before any network call; the server re-runs them on every request
// because client input is never trusted.
//
// The password rule is a single combined check, not independent predicates:
// a password containing any character outside the allowed set fails even if
// all four required classes are present elsewhere in the string.
var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]{2,}$`)

	// passwordCharset is the full allowed alphabet: letters, digits, and the
	// fixed symbol set. Anything else disqualifies the whole password.
	passwordCharset = regexp.MustCompile(`^[A-Za-z0-9@$!%*?&]+$`)
)

const (
	passwordMinLen  = 10
	passwordSymbols = "@$!%*?&"
)

// ValidationResult aggregates field-level failures in check order.
type ValidationResult struct {
	IsValid bool
	Errors  []apperror.FieldError
}

// ValidateEmail checks that the email is present and shaped like
// local@domain.tld. Returns nil when valid.
func ValidateEmail(email string) *apperror.FieldError {
	if email == "" {
		return &apperror.FieldError{Field: "email", Message: "Email is required"}
	}
	if !emailPattern.MatchString(email) {
		return &apperror.FieldError{Field: "email", Message: "Please enter a valid email address"}
	}
	return nil
}

// ValidatePassword checks the password strength rule. A password shorter
// than the minimum reports the length error only, never the classes error,
// even when every character class is already present.
func ValidatePassword(password string) *apperror.FieldError {
	if password == "" {
		return &apperror.FieldError{Field: "password", Message: "Password is required"}
	}
	// Length is measured in characters, not bytes, so a short multibyte
	// password still reports the length error.
	if utf8.RuneCountInString(password) < passwordMinLen {
		return &apperror.FieldError{
			Field:   "password",
			Message: "Password must be at least 10 characters long",
		}
	}
	if !passwordMeetsClasses(password) {
		return &apperror.FieldError{
			Field:   "password",
			Message: "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character",
		}
	}
	return nil
}

// passwordMeetsClasses reports whether the password consists solely of
// allowed characters and contains at least one of each required class.
func passwordMeetsClasses(password string) bool {
	if !passwordCharset.MatchString(password) {
		return false
	}
	return strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") &&
		strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") &&
		strings.ContainsAny(password, "0123456789") &&
		strings.ContainsAny(password, passwordSymbols)
}

// ValidateName checks that the name is present, at least two characters,
// and contains only letters and whitespace.
func ValidateName(name string) *apperror.FieldError {
	if name == "" {
		return &apperror.FieldError{Field: "name", Message: "Name is required"}
	}
	if !namePattern.MatchString(name) {
		return &apperror.FieldError{
			Field:   "name",
			Message: "Name must contain only letters and spaces, and be at least 2 characters long",
		}
	}
	return nil
}

// ValidateLogin collects every failing field for a login attempt, in the
// order email then password. Login only checks shape: the strength rule
// applies when a password is created, not when one is compared, so accounts
// created under an older policy can still sign in.
func ValidateLogin(email, password string) ValidationResult {
	var errs []apperror.FieldError

	if e := ValidateEmail(email); e != nil {
		errs = append(errs, *e)
	}
	if password == "" {
		errs = append(errs, apperror.FieldError{Field: "password", Message: "Password is required"})
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateRegister collects every failing field for a registration attempt,
// in the order email, password, name.
func ValidateRegister(email, password, name string) ValidationResult {
	var errs []apperror.FieldError

	if e := ValidateEmail(email); e != nil {
		errs = append(errs, *e)
	}
	if e := ValidatePassword(password); e != nil {
		errs = append(errs, *e)
	}
	if e := ValidateName(name); e != nil {
		errs = append(errs, *e)
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
