package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinNameLength is the minimum trimmed length of a first or last name
	MinNameLength = 2

	// MinPhoneDigits and MaxPhoneDigits bound the digit count of a phone number
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
)

// Messages shown next to invalid fields
const (
	MsgFirstNameTooShort = "First name must be at least 2 characters"
	MsgLastNameTooShort  = "Last name must be at least 2 characters"
	MsgEmailRequired     = "Email is required"
	MsgEmailInvalid      = "Email format is invalid"
	MsgPhoneRequired     = "Phone number is required"
	MsgPhoneInvalid      = "Phone number must be 10-15 digits"
)

// emailPattern accepts local@domain.tld with an alphabetic TLD of 2+ letters
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@(?:[A-Za-z0-9\-]+\.)+[A-Za-z]{2,}$`)

// ValidateName reports whether a first or last name is long enough.
func ValidateName(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= MinNameLength
}

// ValidateEmail reports whether s is a plausible email address.
func ValidateEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return emailPattern.MatchString(s)
}

// ValidatePhone reports whether s holds 10-15 digits once separators
// (whitespace, hyphens, parentheses and plus signs) are removed.
func ValidatePhone(s string) bool {
	digits := NormalizePhone(s)
	if len(digits) < MinPhoneDigits || len(digits) > MaxPhoneDigits {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// NormalizePhone strips the separators ValidatePhone ignores
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		switch r {
		case '-', '(', ')', '+':
			return -1
		}
		return r
	}, s)
}

// ValidateField returns the error message for a single field, or "" when valid.
func ValidateField(f Field, value string) string {
	switch f {
	case FieldFirstName:
		if !ValidateName(value) {
			return MsgFirstNameTooShort
		}
	case FieldLastName:
		if !ValidateName(value) {
			return MsgLastNameTooShort
		}
	case FieldEmail:
		if strings.TrimSpace(value) == "" {
			return MsgEmailRequired
		}
		if !ValidateEmail(value) {
			return MsgEmailInvalid
		}
	case FieldPhone:
		if strings.TrimSpace(value) == "" {
			return MsgPhoneRequired
		}
		if !ValidatePhone(value) {
			return MsgPhoneInvalid
		}
	}
	return ""
}

// ValidateForm runs every field check. IsValid is true iff Errors is empty.
func ValidateForm(data FormData) Result {
	errs := make(Errors)
	for _, f := range Fields {
		if msg := ValidateField(f, data.Get(f)); msg != "" {
			errs[f] = msg
		}
	}
	return Result{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}
