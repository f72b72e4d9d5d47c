package core

// validation.go turns a RawRecord into a ValidatedUser.
//
// Fields are visited in declaration order. For each field, presence is checked
// first, then the field rule. The first failure is returned and no partial
// result is ever produced.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Age bounds, inclusive.
const (
	MinAge = 0
	MaxAge = 120
)

// MinPhoneDigits is the fewest digits a phone number may have after stripping.
const MinPhoneDigits = 10

// emailRegex accepts <non-space>+@<non-space>+.<non-space>+
// RE2's \s leaves out the vertical tab, so it is listed explicitly.
var emailRegex = regexp.MustCompile(`^[^\s\v]+@[^\s\v]+\.[^\s\v]+$`)

// ValidationKind tags why a field was rejected.
type ValidationKind int

const (
	KindInvalid ValidationKind = iota // value present but breaks the field rule
	KindMissing                       // field absent from the record
)

// ValidationError reports the first field rule a record violated.
type ValidationError struct {
	Field   Field          // Field that failed
	Value   string         // Raw value, empty when missing
	Message string         // Human-readable reason
	Kind    ValidationKind // Missing or invalid
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missing(f Field) *ValidationError {
	return &ValidationError{
		Field:   f,
		Message: fmt.Sprintf("required field missing: %s", f),
		Kind:    KindMissing,
	}
}

func invalid(f Field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   f,
		Value:   value,
		Message: message,
		Kind:    KindInvalid,
	}
}

// Validate checks and normalizes a raw record.
// It returns a *ValidationError for the first violated rule.
func Validate(raw RawRecord) (ValidatedUser, error) {
	var u ValidatedUser

	for _, spec := range UserFields {
		value, ok := raw[spec.Field]
		if !ok {
			return ValidatedUser{}, missing(spec.Field)
		}
		if err := applyRule(&u, spec.Field, value); err != nil {
			return ValidatedUser{}, err
		}
	}

	return u, nil
}

func applyRule(u *ValidatedUser, f Field, value string) *ValidationError {
	switch f {
	case FieldName:
		name := strings.TrimSpace(value)
		if name == "" {
			return invalid(f, value, "Invalid name")
		}
		u.name = name

	case FieldAge:
		age, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || age < MinAge || age > MaxAge {
			return invalid(f, value, "Invalid age")
		}
		u.age = age

	case FieldEmail:
		email := NormalizeEmail(value)
		if !emailRegex.MatchString(email) {
			return invalid(f, value, "Invalid email")
		}
		u.email = email

	case FieldPhone:
		phone := DigitsOnly(value)
		if len(phone) < MinPhoneDigits {
			return invalid(f, value, "Invalid phone")
		}
		u.phone = phone

	case FieldGender:
		u.gender = NormalizeGender(value)

	case FieldCountry:
		country := strings.TrimSpace(value)
		if country == "" {
			return invalid(f, value, "Invalid country")
		}
		u.country = Capitalize(country)

	case FieldDOB:
		u.dob = value
	}

	return nil
}
