// Package core provides the business logic for user record intake.
//
// # Error Codes Reference
//
// This file maps errors to user-friendly messages with codes for support
// reference. Operators can quote the code when reporting a failed intake.
//
// # Validation Errors (VAL001-VAL099)
//
// Typed *ValidationError values are mapped by field, not by pattern:
//
//	VAL001 - Missing field: A required field was not supplied
//	VAL002 - Invalid name: Name is empty
//	VAL003 - Invalid age: Age is not a whole number between 0 and 120
//	VAL004 - Invalid email: Email is not in name@domain.tld form
//	VAL005 - Invalid phone: Phone has fewer than 10 digits
//	VAL006 - Invalid country: Country is empty
//
// # Database Errors (DB001-DB099)
//
// Matched case-insensitively against the error text:
//
//	DB004 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused", "no such host"
//	DB005 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset", "conn closed"
//	DB006 - Timeout: Operation timed out
//	        Patterns: "timeout", "deadline exceeded"
//	DB008 - Value too long: A field is longer than its column allows
//	        Patterns: "value too long"
//	DB009 - Invalid date: Date of birth was rejected by the database
//	        Patterns: "type date", "date/time field value out of range"
//	DB010 - Permission denied: The database user lacks a privilege
//	        Patterns: "permission denied"
//	DB011 - Authentication failed: Database credentials were rejected
//	        Patterns: "password authentication failed"
//	DB012 - Not ready: The database connection is not open
//	        Patterns: "database connection not ready"
//
// # Intake Errors (INT001-INT099)
//
//	INT001 - System busy: Another submission is being saved
//	         Patterns: "too many concurrent submissions"
//	INT002 - Request cancelled
//	         Patterns: "context canceled"
//	INT003 - Malformed request: The submission body could not be decoded
//	         Patterns: "malformed request body"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// The first matching pattern wins, so specific patterns come first.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var validationMessages = map[Field]UserMessage{
	FieldName: {
		Message: "Name is required",
		Action:  "Enter a non-blank name",
		Code:    "VAL002",
	},
	FieldAge: {
		Message: "Age must be a whole number between 0 and 120",
		Action:  "Enter the age in years, e.g. 30",
		Code:    "VAL003",
	},
	FieldEmail: {
		Message: "Email address is not valid",
		Action:  "Use the form name@example.com",
		Code:    "VAL004",
	},
	FieldPhone: {
		Message: "Phone number needs at least 10 digits",
		Action:  "Include the area code; punctuation is ignored",
		Code:    "VAL005",
	},
	FieldCountry: {
		Message: "Country is required",
		Action:  "Enter a country name",
		Code:    "VAL006",
	},
}

var missingFieldMessage = UserMessage{
	Message: "A required field was not supplied",
	Action:  "Provide every field: name, age, email, phone, gender, country, dob",
	Code:    "VAL001",
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Intake
	// =========================================================================
	{
		pattern: "too many concurrent submissions",
		msg: UserMessage{
			Message: "Another submission is being saved",
			Action:  "Please wait a moment and try again",
			Code:    "INT001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "INT002",
		},
	},
	{
		pattern: "malformed request body",
		msg: UserMessage{
			Message: "The submission could not be read",
			Action:  "Send a JSON object or form fields with string values",
			Code:    "INT003",
		},
	},

	// =========================================================================
	// Database constraint and data errors
	// =========================================================================
	{
		pattern: "value too long",
		msg: UserMessage{
			Message: "A field is longer than the database allows",
			Action:  "Shorten the name, email or country",
			Code:    "DB008",
		},
	},
	{
		pattern: "type date",
		msg: UserMessage{
			Message: "Date of birth is not a valid date",
			Action:  "Use YYYY-MM-DD, e.g. 1994-05-01",
			Code:    "DB009",
		},
	},
	{
		pattern: "date/time field value out of range",
		msg: UserMessage{
			Message: "Date of birth is not a valid date",
			Action:  "Use YYYY-MM-DD, e.g. 1994-05-01",
			Code:    "DB009",
		},
	},

	// =========================================================================
	// Database access errors
	// =========================================================================
	{
		pattern: "password authentication failed",
		msg: UserMessage{
			Message: "Database credentials were rejected",
			Action:  "Check DB_USER and DB_PASSWORD",
			Code:    "DB011",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "The database user lacks a required privilege",
			Action:  "Grant CREATEDB or pre-create the database",
			Code:    "DB010",
		},
	},
	{
		pattern: "database connection not ready",
		msg: UserMessage{
			Message: "The database connection is not open",
			Action:  "Restart the command",
			Code:    "DB012",
		},
	},

	// =========================================================================
	// Database connection errors
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check DB_HOST and DB_PORT, then try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check DB_HOST and DB_PORT, then try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "conn closed",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// Validation errors map by field; everything else by pattern.
// Returns an empty UserMessage for nil errors.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		if verr.Kind == KindMissing {
			return missingFieldMessage
		}
		if msg, ok := validationMessages[verr.Field]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(errStr, p.pattern) {
			return p.msg
		}
	}

	return defaultMessage
}

// FormatUserError returns a single-line message suitable for terminals.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Code == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s). %s", msg.Message, msg.Code, msg.Action)
}
