// Package core provides the business logic for user record intake.
//
// This package has no UI, transport or database dependencies. The CLI, the
// HTTP intake server and the tests all drive it the same way.
//
// # Validation
//
// [Validate] turns a [RawRecord] into a [ValidatedUser]. Fields are checked in
// declaration order (name, age, email, phone, gender, country, dob) and the
// first failing rule wins, so error messages are deterministic:
//
//	user, err := core.Validate(core.RawRecord{
//	    core.FieldName:  " Alice ",
//	    core.FieldAge:   "30",
//	    ...
//	})
//	var verr *core.ValidationError
//	if errors.As(err, &verr) {
//	    // re-prompt or reject the record
//	}
//
// Numeric and format fields (age, email, phone) are strict. Gender bucketing
// and country capitalization are forgiving and lossy.
//
// # Error Handling
//
// Two error kinds reach the entry point:
//
//   - [ValidationError]: the raw input broke a field rule. Nothing was touched.
//   - [PersistenceError]: connecting, provisioning or inserting failed at a
//     given [Stage]. Schema created before the failure is left in place.
//
// [MapError] converts either kind (or any other error) into a [UserMessage]
// with a support code. See error_messages.go for the code reference.
package core
