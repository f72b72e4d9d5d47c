package core

import (
	"encoding/json"
	"strings"
)

// Field names a single input field of a user record.
type Field string

const (
	FieldName    Field = "name"
	FieldAge     Field = "age"
	FieldEmail   Field = "email"
	FieldPhone   Field = "phone"
	FieldGender  Field = "gender"
	FieldCountry Field = "country"
	FieldDOB     Field = "dob"
)

// FieldSpec describes one field of the users table.
type FieldSpec struct {
	Field    Field  // Input field name
	DBColumn string // Column in the users table
	Label    string // Prompt shown to an operator
}

// UserFields lists the user record fields in declaration order.
// Validation, prompting and the insert column list all follow this order.
var UserFields = []FieldSpec{
	{Field: FieldName, DBColumn: "name", Label: "Name"},
	{Field: FieldAge, DBColumn: "age", Label: "Age"},
	{Field: FieldEmail, DBColumn: "email", Label: "Email"},
	{Field: FieldPhone, DBColumn: "phone", Label: "Phone"},
	{Field: FieldGender, DBColumn: "gender", Label: "Gender"},
	{Field: FieldCountry, DBColumn: "country", Label: "Country"},
	{Field: FieldDOB, DBColumn: "dob", Label: "Date of Birth (YYYY-MM-DD)"},
}

// Fields returns the field names in declaration order.
func Fields() []Field {
	out := make([]Field, len(UserFields))
	for i, spec := range UserFields {
		out[i] = spec.Field
	}
	return out
}

// LookupField resolves a field by name, ignoring case.
func LookupField(name string) (FieldSpec, bool) {
	for _, spec := range UserFields {
		if strings.EqualFold(string(spec.Field), strings.TrimSpace(name)) {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// RawRecord maps field names to unvalidated input strings.
// A field that was never supplied is absent; that differs from a blank value.
type RawRecord map[Field]string

// Gender is the closed set of normalized gender values.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// ValidatedUser is a normalized, rule-checked record ready for persistence.
// It is only constructed by Validate and cannot be mutated afterwards.
type ValidatedUser struct {
	name    string
	age     int
	email   string
	phone   string
	gender  Gender
	country string
	dob     string
}

func (u ValidatedUser) Name() string    { return u.name }
func (u ValidatedUser) Age() int        { return u.age }
func (u ValidatedUser) Email() string   { return u.email }
func (u ValidatedUser) Phone() string   { return u.phone }
func (u ValidatedUser) Gender() Gender  { return u.gender }
func (u ValidatedUser) Country() string { return u.country }

// DOB returns the date of birth exactly as it was supplied.
func (u ValidatedUser) DOB() string { return u.dob }

// InsertArgs returns the column values in UserFields order.
func (u ValidatedUser) InsertArgs() []any {
	return []any{u.name, u.age, u.email, u.phone, string(u.gender), u.country, u.dob}
}

type validatedUserJSON struct {
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Gender  Gender `json:"gender"`
	Country string `json:"country"`
	DOB     string `json:"dob"`
}

// MarshalJSON encodes the user for API responses.
func (u ValidatedUser) MarshalJSON() ([]byte, error) {
	return json.Marshal(validatedUserJSON{
		Name:    u.name,
		Age:     u.age,
		Email:   u.email,
		Phone:   u.phone,
		Gender:  u.gender,
		Country: u.country,
		DOB:     u.dob,
	})
}
