package validation

import (
	"fmt"
	"strings"
)

// Field identifies one of the four contact form fields
type Field int

const (
	FieldFirstName Field = iota
	FieldLastName
	FieldEmail
	FieldPhone
)

// Fields lists the form fields in display order
var Fields = []Field{FieldFirstName, FieldLastName, FieldEmail, FieldPhone}

// String returns the wire key used in the multipart submission
func (f Field) String() string {
	switch f {
	case FieldFirstName:
		return "first_name"
	case FieldLastName:
		return "last_name"
	case FieldEmail:
		return "email"
	case FieldPhone:
		return "phone"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// Label returns the human-readable field label
func (f Field) Label() string {
	switch f {
	case FieldFirstName:
		return "First Name"
	case FieldLastName:
		return "Last Name"
	case FieldEmail:
		return "Email"
	case FieldPhone:
		return "Phone Number"
	default:
		return f.String()
	}
}

// ParseField resolves a wire key ("first_name") or a loose spelling
// ("firstName", "first-name") to a Field
func ParseField(name string) (Field, error) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(name))
	switch key {
	case "firstname", "first":
		return FieldFirstName, nil
	case "lastname", "last":
		return FieldLastName, nil
	case "email":
		return FieldEmail, nil
	case "phone", "phonenumber":
		return FieldPhone, nil
	default:
		return 0, fmt.Errorf("unknown form field %q", name)
	}
}

// FormData holds the values typed into the contact form
type FormData struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Get returns the value of a single field
func (d FormData) Get(f Field) string {
	switch f {
	case FieldFirstName:
		return d.FirstName
	case FieldLastName:
		return d.LastName
	case FieldEmail:
		return d.Email
	case FieldPhone:
		return d.Phone
	default:
		return ""
	}
}

// Set overwrites a single field
func (d *FormData) Set(f Field, value string) {
	switch f {
	case FieldFirstName:
		d.FirstName = value
	case FieldLastName:
		d.LastName = value
	case FieldEmail:
		d.Email = value
	case FieldPhone:
		d.Phone = value
	}
}

// Errors maps a field to its error message. A missing key means the field is valid.
type Errors map[Field]string

// Has reports whether the field currently has an error
func (e Errors) Has(f Field) bool {
	_, ok := e[f]
	return ok
}

// Clone returns an independent copy
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Result is the outcome of validating a whole form
type Result struct {
	IsValid bool
	Errors  Errors
}
