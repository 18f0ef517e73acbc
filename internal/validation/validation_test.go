package validation

import (
	"strings"
	"testing"
)

// TestValidateName tests the trimmed-length rule for names
func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"Invalid: empty", "", false},
		{"Invalid: single char", "A", false},
		{"Invalid: single char padded", "  A  ", false},
		{"Invalid: whitespace only", "     ", false},
		{"Valid: two chars", "Al", true},
		{"Valid: two chars padded", " Al ", true},
		{"Valid: full name", "Margaret", true},
		{"Valid: multibyte", "Łu", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateName(tt.input); got != tt.want {
				t.Errorf("ValidateName(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestValidateName_LengthBoundary checks every short length around the threshold
func TestValidateName_LengthBoundary(t *testing.T) {
	for n := 0; n <= 5; n++ {
		s := "  " + strings.Repeat("x", n) + "\t"
		want := n >= MinNameLength
		if got := ValidateName(s); got != want {
			t.Errorf("ValidateName(%d chars) = %v, want %v", n, got, want)
		}
	}
}

// TestValidateEmail tests email format validation
func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"Valid: minimal", "a@b.co", true},
		{"Valid: dotted local part", "first.last@example.com", true},
		{"Valid: plus tag", "user+tag@mail.example.org", true},
		{"Valid: percent and dash", "a%b-c@my-host.io", true},
		{"Valid: surrounding whitespace", "  a@b.co ", true},
		{"Invalid: empty", "", false},
		{"Invalid: whitespace only", "   ", false},
		{"Invalid: no at sign", "no-at-sign", false},
		{"Invalid: no tld", "a@b", false},
		{"Invalid: one-letter tld", "a@b.c", false},
		{"Invalid: numeric tld", "a@b.12", false},
		{"Invalid: empty label", "a@.com", false},
		{"Invalid: double at", "a@@b.co", false},
		{"Invalid: inner space", "a b@c.co", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateEmail(tt.input); got != tt.want {
				t.Errorf("ValidateEmail(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestValidatePhone tests digit counting after separators are stripped
func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"Valid: 10 digits", "0123456789", true},
		{"Valid: 15 digits", "123456789012345", true},
		{"Valid: formatted US", "(555) 123-4567", true},
		{"Valid: international", "+44 (20) 7946-0958", true},
		{"Valid: tabs and spaces", "012\t345 6789", true},
		{"Invalid: empty", "", false},
		{"Invalid: 9 digits", "123456789", false},
		{"Invalid: 16 digits", "1234567890123456", false},
		{"Invalid: letters", "12345abcde", false},
		{"Invalid: dots are not separators", "555.123.4567", false},
		{"Invalid: non-ASCII digits", "١٢٣٤٥٦٧٨٩٠", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePhone(tt.input); got != tt.want {
				t.Errorf("ValidatePhone(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestValidatePhone_DigitCount sweeps lengths 8 to 17 with separators mixed in
func TestValidatePhone_DigitCount(t *testing.T) {
	for n := 8; n <= 17; n++ {
		digits := strings.Repeat("7", n)
		formatted := "+(" + digits[:2] + ") " + digits[2:]
		want := n >= MinPhoneDigits && n <= MaxPhoneDigits

		if got := ValidatePhone(formatted); got != want {
			t.Errorf("ValidatePhone(%d digits, %q) = %v, want %v", n, formatted, got, want)
		}
	}
}

// TestValidateField checks the distinct messages per failure kind
func TestValidateField(t *testing.T) {
	tests := []struct {
		field Field
		value string
		want  string
	}{
		{FieldFirstName, "A", MsgFirstNameTooShort},
		{FieldLastName, "", MsgLastNameTooShort},
		{FieldEmail, "  ", MsgEmailRequired},
		{FieldEmail, "nope", MsgEmailInvalid},
		{FieldPhone, "", MsgPhoneRequired},
		{FieldPhone, "12345", MsgPhoneInvalid},
		{FieldFirstName, "Ada", ""},
		{FieldEmail, "ada@example.com", ""},
		{FieldPhone, "0123456789", ""},
	}

	for _, tt := range tests {
		t.Run(tt.field.String()+"/"+tt.value, func(t *testing.T) {
			if got := ValidateField(tt.field, tt.value); got != tt.want {
				t.Errorf("ValidateField(%v, %q) = %q, want %q", tt.field, tt.value, got, tt.want)
			}
		})
	}
}

// TestValidateForm tests whole-form validation
func TestValidateForm(t *testing.T) {
	valid := FormData{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "0123456789",
	}

	tests := []struct {
		name       string
		mutate     func(*FormData)
		wantFields []Field
	}{
		{"Valid: all fields", func(*FormData) {}, nil},
		{"Invalid: first name", func(d *FormData) { d.FirstName = "A" }, []Field{FieldFirstName}},
		{"Invalid: last name", func(d *FormData) { d.LastName = " " }, []Field{FieldLastName}},
		{"Invalid: email", func(d *FormData) { d.Email = "a@b" }, []Field{FieldEmail}},
		{"Invalid: phone", func(d *FormData) { d.Phone = "123" }, []Field{FieldPhone}},
		{
			"Invalid: everything empty",
			func(d *FormData) { *d = FormData{} },
			[]Field{FieldFirstName, FieldLastName, FieldEmail, FieldPhone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := valid
			tt.mutate(&data)

			result := ValidateForm(data)

			if result.IsValid != (len(tt.wantFields) == 0) {
				t.Errorf("IsValid = %v, want %v", result.IsValid, len(tt.wantFields) == 0)
			}
			if result.IsValid && len(result.Errors) != 0 {
				t.Errorf("IsValid with %d errors", len(result.Errors))
			}
			if len(result.Errors) != len(tt.wantFields) {
				t.Fatalf("got %d errors, want %d: %v", len(result.Errors), len(tt.wantFields), result.Errors)
			}
			for _, f := range tt.wantFields {
				if !result.Errors.Has(f) {
					t.Errorf("missing error for %v", f)
				}
			}
		})
	}
}

// TestValidateForm_EmptyMessages distinguishes required from format messages
func TestValidateForm_EmptyMessages(t *testing.T) {
	result := ValidateForm(FormData{})

	if result.Errors[FieldEmail] != MsgEmailRequired {
		t.Errorf("email error = %q, want %q", result.Errors[FieldEmail], MsgEmailRequired)
	}
	if result.Errors[FieldPhone] != MsgPhoneRequired {
		t.Errorf("phone error = %q, want %q", result.Errors[FieldPhone], MsgPhoneRequired)
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		input   string
		want    Field
		wantErr bool
	}{
		{"first_name", FieldFirstName, false},
		{"firstName", FieldFirstName, false},
		{"last-name", FieldLastName, false},
		{"EMAIL", FieldEmail, false},
		{"phone", FieldPhone, false},
		{"phoneNumber", FieldPhone, false},
		{"address", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseField(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseField(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseField(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormData_GetSet(t *testing.T) {
	var d FormData
	for i, f := range Fields {
		d.Set(f, f.Label())
		if got := d.Get(f); got != f.Label() {
			t.Errorf("field %d: Get() = %q, want %q", i, got, f.Label())
		}
	}
	if d.Email != "Email" {
		t.Errorf("Email = %q, want Email", d.Email)
	}
}
