// Package validation checks contact form input before it is submitted.
//
// Every function here is pure: invalid input is reported as data (a bool or
// an Errors map), never as a Go error or a panic.
//
//	result := validation.ValidateForm(validation.FormData{
//	    FirstName: "Ada",
//	    LastName:  "Lovelace",
//	    Email:     "ada@example.com",
//	    Phone:     "+44 (20) 7946-0958",
//	})
//	if !result.IsValid {
//	    for field, msg := range result.Errors {
//	        fmt.Printf("%s: %s\n", field.Label(), msg)
//	    }
//	}
package validation
