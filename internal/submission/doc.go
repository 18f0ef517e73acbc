// Package submission implements the contact form controller.
//
// A Controller holds the four form fields, their validation errors, the
// selected image and an isSubmitting flag. Submit runs local validation
// first and never touches the network for an invalid form or a missing
// image. A successful submission resets the form; a failed one keeps it so
// the user can correct it or retry.
package submission
