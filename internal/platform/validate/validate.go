// Package validate holds the field checks shared by the sign-up and application forms.
package validate

import "github.com/go-playground/validator/v10"

var v = validator.New()

// Email reports whether s is a syntactically valid email address.
func Email(s string) bool {
	return v.Var(s, "required,email") == nil
}
