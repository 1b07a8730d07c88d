package models

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the automation against its struct tags before it is
// persisted or scheduled.
func (a *Automation) Validate() error {
	return validate.Struct(a)
}
