// Package validation checks configuration structs against their struct tags.
//
// It wraps the go-playground validator and converts its errors into the
// project's AppError shape, with one entry per failing field:
//
//	type Settings struct {
//	    Model   string `validate:"required"`
//	    Workers int    `validate:"min=1,max=32"`
//	}
//	err := validation.Validate(settings)
package validation
