// Package validation validates configuration structs and request input.
//
// Struct tag validation uses go-playground/validator with field names taken
// from mapstructure or json tags, so errors read like the config keys:
//
//	type Config struct {
//	    Workers int `mapstructure:"workers" validate:"min=1,max=64"`
//	}
//	err := validation.Validate(cfg) // "workers: must be at least 1"
//
// Programmatic checks collect field errors into one AppError:
//
//	v := validation.New()
//	v.Required("video", header.Filename).Custom(header.Size > 0, "video", "must not be empty")
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
