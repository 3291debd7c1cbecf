package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // config key, e.g. "log.level"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log formats
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Socket == "" {
		errors = append(errors, ValidationError{
			Field:   "socket",
			Value:   c.Socket,
			Message: "must not be empty",
		})
	}

	if c.Watch && c.Playbook == "" {
		errors = append(errors, ValidationError{
			Field:   "watch",
			Value:   c.Watch,
			Message: "requires a playbook file",
		})
	}

	if c.Goalie < -1 {
		errors = append(errors, ValidationError{
			Field:   "goalie",
			Value:   c.Goalie,
			Message: "must be a robot id or -1 for no goalie",
		})
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Log.Format)) {
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Value:   c.Log.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogFormats(), ", ")),
		})
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errors = append(errors, ValidationError{
				Field:   "redis.addr",
				Value:   c.Redis.Addr,
				Message: "must be set when redis is enabled",
			})
		}
		if c.Redis.Prefix == "" {
			errors = append(errors, ValidationError{
				Field:   "redis.prefix",
				Value:   c.Redis.Prefix,
				Message: "must be set when redis is enabled",
			})
		}
	}
	if c.Redis.Buffer < 1 {
		errors = append(errors, ValidationError{
			Field:   "redis.buffer",
			Value:   c.Redis.Buffer,
			Message: "must be at least 1",
		})
	}

	if !c.Field.Valid() {
		errors = append(errors, ValidationError{
			Field:   "field",
			Value:   c.Field,
			Message: "length and width must be positive and the goal narrower than the field",
		})
	}

	return errors
}
