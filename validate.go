package drip

import "fmt"

// Validate checks universal constraints on Request.
// Transport implementations may apply additional transport-specific validation.
func (r Request) Validate() error {
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	if err := r.Messages.Validate(); err != nil {
		return err
	}
	// A turn answers the most recent user message.
	last, ok := r.Messages.Last()
	if !ok {
		return fmt.Errorf("at least one message is required: %w", ErrValidation)
	}
	if last.Role != RoleUser {
		return fmt.Errorf("last message must be from %s, got %s: %w", RoleUser, last.Role, ErrValidation)
	}
	return nil
}

// Validate checks that every message has a known role.
func (c Conversation) Validate() error {
	for i, msg := range c {
		if !msg.Role.Valid() {
			return fmt.Errorf("message %d: unknown role %q: %w", i, msg.Role, ErrValidation)
		}
	}
	return nil
}
