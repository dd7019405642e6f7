package handlers

import (
	"github.com/go-playground/validator/v10"

	"example.com/scaffold/services/platform/domain"
)

var validate = validator.New()

// validateCommand turns validator failures into domain validation
// rejections so transports map them like any other rejected command
func validateCommand(aggregateID string, cmd interface{}) error {
	if err := validate.Struct(cmd); err != nil {
		return domain.Reject(domain.RejectionValidation, aggregateID, "invalid command: %s", err.Error())
	}
	return nil
}
