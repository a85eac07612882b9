package service

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
)

// NewValidator returns a validator with the gradebook's custom tags registered.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
		return models.IsValidUnit(fl.Field().String())
	})
	return validate
}

// notFound converts a missing-row error into a typed NotFoundError and passes anything else through.
func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return grading.NotFound(entity, id)
	}
	return err
}
