package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
)

var validate *validator.Validate

var uuidPattern = regexp.MustCompile("^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$")

func init() {
	validate = validator.New()
	RegisterCustomValidations()
}

// ValidateStruct validates a struct using validation tags
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	return nil
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(uuid string) bool {
	return uuidPattern.MatchString(uuid)
}

// IsValidPlate checks whether a plate still has characters after
// normalization
func IsValidPlate(plate string) bool {
	return model.NormalizePlate(plate) != ""
}

// RegisterCustomValidations registers custom validation functions
func RegisterCustomValidations() {
	validate.RegisterValidation("plate", func(fl validator.FieldLevel) bool {
		return IsValidPlate(fl.Field().String())
	})

	validate.RegisterValidation("fuel_type", func(fl validator.FieldLevel) bool {
		return model.FuelTypeFromString(fl.Field().String()) != ""
	})
}
