// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"exitprotocol/internal/models"
	"exitprotocol/internal/tracer"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("claim_source", validateClaimSource)
		_ = v.RegisterValidation("account_type", validateAccountType)
		_ = v.RegisterValidation("ownership", validateOwnership)
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("iso_date", validateISODate)
	}
}

func validateClaimSource(fl validator.FieldLevel) bool {
	return models.IsValidSourceType(models.SourceType(fl.Field().String()))
}

func validateAccountType(fl validator.FieldLevel) bool {
	return models.IsValidAccountType(models.AccountType(fl.Field().String()))
}

func validateOwnership(fl validator.FieldLevel) bool {
	return models.IsValidOwnership(models.Ownership(fl.Field().String()))
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.IsValidTransactionType(models.TransactionType(fl.Field().String()))
}

// validateISODate accepts YYYY-MM-DD calendar dates.
func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(tracer.DateLayout, fl.Field().String())
	return err == nil
}
