package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stockInput struct {
	Name    string `json:"name" validate:"required"`
	Minimum int    `json:"minimum_stock" validate:"gte=0"`
	Maximum int    `json:"maximum_stock" validate:"gtefield=Minimum"`
	Email   string `json:"email" validate:"omitempty,email"`
}

func TestValidateUsesJSONFieldNames(t *testing.T) {
	err := Validate(stockInput{Minimum: 5, Maximum: 2, Email: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var fieldErrs ValidationErrors
	require.True(t, errors.As(err, &fieldErrs))
	fields := fieldErrs.Fields()
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "is inconsistent with Minimum", fields["maximum_stock"])
	assert.Equal(t, "must be a valid email address", fields["email"])
}

func TestValidatePasses(t *testing.T) {
	assert.NoError(t, Validate(stockInput{Name: "Eggs", Minimum: 2, Maximum: 2}))
}

func TestUserSafeMessage(t *testing.T) {
	assert.Equal(t, "", UserSafeMessage(nil))
	assert.Equal(t, "quantity: must not be negative", UserSafeMessage(NewValidationError("quantity", "must not be negative")))
	assert.Equal(t, "The requested data was not found", UserSafeMessage(fmt.Errorf("menu: %w", ErrNotFound)))
	assert.Equal(t, "The request has already been processed", UserSafeMessage(ErrIdempotencyConflict))
	assert.Equal(t, "Something went wrong, please try again", UserSafeMessage(errors.New("dial tcp: refused")))
}

func TestValidationErrorWithoutField(t *testing.T) {
	err := ValidationErrors{NewValidationError("", "cart is empty")}
	assert.Equal(t, "cart is empty", err.Error())
	assert.Equal(t, map[string]string{"general": "cart is empty"}, err.Fields())
}
