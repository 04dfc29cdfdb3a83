package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("loadId", "", Required).
		Field("customer.email", "not-an-email", Email).
		Field("rate", math.NaN(), NonNegative).
		Field("description", "ok", Required, MaxLength(2))

	assert.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)
	assert.ErrorIs(t, v.Error(), ErrValidation)
	assert.Contains(t, v.Error().Error(), "loadId")
}

func TestMaxValue(t *testing.T) {
	rule := MaxValue(9999999999.99)
	big := 1e14

	assert.Nil(t, rule("rate", 2500.0))
	assert.Nil(t, rule("rate", 9999999999.99))
	assert.Nil(t, rule("distance", (*float64)(nil)))
	assert.Nil(t, rule("rate", "not a number"))

	err := rule("rate", 99999999999999.0)
	if assert.NotNil(t, err) {
		assert.Equal(t, "must be at most 9999999999.99", err.Message)
	}
	assert.NotNil(t, rule("distance", &big))
}

func TestValidator_NoErrors(t *testing.T) {
	d := 12.5
	v := NewValidator().
		Field("loadId", "LD-9", Required, MaxLength(64)).
		Field("customer.email", "", Email).
		Field("distance", &d, NonNegative).
		Field("distance", (*float64)(nil), NonNegative)

	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
}
