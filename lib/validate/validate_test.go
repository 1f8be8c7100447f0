package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string  `json:"name" validate:"required"`
	Email string  `json:"email" validate:"omitempty,email"`
	Rate  float64 `json:"vat_rate" validate:"gte=0,lt=1"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(&sample{Name: "UAB Medis", Rate: 0.21}))

	err := Struct(&sample{Email: "nope", Rate: 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample.name required")
	assert.Contains(t, err.Error(), "sample.email email")
	assert.Contains(t, err.Error(), "sample.vat_rate lt")

	assert.EqualError(t, Struct(nil), "is nil")
	assert.EqualError(t, Struct("text"), "not a struct")
}
