package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitValidators(t *testing.T) {
	validate, translator := NewValidator()

	type payload struct {
		Title string `json:"title" validate:"required,notblank"`
		Slug  string `json:"slug" validate:"omitempty,slug"`
	}

	tests := []struct {
		name     string
		data     payload
		wantErrs map[string]string
	}{
		{name: "valid", data: payload{Title: "Algebra", Slug: "algebra-1"}},
		{name: "missing title", data: payload{}, wantErrs: map[string]string{"title": "this field is required"}},
		{name: "blank title", data: payload{Title: "   "}, wantErrs: map[string]string{"title": "this field cannot be blank"}},
		{
			name: "bad slug", data: payload{Title: "Algebra", Slug: "Algebra 1"},
			wantErrs: map[string]string{"slug": "only lowercase letters, digits and dashes are allowed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.data)
			if tt.wantErrs == nil {
				assert.NoError(t, err)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "want validator.ValidationErrors, got %T", err)
			got := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.wantErrs, got)
		})
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Hello", CleanString("  Hello \n"))
	assert.Equal(t, "hello", CleanString("  HeLLo ", true))
}

func TestValidationError(t *testing.T) {
	err := NewFieldError("id", "this field is required")
	assert.True(t, IsValidation(err))
	assert.EqualError(t, err, "this field is required")
	assert.False(t, IsValidation(ErrNotFound))
}
