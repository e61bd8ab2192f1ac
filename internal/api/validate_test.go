package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/shophub-api/internal/types"
)

type testScore struct {
	Value float64 `json:"value" validate:"gte=0,lte=5" message:"Value must be between 0 and 5"`
}

type testRequest struct {
	Email    string     `json:"email" validate:"required,email" message:"Please enter a valid email"`
	Name     string     `json:"name" validate:"min=3"`
	Category string     `json:"category" validate:"required,product_category"`
	Score    *testScore `json:"score"`
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := Validate(&testRequest{Email: "a@b.co", Name: "abc", Category: "men's clothing"})
		assert.NoError(t, err)
	})

	t.Run("fields in declaration order with custom and default messages", func(t *testing.T) {
		err := Validate(&testRequest{Email: "nope", Name: "ab", Category: "toys"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrValidation))

		var verr *types.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []types.FieldError{
			{Field: "email", Message: "Please enter a valid email"},
			{Field: "name", Message: "The field 'name' must be at least 3."},
			{Field: "category", Message: "The field 'category' must be one of: electronics, jewelery, men's clothing, women's clothing."},
		}, verr.Fields)
	})

	t.Run("nested field uses json path", func(t *testing.T) {
		err := Validate(&testRequest{Email: "a@b.co", Name: "abc", Category: "electronics", Score: &testScore{Value: 7}})
		var verr *types.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, types.FieldError{Field: "score.value", Message: "Value must be between 0 and 5"}, verr.Fields[0])
	})
}

func TestIsProductCategory(t *testing.T) {
	assert.True(t, IsProductCategory("jewelery"))
	assert.True(t, IsProductCategory("women's clothing"))
	assert.False(t, IsProductCategory("Electronics"))
	assert.False(t, IsProductCategory(""))
}

type secretRequest struct {
	Secret string `json:"secret" validate:"min=2,max_bytes=4" message:"Secret is too short" message_max_bytes:"Secret is too long"`
	Note   string `json:"note" validate:"max_bytes=3"`
}

func TestValidate_MaxBytes(t *testing.T) {
	tests := []struct {
		name string
		req  secretRequest
		want []types.FieldError
	}{
		{name: "within limits", req: secretRequest{Secret: "abcd", Note: "abc"}},
		{name: "counts bytes not runes", req: secretRequest{Secret: "ééé"}, want: []types.FieldError{
			{Field: "secret", Message: "Secret is too long"},
		}},
		{name: "rule message over field message", req: secretRequest{Secret: "a"}, want: []types.FieldError{
			{Field: "secret", Message: "Secret is too short"},
		}},
		{name: "default message", req: secretRequest{Secret: "ab", Note: "abcd"}, want: []types.FieldError{
			{Field: "note", Message: "The field 'note' must be at most 3 bytes."},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.req)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var verr *types.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Fields)
		})
	}
}
