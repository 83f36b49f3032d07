package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	custom := NewDomainError("NOT_FOUND", "Order not found")

	assert.True(t, errors.Is(custom, ErrNotFound))
	assert.True(t, errors.Is(fmt.Errorf("load: %w", custom), ErrNotFound))
	assert.False(t, errors.Is(custom, ErrInvalidState))
	assert.Equal(t, "Order not found", custom.Error())
}

func TestValidationError(t *testing.T) {
	v := NewValidationError()
	assert.False(t, v.HasErrors())

	v.Add("phone", "The phone number format is invalid")
	v.Add("phone", "The phone number is required")
	v.Add("shipping_city", "This city is not in our delivery area")

	assert.True(t, v.HasErrors())
	assert.Len(t, v.Fields["phone"], 2)
	assert.True(t, errors.Is(v, ErrInvalidInput))
	assert.Contains(t, v.Error(), "shipping_city")
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 500}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize)
	assert.Equal(t, 0, f.Offset())

	f = Filter{Page: 3, PageSize: 10}.Normalize()
	assert.Equal(t, 20, f.Offset())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 21, 1, 10)
	assert.Equal(t, 3, p.TotalPages)
}
