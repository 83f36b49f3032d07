package trade

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderNumber_Format(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	number := NewOrderNumber(now)

	assert.Regexp(t, regexp.MustCompile(`^CMD-20260309-[0-9A-F]{12}$`), number)
}

func TestNewOrderNumber_Unique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{}, 5000)
	for i := 0; i < 5000; i++ {
		n := NewOrderNumber(now)
		_, dup := seen[n]
		assert.False(t, dup, "duplicate order number %s", n)
		seen[n] = struct{}{}
	}
}
