package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderNumberPrefix starts every customer-facing order number
const OrderNumberPrefix = "CMD"

// NewOrderNumber returns CMD-YYYYMMDD-XXXXXXXXXXXX. The suffix is the first
// 12 hex digits of a v4 UUID (48 random bits); the orders table also carries
// a unique index on the number.
func NewOrderNumber(now time.Time) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return OrderNumberPrefix + "-" + now.Format("20060102") + "-" + strings.ToUpper(raw[:12])
}
