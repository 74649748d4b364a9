package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber returns the display-facing number, e.g. ORD-20260115-7F3A2C.
// Uniqueness comes from the uuid suffix; the date part is for humans.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
