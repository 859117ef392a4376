package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowKey_MismaVentanaMismaClave(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 5, 0, time.UTC)

	a := windowKey("ratelimit", "user-1", base, time.Minute)
	b := windowKey("ratelimit", "user-1", base.Add(50*time.Second), time.Minute)
	c := windowKey("ratelimit", "user-1", base.Add(time.Minute), time.Minute)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "ratelimit:user-1:1777629600", a)
}
