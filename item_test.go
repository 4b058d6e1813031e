package bucketcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestItemIsExpired(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	base := NewItem("k", "v")
	base.CreatedAt = t0
	base.LastAccessedAt = t0.Add(30 * time.Second)

	cases := []struct {
		name string
		item Item[string]
		now  time.Time
		want bool
	}{
		{"none never expires", base, t0.Add(100 * 365 * 24 * time.Hour), false},
		{"absolute before", base.WithAbsoluteExpiration(time.Minute), t0.Add(59 * time.Second), false},
		{"absolute at deadline", base.WithAbsoluteExpiration(time.Minute), t0.Add(time.Minute), true},
		{"absolute zero timeout", base.WithAbsoluteExpiration(0), t0, true},
		{"sliding measured from last access", base.WithSlidingExpiration(time.Minute), t0.Add(80 * time.Second), false},
		{"sliding after window", base.WithSlidingExpiration(time.Minute), t0.Add(90 * time.Second), true},
		{"sliding negative timeout", base.WithSlidingExpiration(-time.Second), t0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.item.IsExpired(tc.now))
		})
	}
}

func TestItemBuilders(t *testing.T) {
	it := NewRegionItem("k", "r", 1).WithSlidingExpiration(time.Second)
	assert.Equal(t, ExpireSliding, it.ExpirationMode)
	assert.Equal(t, "r", it.Region)

	it.ValueType = "int"
	it = it.WithValue(2).WithNoExpiration()
	assert.Equal(t, 2, it.Value)
	assert.Empty(t, it.ValueType)
	assert.Equal(t, ExpireNone, it.ExpirationMode)
	assert.Zero(t, it.ExpirationTimeout)
	assert.True(t, it.ExpiresAt().IsZero())

	assert.Equal(t, "sliding", ExpireSliding.String())
	assert.Equal(t, "unknown", ExpirationMode(9).String())
}
