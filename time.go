package identity

import "time"

// IsWithinCooldown reports whether now still falls inside the cooldown
// window counted from base.
func IsWithinCooldown(base time.Time, window time.Duration, now time.Time) bool {
	if base.IsZero() || window <= 0 {
		return false
	}
	return now.Before(base.Add(window))
}
