package utils

import "time"

// PositiveOr returns d when it is positive, otherwise def.
func PositiveOr(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}

// ClampDuration clamps d between min and max.
func ClampDuration(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}
