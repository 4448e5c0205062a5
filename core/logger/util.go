package logger

import "time"

// Took returns rounded duration since start for compact logging.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds duration to the nearest millisecond for consistent logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Short keeps the first n bytes of an opaque token such as a content hash.
func Short(token string, n int) string {
	if n <= 0 || len(token) <= n {
		return token
	}
	return token[:n]
}
