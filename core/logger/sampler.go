package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratio is a packed numerator/denominator pair; zero disables sampling.
type ratio struct {
	num, den uint64
}

// ratioSampler lets num of every den events through. It is safe for concurrent use and
// may be reconfigured at runtime.
type ratioSampler struct {
	ratio   atomic.Pointer[ratio]
	counter atomic.Uint64
}

func newRatioSampler(numerator, denominator int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(numerator, denominator)
	return s
}

// Set configures the sampling ratio. Non-positive values let every event through.
func (s *ratioSampler) Set(numerator, denominator int) {
	s.counter.Store(0)
	if numerator <= 0 || denominator <= 0 {
		s.ratio.Store(nil)
		return
	}
	s.ratio.Store(&ratio{num: uint64(min(numerator, denominator)), den: uint64(denominator)})
}

// Allow reports whether the current event should pass sampling.
func (s *ratioSampler) Allow() bool {
	r := s.ratio.Load()
	if r == nil {
		return true
	}
	return (s.counter.Add(1)-1)%r.den < r.num
}

// parseRatioSpec accepts "n/d" or a bare "d" meaning 1/d. Anything else disables sampling.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0
	}
	if numStr, denStr, ok := strings.Cut(spec, "/"); ok {
		num, err1 := strconv.Atoi(strings.TrimSpace(numStr))
		den, err2 := strconv.Atoi(strings.TrimSpace(denStr))
		if err1 == nil && err2 == nil {
			return num, den
		}
		return 0, 0
	}
	if v, err := strconv.Atoi(spec); err == nil && v > 0 {
		return 1, v
	}
	return 0, 0
}
