package signal

import (
	"errors"
	"math"
)

// MinZScoreSamples is the smallest finite history a z-score is computed on.
const MinZScoreSamples = 20

var (
	// ErrInsufficientSamples means the statistic is not available yet.
	ErrInsufficientSamples = errors.New("insufficient samples")
	// ErrZeroVariance means the window is flat and carries no z-score.
	ErrZeroVariance = errors.New("zero variance")
	// ErrInvalidLookback rejects non-positive lookbacks.
	ErrInvalidLookback = errors.New("lookback must be positive")
)

// ZScore scores the last sample of the window against the window's own mean and
// unbiased standard deviation. Non-finite entries are ignored.
func ZScore(samples []float64) (float64, error) {
	values := finite(samples)
	n := len(values)
	if n < MinZScoreSamples {
		return 0, ErrInsufficientSamples
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(n-1))
	if std == 0 {
		return 0, ErrZeroVariance
	}
	return (values[n-1] - mean) / std, nil
}

func finite(samples []float64) []float64 {
	out := make([]float64, 0, len(samples))
	for _, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}
