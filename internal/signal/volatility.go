package signal

import "math"

// VolatilityProxy returns the mean absolute first difference over the most recent
// lookback+1 samples. It needs at least lookback+2 finite samples.
// Only last prices are available, so this stands in for a true range and
// tends to understate intraday range.
func VolatilityProxy(prices []float64, lookback int) (float64, error) {
	if lookback <= 0 {
		return 0, ErrInvalidLookback
	}
	values := finite(prices)
	if len(values) < lookback+2 {
		return 0, ErrInsufficientSamples
	}

	tail := values[len(values)-(lookback+1):]
	sum := 0.0
	for i := 1; i < len(tail); i++ {
		sum += math.Abs(tail[i] - tail[i-1])
	}
	return sum / float64(lookback), nil
}
