package sample

import "github.com/itohio/godaq/pkg/config"

// Calibrate turns accumulated raw sums into calibrated channel averages.
// Formula: avg = (sum / count) * slope + offset.
//
// A channel that never produced a sample reports exactly 0, not its
// offset.
func Calibrate(acc *Accumulator, channels []config.Channel) []float64 {
	out := make([]float64, len(channels))
	for i, ch := range channels {
		if acc.Counts[i] > 0 {
			out[i] = acc.Sums[i]/float64(acc.Counts[i])*ch.Slope + ch.Offset
		}
	}
	return out
}
