package bench

import (
	"math"
	"time"
)

// Stats summarises the timed trials of one case.
type Stats struct {
	Trials int           `json:"trials"`
	Min    time.Duration `json:"min_ns"`
	Max    time.Duration `json:"max_ns"`
	Mean   time.Duration `json:"mean_ns"`
	StdDev time.Duration `json:"stddev_ns"`
}

// Summarize computes min, max, mean and the population standard deviation of samples.
func Summarize(samples []time.Duration) Stats {
	if len(samples) == 0 {
		return Stats{}
	}
	s := Stats{Trials: len(samples), Min: samples[0], Max: samples[0]}

	var total time.Duration
	for _, d := range samples {
		total += d
		s.Min = min(s.Min, d)
		s.Max = max(s.Max, d)
	}
	mean := float64(total) / float64(len(samples))

	var sq float64
	for _, d := range samples {
		diff := float64(d) - mean
		sq += diff * diff
	}
	s.Mean = time.Duration(math.Round(mean))
	s.StdDev = time.Duration(math.Round(math.Sqrt(sq / float64(len(samples)))))
	return s
}
