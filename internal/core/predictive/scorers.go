package predictive

import (
	"fmt"
	"math"
	"time"

	"github.com/verdant-ops/facility-backend-go/internal/core/sensors"
)

// scoreAnomaly measures how far the newest sample sits from the sample mean,
// in standard deviations, squashed into [0, 1). Too few samples score zero.
func scoreAnomaly(m Model, samples []sensors.Reading, _ time.Time) map[string]float64 {
	name := fmt.Sprintf("%s_anomaly", m.TargetVariable)
	if len(samples) < 2 {
		return map[string]float64{name: 0}
	}

	mean, std := meanStd(samples)
	if std == 0 {
		return map[string]float64{name: 0}
	}
	latest := samples[len(samples)-1].Value
	z := math.Abs(latest-mean) / std
	// z of ~3 maps to roughly 0.8.
	return map[string]float64{name: 1 - math.Exp(-z/1.85)}
}

// scoreFailure treats declining reading confidence as an early equipment
// failure signal: the score rises as average confidence over the sample set
// falls below the newest samples' confidence.
func scoreFailure(_ Model, samples []sensors.Reading, _ time.Time) map[string]float64 {
	if len(samples) == 0 {
		return map[string]float64{"equipment_failure": 0}
	}

	var sum float64
	invalid := 0
	for _, s := range samples {
		sum += s.Confidence
		if !s.Valid {
			invalid++
		}
	}
	avgConfidence := sum / float64(len(samples))
	invalidShare := float64(invalid) / float64(len(samples))

	score := (1-avgConfidence)*0.6 + invalidShare*0.4
	if score > 1 {
		score = 1
	}
	return map[string]float64{"equipment_failure": score}
}

func meanStd(samples []sensors.Reading) (mean, std float64) {
	for _, s := range samples {
		mean += s.Value
	}
	mean /= float64(len(samples))

	var variance float64
	for _, s := range samples {
		d := s.Value - mean
		variance += d * d
	}
	variance /= float64(len(samples))
	return mean, math.Sqrt(variance)
}
