// Package aggregation implements the wisdom-of-crowds engine: statistical
// combination of independent scalar estimates into a single point estimate
// with confidence and agreement scoring.
package aggregation

import (
	"math"
	"sort"

	"github.com/XiaoConstantine/evo-go/pkg/errors"
)

// Method identifies an aggregation method.
type Method string

const (
	MethodMean               Method = "mean"
	MethodConfidenceWeighted Method = "confidence_weighted"
	MethodTrimmedMean        Method = "trimmed_mean"
	MethodMedian             Method = "median"
	MethodGeometricMean      Method = "geometric_mean"
	MethodHuber              Method = "huber"
)

// Estimate is one agent's scalar judgment with an optional self-reported
// confidence in [0, 1]. A nil confidence counts as full confidence.
type Estimate struct {
	AgentID    string   `json:"agent_id"`
	Value      float64  `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
}

func (e Estimate) confidence() float64 {
	if e.Confidence == nil {
		return 1.0
	}
	return *e.Confidence
}

// Config contains configuration options for the aggregation engine.
type Config struct {
	Method Method `json:"method"` // Default: mean

	// TrimFraction is the fraction trimmed from each tail by trimmed_mean.
	TrimFraction float64 `json:"trim_fraction"` // Default: 0.1

	// HuberK is the Huber tuning constant in MAD-scaled units.
	HuberK float64 `json:"huber_k"` // Default: 1.345
}

// DefaultConfig returns the default configuration for aggregation.
func DefaultConfig() *Config {
	return &Config{
		Method:       MethodMean,
		TrimFraction: 0.1,
		HuberK:       1.345,
	}
}

// AggregateResult is the immutable outcome of one aggregation call.
type AggregateResult struct {
	Method Method  `json:"method"`
	Value  float64 `json:"value"`

	// Confidence reflects input dispersion relative to input scale: tight
	// estimates score near 1, widely spread ones near 0.
	Confidence float64 `json:"confidence"`

	// Agreement is the fraction of estimates within one dispersion unit
	// (sample standard deviation) of the aggregate.
	Agreement float64 `json:"agreement"`

	Count int `json:"count"`
}

// Aggregate combines the estimates under the configured method. At least two
// estimates are required; fewer fail with InsufficientInput.
func Aggregate(config *Config, estimates []Estimate) (*AggregateResult, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := validate(config, estimates); err != nil {
		return nil, err
	}

	values := make([]float64, len(estimates))
	for i, e := range estimates {
		values[i] = e.Value
	}

	var value float64
	switch config.Method {
	case MethodMean:
		value = mean(values)
	case MethodConfidenceWeighted:
		value = confidenceWeightedMean(estimates)
	case MethodTrimmedMean:
		value = trimmedMean(values, config.TrimFraction)
	case MethodMedian:
		value = median(values)
	case MethodGeometricMean:
		gm, err := geometricMean(values)
		if err != nil {
			return nil, err
		}
		value = gm
	case MethodHuber:
		value = huber(values, config.HuberK)
	default:
		return nil, errors.Newf(errors.InvalidConfig, "unknown aggregation method %q", config.Method)
	}

	dispersion := stddev(values)
	return &AggregateResult{
		Method:     config.Method,
		Value:      value,
		Confidence: confidenceScore(values, dispersion),
		Agreement:  agreementScore(values, value, dispersion),
		Count:      len(values),
	}, nil
}

func validate(config *Config, estimates []Estimate) error {
	if len(estimates) < 2 {
		return errors.WithFields(
			errors.New(errors.InsufficientInput, "aggregation requires at least 2 estimates"),
			errors.Fields{"count": len(estimates)})
	}
	for _, e := range estimates {
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return errors.WithFields(
				errors.New(errors.InvalidInput, "estimate value is not finite"),
				errors.Fields{"agent": e.AgentID, "value": e.Value})
		}
		if e.Confidence != nil && (*e.Confidence < 0 || *e.Confidence > 1) {
			return errors.WithFields(
				errors.New(errors.InvalidInput, "confidence must be in [0, 1]"),
				errors.Fields{"agent": e.AgentID, "confidence": *e.Confidence})
		}
	}
	if config.TrimFraction < 0 || config.TrimFraction >= 0.5 {
		return errors.New(errors.InvalidConfig, "trim fraction must be in [0, 0.5)")
	}
	if config.HuberK <= 0 {
		return errors.New(errors.InvalidConfig, "huber k must be positive")
	}
	return nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// confidenceWeightedMean weights each value by its self-reported confidence.
// If every confidence is zero the estimates carry no usable signal and the
// plain mean is used instead.
func confidenceWeightedMean(estimates []Estimate) float64 {
	sum, weightSum := 0.0, 0.0
	for _, e := range estimates {
		sum += e.Value * e.confidence()
		weightSum += e.confidence()
	}
	if weightSum == 0 {
		values := make([]float64, len(estimates))
		for i, e := range estimates {
			values[i] = e.Value
		}
		return mean(values)
	}
	return sum / weightSum
}

func trimmedMean(values []float64, fraction float64) float64 {
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	trim := int(float64(len(sorted)) * fraction)
	kept := sorted[trim : len(sorted)-trim]
	return mean(kept)
}

func median(values []float64) float64 {
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func geometricMean(values []float64) (float64, error) {
	logSum := 0.0
	for _, v := range values {
		if v <= 0 {
			return 0, errors.WithFields(
				errors.New(errors.InvalidInput, "geometric mean requires strictly positive estimates"),
				errors.Fields{"value": v})
		}
		logSum += math.Log(v)
	}
	return math.Exp(logSum / float64(len(values))), nil
}

// huber computes a robust location estimate via iteratively reweighted
// averaging with Huber weights, scaled by the median absolute deviation.
func huber(values []float64, k float64) float64 {
	location := median(values)

	scale := medianAbsoluteDeviation(values, location) * 1.4826
	if scale == 0 {
		scale = stddev(values)
	}
	if scale == 0 {
		return location // all values identical
	}

	threshold := k * scale
	for iter := 0; iter < 50; iter++ {
		weightedSum, weightSum := 0.0, 0.0
		for _, v := range values {
			residual := math.Abs(v - location)
			weight := 1.0
			if residual > threshold {
				weight = threshold / residual
			}
			weightedSum += weight * v
			weightSum += weight
		}
		next := weightedSum / weightSum
		if math.Abs(next-location) < 1e-10 {
			return next
		}
		location = next
	}
	return location
}

func medianAbsoluteDeviation(values []float64, center float64) float64 {
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - center)
	}
	return median(deviations)
}

func stddev(values []float64) float64 {
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		sumSq += (v - m) * (v - m)
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// confidenceScore maps relative dispersion to (0, 1]: zero spread scores 1,
// spread comparable to the input scale scores near 0.5, larger spread decays
// toward 0.
func confidenceScore(values []float64, dispersion float64) float64 {
	if dispersion == 0 {
		return 1.0
	}
	scale := 0.0
	for _, v := range values {
		scale += math.Abs(v)
	}
	scale /= float64(len(values))
	if scale == 0 {
		return 1 / (1 + dispersion)
	}
	return 1 / (1 + dispersion/scale)
}

// agreementScore is the fraction of estimates within one dispersion unit of
// the aggregate. Zero dispersion means perfect agreement.
func agreementScore(values []float64, aggregate, dispersion float64) float64 {
	if dispersion == 0 {
		return 1.0
	}
	within := 0
	for _, v := range values {
		if math.Abs(v-aggregate) <= dispersion {
			within++
		}
	}
	return float64(within) / float64(len(values))
}
