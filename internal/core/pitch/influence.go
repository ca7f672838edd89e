package pitch

import "math"

// DefaultSigma is the default steepness of the influence falloff, in seconds.
const DefaultSigma = 0.5

// Sigmoid converts an arrival time into an influence score in (0, 1); earlier arrival means
// more influence.
type Sigmoid struct {
	sigma float64
}

func NewSigmoid(sigma float64) (Sigmoid, error) {
	if err := requirePositive("sigma", sigma); err != nil {
		return Sigmoid{}, err
	}
	return Sigmoid{sigma: sigma}, nil
}

func (s Sigmoid) Sigma() float64 { return s.sigma }

func (s Sigmoid) valid() bool { return s.sigma > 0 }

// Influence returns 1 / (1 + exp(tti / sigma)).
// In float64 it rounds to 0 once tti/sigma exceeds about 745; use ScaledInfluence to compare agents
// that far out.
func (s Sigmoid) Influence(tti float64) float64 {
	return 1 / (1 + math.Exp(tti/s.sigma))
}

// Exponent returns tti / sigma, the argument of the sigmoid.
func (s Sigmoid) Exponent(tti float64) float64 { return tti / s.sigma }

// ScaledInfluence returns Influence(tti) * exp(shift) for the exponent x = tti/sigma, computed as
// exp(shift - x) / (1 + exp(-x)). Influences scaled by a common shift keep their ratios; with shift set
// to the smallest exponent at a point, the closest agent scores at least 0.5.
func (s Sigmoid) ScaledInfluence(x, shift float64) float64 {
	return math.Exp(shift-x) / (1 + math.Exp(-x))
}
