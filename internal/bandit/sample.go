package bandit

import (
	"math"
	"math/rand"
)

// sampleNormal draws a standard normal variate via Box-Muller.
func sampleNormal(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// sampleGamma draws from Gamma(shape, 1) using Marsaglia-Tsang squeeze
// rejection for shape >= 1. Shapes below 1 are boosted to shape+1 and
// scaled by U^(1/shape); that path recurses exactly once, which the depth
// guard enforces.
func sampleGamma(rng *rand.Rand, shape float64, depth int) float64 {
	if shape <= 0 {
		return 0
	}
	if shape < 1 {
		if depth > 0 {
			return 0
		}
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		return sampleGamma(rng, shape+1, depth+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := sampleNormal(rng)
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}

// sampleBeta draws from Beta(a, b) as Ga/(Ga+Gb) with two independent
// Gamma variates. Falls back to 0.5 on the degenerate all-zero draw.
func sampleBeta(rng *rand.Rand, a, b float64) float64 {
	x := sampleGamma(rng, a, 0)
	y := sampleGamma(rng, b, 0)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}
