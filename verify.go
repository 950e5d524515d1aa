package hgemm

import (
	"fmt"
	"math"
)

// Verification thresholds. The per-element tolerance adapts to the depth of
// the K reduction; the Frobenius and structural thresholds are global.
const (
	// FrobeniusThreshold bounds the relative Frobenius-norm error.
	FrobeniusThreshold = 0.05
	// SSIMThreshold bounds the structural similarity score from below;
	// scores under it indicate patterned rather than random error.
	SSIMThreshold = 0.95
	// relFloor avoids dividing by reference values indistinguishable
	// from zero in half precision.
	relFloor = 1e-5
)

// AdaptiveTolerance returns the per-element relative error tolerance for a
// product with reduction depth k. Half-precision accumulation rounds once
// per MMA step, so the tolerance scales up mildly with k to absorb the
// accumulated rounding.
func AdaptiveTolerance(k int) float32 {
	if k < TileDim {
		k = TileDim
	}
	return 0.025 * (1 + float32(math.Log2(float64(k)))/8)
}

// VerifyReport summarizes the comparison of a computed matrix against the
// reference.
type VerifyReport struct {
	MaxRelErr  float32
	MeanRelErr float32
	FrobRelErr float32
	SSIM       float32
	Tolerance  float32

	// First element exceeding the tolerance, if any.
	Failures int
	FirstRow int
	FirstCol int
	Got      float32
	Want     float32
	FirstErr float32
}

// Pass reports whether all three checks hold: max relative error within the
// adaptive tolerance, Frobenius error within the global threshold, and
// structural similarity at or above the pass score.
func (r VerifyReport) Pass() bool {
	return r.Failures == 0 &&
		r.FrobRelErr <= FrobeniusThreshold &&
		r.SSIM >= SSIMThreshold
}

// String formats the report for display.
func (r VerifyReport) String() string {
	if r.Pass() {
		return fmt.Sprintf("PASS: max rel %.2e, mean rel %.2e, frobenius %.2e, ssim %.4f",
			r.MaxRelErr, r.MeanRelErr, r.FrobRelErr, r.SSIM)
	}
	return fmt.Sprintf("FAIL: %d elements beyond tolerance %.2e\n"+
		"  first at (%d, %d): computed=%g reference=%g rel=%.3e\n"+
		"  max rel %.2e, mean rel %.2e, frobenius %.2e (max %.2e), ssim %.4f (min %.2f)",
		r.Failures, r.Tolerance,
		r.FirstRow, r.FirstCol, r.Got, r.Want, r.FirstErr,
		r.MaxRelErr, r.MeanRelErr, r.FrobRelErr, FrobeniusThreshold, r.SSIM, SSIMThreshold)
}

// Verify compares a computed matrix against its reference. k is the
// reduction depth of the product that produced them; it keys the adaptive
// tolerance. The comparison never aborts early: the full error statistics
// are gathered even after a failure so batches report every configuration
// independently.
func Verify(got, want *Matrix, k int) (VerifyReport, error) {
	r := VerifyReport{Tolerance: AdaptiveTolerance(k), FirstRow: -1, FirstCol: -1}
	if got.rows != want.rows || got.cols != want.cols {
		return r, NewInvalidArgError("Verify", fmt.Sprintf("shape mismatch: %d×%d vs %d×%d", got.rows, got.cols, want.rows, want.cols))
	}

	var (
		sumRel     float64
		sumSqDiff  float64
		sumSqWant  float64
		gotStats   runningStats
		wantStats  runningStats
		crossAccum float64
	)

	for i := 0; i < got.rows; i++ {
		for j := 0; j < got.cols; j++ {
			g := float64(got.data[got.index(i, j)].Float32())
			w := float64(want.data[want.index(i, j)].Float32())

			diff := math.Abs(g - w)
			rel := diff / math.Max(math.Abs(w), relFloor)
			sumRel += rel
			sumSqDiff += diff * diff
			sumSqWant += w * w

			gotStats.add(g)
			wantStats.add(w)
			crossAccum += g * w

			if rel > float64(r.Tolerance) {
				r.Failures++
				if r.FirstRow < 0 {
					r.FirstRow, r.FirstCol = i, j
					r.Got, r.Want = float32(g), float32(w)
					r.FirstErr = float32(rel)
				}
			}
			if float32(rel) > r.MaxRelErr {
				r.MaxRelErr = float32(rel)
			}
		}
	}

	count := float64(got.rows * got.cols)
	r.MeanRelErr = float32(sumRel / count)
	if sumSqWant > 0 {
		r.FrobRelErr = float32(math.Sqrt(sumSqDiff / sumSqWant))
	} else if sumSqDiff > 0 {
		r.FrobRelErr = float32(math.Inf(1))
	}
	r.SSIM = float32(ssim(gotStats, wantStats, crossAccum))
	return r, nil
}

// runningStats accumulates the moments needed for the structural
// similarity score.
type runningStats struct {
	n       float64
	sum     float64
	sumSq   float64
	absPeak float64
}

func (s *runningStats) add(v float64) {
	s.n++
	s.sum += v
	s.sumSq += v * v
	if a := math.Abs(v); a > s.absPeak {
		s.absPeak = a
	}
}

func (s runningStats) mean() float64 { return s.sum / s.n }

func (s runningStats) variance() float64 {
	m := s.mean()
	return s.sumSq/s.n - m*m
}

// ssim computes a global structural-similarity score between the two
// samples. Unlike pointwise error it is sensitive to systematic, patterned
// deviations (a shifted tile, a transposed fragment) that can hide inside a
// loose elementwise tolerance.
func ssim(x, y runningStats, cross float64) float64 {
	dynRange := math.Max(x.absPeak, y.absPeak)
	if dynRange == 0 {
		return 1
	}
	c1 := (0.01 * dynRange) * (0.01 * dynRange)
	c2 := (0.03 * dynRange) * (0.03 * dynRange)

	mx, my := x.mean(), y.mean()
	vx, vy := x.variance(), y.variance()
	cov := cross/x.n - mx*my

	num := (2*mx*my + c1) * (2*cov + c2)
	den := (mx*mx + my*my + c1) * (vx + vy + c2)
	return num / den
}
