package detector

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genMask(width, height int, seed int64) []bool {
	m := make([]bool, width*height)
	s := uint64(seed)*6364136223846793005 + 1442695040888963407 //nolint:gosec // G115: test data
	for i := range m {
		s = s*6364136223846793005 + 1442695040888963407
		m[i] = s>>61 == 0
	}
	return m
}

// TestDilateIsExtensiveProperty verifies dilation never clears a set pixel.
func TestDilateIsExtensiveProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("dilation contains its input", prop.ForAll(
		func(width, height, kernelSize int, seed int64) bool {
			in := genMask(width, height, seed)
			out := ApplyMorphologicalOperation(in, width, height, MorphConfig{
				Operation: MorphDilate, KernelSize: kernelSize, Iterations: 1,
			})
			for i := range in {
				if in[i] && !out[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(3, 40),
		gen.IntRange(3, 40),
		gen.IntRange(2, 7),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// TestErodeIsAntiExtensiveProperty verifies erosion never sets a clear pixel.
func TestErodeIsAntiExtensiveProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("erosion is contained in its input", prop.ForAll(
		func(width, height, kernelSize int, seed int64) bool {
			in := genMask(width, height, seed)
			out := ApplyMorphologicalOperation(in, width, height, MorphConfig{
				Operation: MorphErode, KernelSize: kernelSize, Iterations: 2,
			})
			if len(out) != len(in) {
				return false
			}
			for i := range in {
				if out[i] && !in[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(3, 40),
		gen.IntRange(3, 40),
		gen.IntRange(2, 7),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
