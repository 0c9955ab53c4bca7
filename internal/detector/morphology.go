package detector

// MorphologicalOp represents the type of morphological operation to perform.
type MorphologicalOp int

const (
	MorphNone MorphologicalOp = iota
	MorphDilate
	MorphErode
)

// MorphConfig holds configuration for a morphological pass.
type MorphConfig struct {
	Operation  MorphologicalOp
	KernelSize int // side of the square structuring element
	Iterations int
}

// ApplyMorphologicalOperation runs a binary dilation or erosion with a square
// structuring element. Pixels outside the map never contribute, so erosion
// does not eat inward from the image border.
func ApplyMorphologicalOperation(bin []bool, width, height int, config MorphConfig) []bool {
	if config.Operation == MorphNone || config.KernelSize <= 1 || config.Iterations <= 0 {
		return bin
	}

	result := make([]bool, len(bin))
	copy(result, bin)

	for range config.Iterations {
		switch config.Operation {
		case MorphDilate:
			result = dilateBinary(result, width, height, config.KernelSize)
		case MorphErode:
			result = erodeBinary(result, width, height, config.KernelSize)
		}
	}
	return result
}

// closeEdges merges nearby edge fragments: dilate n times, then erode m times.
func closeEdges(edges []bool, w, h int, cfg Config) []bool {
	out := ApplyMorphologicalOperation(edges, w, h, MorphConfig{
		Operation: MorphDilate, KernelSize: cfg.KernelSize, Iterations: cfg.DilateIterations,
	})
	return ApplyMorphologicalOperation(out, w, h, MorphConfig{
		Operation: MorphErode, KernelSize: cfg.KernelSize, Iterations: cfg.ErodeIterations,
	})
}

// dilateBinary sets a pixel when any pixel in its k×k window is set.
// The square window is separable, so rows then columns are swept with
// running counts.
func dilateBinary(bin []bool, w, h, k int) []bool {
	half := k / 2
	tmp := make([]bool, len(bin))
	for y := range h {
		row := bin[y*w : (y+1)*w]
		out := tmp[y*w : (y+1)*w]
		windowAny(row, out, w, half)
	}
	result := make([]bool, len(bin))
	for x := range w {
		windowAnyCol(tmp, result, x, w, h, half)
	}
	return result
}

// erodeBinary keeps a pixel only when every in-bounds pixel of its k×k
// window is set. Implemented as the dual of dilation on the complement.
func erodeBinary(bin []bool, w, h, k int) []bool {
	inv := make([]bool, len(bin))
	for i, v := range bin {
		inv[i] = !v
	}
	d := dilateBinary(inv, w, h, k)
	for i, v := range d {
		d[i] = !v
	}
	return d
}

// windowAny writes out[i] = any(in[i-half..i+half]) for a 1-D line.
func windowAny(in, out []bool, n, half int) {
	count := 0
	// prime the window [0, half)
	for i := 0; i < half && i < n; i++ {
		if in[i] {
			count++
		}
	}
	for i := range n {
		if j := i + half; j < n && in[j] {
			count++
		}
		if j := i - half - 1; j >= 0 && in[j] {
			count--
		}
		out[i] = count > 0
	}
}

// windowAnyCol is windowAny over column x of a row-major map.
func windowAnyCol(in, out []bool, x, w, h, half int) {
	count := 0
	for y := 0; y < half && y < h; y++ {
		if in[y*w+x] {
			count++
		}
	}
	for y := range h {
		if j := y + half; j < h && in[j*w+x] {
			count++
		}
		if j := y - half - 1; j >= 0 && in[j*w+x] {
			count--
		}
		out[y*w+x] = count > 0
	}
}
