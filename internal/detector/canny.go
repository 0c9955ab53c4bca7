package detector

import (
	"image"

	"github.com/MeKo-Tech/vistext/internal/mempool"
)

// cannyEdges runs Canny edge detection on an 8-bit grayscale image using a
// 3×3 Sobel operator and the L1 gradient norm. Pixels above high seed edges;
// pixels above low are kept when 8-connected to a seed.
func cannyEdges(gray *image.Gray, low, high float64) []bool {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	mag, dir := sobel(gray, w, h)
	thin := nonMaxSuppress(mag, dir, w, h)
	mempool.PutFloat32(mag)
	mempool.PutUint8(dir)
	defer mempool.PutFloat32(thin)
	return hysteresis(thin, w, h, float32(low), float32(high))
}

// Quantized gradient directions.
const (
	dirHorizontal uint8 = iota // gradient along x, edge runs vertically
	dirDiagDown                // 45°
	dirVertical                // gradient along y
	dirDiagUp                  // 135°
)

// sobel computes the L1 gradient magnitude and its quantized direction.
// Borders replicate the nearest pixel. Both maps come from mempool.
func sobel(gray *image.Gray, w, h int) ([]float32, []uint8) {
	mag := mempool.GetFloat32(w * h)
	dir := mempool.GetUint8(w * h)
	at := func(x, y int) int32 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return int32(gray.Pix[y*gray.Stride+x])
	}

	// tan(22.5°) and tan(67.5°) scaled by 2^15 avoid float atan2 per pixel.
	const tan22 = 13573
	const tan67 = 79109

	for y := range h {
		for x := range w {
			p00, p10, p20 := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			p01, p21 := at(x-1, y), at(x+1, y)
			p02, p12, p22 := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			gx := (p20 + 2*p21 + p22) - (p00 + 2*p01 + p02)
			gy := (p02 + 2*p12 + p22) - (p00 + 2*p10 + p20)

			ax, ay := gx, gy
			if ax < 0 {
				ax = -ax
			}
			if ay < 0 {
				ay = -ay
			}
			i := y*w + x
			mag[i] = float32(ax + ay)

			ay15 := int64(ay) << 15
			switch {
			case ay15 < int64(ax)*tan22:
				dir[i] = dirHorizontal
			case ay15 > int64(ax)*tan67:
				dir[i] = dirVertical
			case (gx ^ gy) < 0:
				dir[i] = dirDiagUp
			default:
				dir[i] = dirDiagDown
			}
		}
	}
	return mag, dir
}

// nonMaxSuppress keeps a pixel only when it is a local maximum across the
// edge. Ties keep the first pixel in scan order so plateaus stay one pixel wide.
func nonMaxSuppress(mag []float32, dir []uint8, w, h int) []float32 {
	out := mempool.GetFloat32(len(mag))
	get := func(x, y int) float32 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}
	for y := range h {
		for x := range w {
			i := y*w + x
			m := mag[i]
			if m == 0 {
				continue
			}
			var a, b float32
			switch dir[i] {
			case dirHorizontal:
				a, b = get(x-1, y), get(x+1, y)
			case dirVertical:
				a, b = get(x, y-1), get(x, y+1)
			case dirDiagDown:
				a, b = get(x-1, y-1), get(x+1, y+1)
			default:
				a, b = get(x+1, y-1), get(x-1, y+1)
			}
			if m > a && m >= b {
				out[i] = m
			}
		}
	}
	return out
}

// hysteresis links weak edges to strong ones with an explicit stack.
func hysteresis(mag []float32, w, h int, low, high float32) []bool {
	edges := make([]bool, w*h)
	stack := make([]int, 0, 1024)
	for i, m := range mag {
		if m > high && !edges[i] {
			edges[i] = true
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			ci := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cx, cy := ci%w, ci/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := cx+dx, cy+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if !edges[ni] && mag[ni] > low {
						edges[ni] = true
						stack = append(stack, ni)
					}
				}
			}
		}
	}
	return edges
}
