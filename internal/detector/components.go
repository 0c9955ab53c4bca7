package detector

// compStats represents statistics for a connected component.
type compStats struct {
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
	// external is false when the component sits inside a hole of another one.
	external bool
}

// neighbours8 lists the 8-neighbourhood offsets.
var neighbours8 = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}

// connectedComponents labels 8-connected foreground components in mask.
// Labels start at 1; 0 is background.
func connectedComponents(mask []bool, w, h int) ([]compStats, []int) {
	labels := make([]int, w*h)
	var comps []compStats
	stack := make([]int, 0, 256)
	label := 1

	for y := range h {
		for x := range w {
			idx := y*w + x
			if !mask[idx] || labels[idx] != 0 {
				continue
			}
			st := compStats{minX: x, minY: y, maxX: x, maxY: y}
			labels[idx] = label
			stack = append(stack[:0], idx)
			for len(stack) > 0 {
				ci := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := ci%w, ci/w
				updateComponentStats(&st, cx, cy)
				for _, d := range neighbours8 {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if mask[ni] && labels[ni] == 0 {
						labels[ni] = label
						stack = append(stack, ni)
					}
				}
			}
			comps = append(comps, st)
			label++
		}
	}

	markExternal(comps, labels, mask, w, h)
	return comps, labels
}

// updateComponentStats updates the component statistics with a new pixel.
func updateComponentStats(st *compStats, cx, cy int) {
	st.count++
	st.minX = min(st.minX, cx)
	st.minY = min(st.minY, cy)
	st.maxX = max(st.maxX, cx)
	st.maxY = max(st.maxY, cy)
}

// markExternal flags components reachable from the page border through
// background. Background is flooded with 4-connectivity, the dual of the
// 8-connected foreground, so a component enclosed by another never touches it.
func markExternal(comps []compStats, labels []int, mask []bool, w, h int) {
	if len(comps) == 0 {
		return
	}
	outside := make([]bool, w*h)
	stack := make([]int, 0, 1024)
	seed := func(x, y int) {
		i := y*w + x
		if !mask[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := range w {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := range h {
		seed(0, y)
		seed(w-1, y)
	}
	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for len(stack) > 0 {
		ci := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cx, cy := ci%w, ci/w
		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			seed(nx, ny)
		}
	}

	for y := range h {
		for x := range w {
			l := labels[y*w+x]
			if l == 0 || comps[l-1].external {
				continue
			}
			if x == 0 || y == 0 || x == w-1 || y == h-1 ||
				outside[y*w+x-1] || outside[y*w+x+1] ||
				outside[(y-1)*w+x] || outside[(y+1)*w+x] {
				comps[l-1].external = true
			}
		}
	}
}
