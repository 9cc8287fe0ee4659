package rigging

import (
	"cmp"
	"slices"

	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

// unusedInfluences returns the indices of influences without any weight.
func unusedInfluences(data scene.SkinData) []int {
	var out []int
	for i := range data.Influences {
		used := false
		for _, row := range data.Weights {
			if i < len(row) && row[i] != 0 {
				used = true
				break
			}
		}
		if !used {
			out = append(out, i)
		}
	}
	return out
}

// removeInfluences drops influences and their weight columns.
func removeInfluences(data scene.SkinData, drop []int) scene.SkinData {
	out := data.Clone()
	for _, i := range slices.Backward(slices.Sorted(slices.Values(drop))) {
		out.Influences = slices.Delete(out.Influences, i, i+1)
		if i < len(out.Locked) {
			out.Locked = slices.Delete(out.Locked, i, i+1)
		}
		for v, row := range out.Weights {
			if i < len(row) {
				out.Weights[v] = slices.Delete(row, i, i+1)
			}
		}
	}
	return out
}

// exceedsMax reports whether any vertex has more non-zero weights than the
// cluster allows. Clusters that do not maintain a maximum never exceed it.
func exceedsMax(data scene.SkinData) bool {
	if !data.MaintainMax || data.MaxInfluences <= 0 {
		return false
	}
	for _, row := range data.Weights {
		if nonZero(row) > data.MaxInfluences {
			return true
		}
	}
	return false
}

func nonZero(row []float64) int {
	n := 0
	for _, w := range row {
		if w != 0 {
			n++
		}
	}
	return n
}

// pruneWeights keeps the limit largest weights of row and zeroes the rest.
// With normalize set the kept unlocked weights are scaled so the row sums to
// one; when every kept influence is locked all of them are scaled.
func pruneWeights(row []float64, locked []bool, limit int, normalize bool) []float64 {
	order := make([]int, len(row))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(row[b], row[a])
	})
	keep := order[:min(limit, len(order))]

	out := make([]float64, len(row))
	for _, i := range keep {
		out[i] = row[i]
	}
	if !normalize {
		return out
	}

	isLocked := func(i int) bool { return i < len(locked) && locked[i] }
	var scale []int
	for _, i := range keep {
		if !isLocked(i) {
			scale = append(scale, i)
		}
	}
	if len(scale) == 0 {
		scale = keep
	}

	target := 1.0
	var total float64
	for _, i := range keep {
		if slices.Contains(scale, i) {
			total += out[i]
		} else {
			target -= out[i]
		}
	}
	if total == 0 || target <= 0 {
		return out
	}
	for _, i := range scale {
		out[i] *= target / total
	}
	return out
}
