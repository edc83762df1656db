package vectorindex

import "math"

// squaredDistance returns the squared Euclidean distance between a and b.
// Both slices must have equal length; callers are responsible for the
// dimension check (ErrDimensionMismatch is a VectorIndex-level concern, not
// a metric-level one).
func squaredDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// distance returns the Euclidean distance between a and b.
func distance(a, b []float32) float32 {
	return float32(math.Sqrt(float64(squaredDistance(a, b))))
}

// mean returns the centroid of points. Callers must ensure points is
// non-empty.
func mean(points [][]float32) []float32 {
	dim := len(points[0])
	centroid := make([]float32, dim)
	for _, p := range points {
		for i, v := range p {
			centroid[i] += v
		}
	}
	n := float32(len(points))
	for i := range centroid {
		centroid[i] /= n
	}
	return centroid
}

// maxRadius returns the largest distance from centroid to any point.
func maxRadius(points [][]float32, centroid []float32) float32 {
	var radius float32
	for _, p := range points {
		if d := distance(p, centroid); d > radius {
			radius = d
		}
	}
	return radius
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
