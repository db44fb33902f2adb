package powerflow

// matTMat computes a^T * a for a square dense matrix a (Levenberg-Marquardt
// normal equations, spec §4.4.2).
func matTMat(a [][]float64) [][]float64 {
	n := len(a)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := 0.0
			for k := 0; k < n; k++ {
				s += a[k][i] * a[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

// matTVec computes a^T * v.
func matTVec(a [][]float64, v []float64) []float64 {
	n := len(a)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		s := 0.0
		for k := 0; k < n; k++ {
			s += a[k][i] * v[k]
		}
		out[i] = s
	}
	return out
}
