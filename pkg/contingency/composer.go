// Package contingency composes N-k contingency groups into linear
// sensitivity operators (MLODF, Compensated PTDF) built on top of pkg/linear,
// per spec §4.6. Dense linear algebra uses gonum.org/v1/gonum/mat, the same
// DOMAIN STACK choice as pkg/linear.
package contingency

import (
	"github.com/gridnum/gridnum/internal/consts"
	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/grid"
	"gonum.org/v1/gonum/mat"
)

// ResolvedGroup is a ContingencyGroup with its member idtags resolved into
// index arrays, per spec §4.6.
type ResolvedGroup struct {
	Name          string
	BranchOutages []int     // beta_delta: branch indices
	Injections    []int     // beta_i: injection indices
	InjFactor     []float64 // per-element scaling in [0,1]
}

// Resolve splits a grid.ContingencyGroup's members into branch-outage and
// injection-scaling index arrays via the snapshot's idtag lookup tables.
// Members whose idtag is not found are skipped and reported via
// diag.WarnContingencyDeviceNotFound.
func Resolve(group grid.ContingencyGroup, snap *grid.Snapshot, logger *diag.Logger) ResolvedGroup {
	out := ResolvedGroup{Name: group.Name}
	for i, m := range group.Members {
		switch m.Op {
		case grid.OpActive:
			idx, ok := snap.BranchIdTag[m.DeviceIdTag]
			if !ok {
				if logger != nil {
					logger.Warn(diag.WarnContingencyDeviceNotFound, 0, i, "contingency branch idtag not found: "+m.DeviceIdTag)
				}
				continue
			}
			out.BranchOutages = append(out.BranchOutages, idx)
		case grid.OpPowerPercentage:
			idx, ok := snap.InjectionIdTag[m.DeviceIdTag]
			if !ok {
				if logger != nil {
					logger.Warn(diag.WarnContingencyDeviceNotFound, 0, i, "contingency injection idtag not found: "+m.DeviceIdTag)
				}
				continue
			}
			out.Injections = append(out.Injections, idx)
			out.InjFactor = append(out.InjFactor, m.Value)
		}
	}
	return out
}

// LinearMultiContingency is the composed sensitivity operator for one
// resolved group, per spec §4.6.
type LinearMultiContingency struct {
	Group       ResolvedGroup
	MLODF       *mat.Dense // n_branch x len(BranchOutages), nil if no branch outages
	Compensated *mat.Dense // n_branch x len(Injections), nil if no injections
	UsedPseudo  bool
}

// Compose builds the LinearMultiContingency for one resolved group from the
// base-case LODF/PTDF matrices, per spec §4.6.
func Compose(g ResolvedGroup, lodf, ptdf *mat.Dense, logger *diag.Logger) LinearMultiContingency {
	nBranch, _ := lodf.Dims()
	result := LinearMultiContingency{Group: g}

	if len(g.BranchOutages) == 1 {
		c := g.BranchOutages[0]
		mlodf := mat.NewDense(nBranch, 1, nil)
		for r := 0; r < nBranch; r++ {
			mlodf.Set(r, 0, lodf.At(r, c))
		}
		result.MLODF = mlodf
	} else if len(g.BranchOutages) > 1 {
		k := len(g.BranchOutages)
		sub := mat.NewDense(k, k, nil)
		for i, ci := range g.BranchOutages {
			for j, cj := range g.BranchOutages {
				v := 0.0
				if i == j {
					v = 1
				}
				sub.Set(i, j, v-lodf.At(ci, cj))
			}
		}
		var mInv mat.Dense
		if err := mInv.Inverse(sub); err != nil {
			if logger != nil {
				logger.Warn(diag.WarnSingularFallback, 0, -1, "Schur matrix singular in branch-multi contingency; using pseudo-inverse")
			}
			mInv = *pseudoInverse(sub)
			result.UsedPseudo = true
		}

		lodfCols := mat.NewDense(nBranch, k, nil)
		for r := 0; r < nBranch; r++ {
			for j, cj := range g.BranchOutages {
				lodfCols.Set(r, j, lodf.At(r, cj))
			}
		}
		mlodf := mat.NewDense(nBranch, k, nil)
		mlodf.Mul(lodfCols, &mInv)
		result.MLODF = mlodf
	}

	if len(g.Injections) > 0 {
		nInj := len(g.Injections)
		ptdfFullBetaI := mat.NewDense(nBranch, nInj, nil)
		for r := 0; r < nBranch; r++ {
			for j, ij := range g.Injections {
				ptdfFullBetaI.Set(r, j, ptdf.At(r, ij))
			}
		}

		comp := mat.NewDense(nBranch, nInj, nil)
		if len(g.BranchOutages) > 0 {
			ptdfBetaDeltaBetaI := mat.NewDense(len(g.BranchOutages), nInj, nil)
			for i, ci := range g.BranchOutages {
				for j, ij := range g.Injections {
					ptdfBetaDeltaBetaI.Set(i, j, ptdf.At(ci, ij))
				}
			}
			comp.Mul(result.MLODF, ptdfBetaDeltaBetaI)
		}
		comp.Add(comp, ptdfFullBetaI)
		result.Compensated = comp
	}

	sparsify(result.MLODF, consts.DefaultSparsifyThreshold)
	if result.Compensated != nil {
		sparsify(result.Compensated, consts.DefaultSparsifyThreshold)
	}
	return result
}

// ContingencyFlow evaluates f = base_flow + MLODF*base_flow[beta_delta] +
// Compensated*(inj_factor .* injections[beta_i]), per spec §4.6's query.
func (lmc LinearMultiContingency) ContingencyFlow(baseFlow []float64, injections []float64) []float64 {
	n := len(baseFlow)
	out := append([]float64{}, baseFlow...)

	if len(lmc.Group.BranchOutages) > 0 {
		outageFlows := mat.NewVecDense(len(lmc.Group.BranchOutages), nil)
		for i, c := range lmc.Group.BranchOutages {
			outageFlows.SetVec(i, baseFlow[c])
		}
		var delta mat.VecDense
		delta.MulVec(lmc.MLODF, outageFlows)
		for i := 0; i < n; i++ {
			out[i] += delta.AtVec(i)
		}
	}

	if lmc.Compensated != nil && len(lmc.Group.Injections) > 0 {
		injVec := mat.NewVecDense(len(lmc.Group.Injections), nil)
		for i, idx := range lmc.Group.Injections {
			injVec.SetVec(i, lmc.Group.InjFactor[i]*injections[idx])
		}
		var delta mat.VecDense
		delta.MulVec(lmc.Compensated, injVec)
		for i := 0; i < n; i++ {
			out[i] += delta.AtVec(i)
		}
	}

	return out
}

func sparsify(m *mat.Dense, threshold float64) {
	if m == nil {
		return
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if abs(m.At(i, j)) < threshold {
				m.Set(i, j, 0)
			}
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// pseudoInverse computes the Moore-Penrose pseudo-inverse via SVD, the
// LinAlgError fallback spec §4.6 names for a singular Schur matrix.
func pseudoInverse(m *mat.Dense) *mat.Dense {
	var svd mat.SVD
	ok := svd.Factorize(m, mat.SVDThin)
	r, c := m.Dims()
	out := mat.NewDense(c, r, nil)
	if !ok {
		return out
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	sInv := mat.NewDense(len(values), len(values), nil)
	for i, s := range values {
		if s > 1e-12 {
			sInv.Set(i, i, 1/s)
		}
	}
	var vs mat.Dense
	vs.Mul(&v, sInv)
	out.Mul(&vs, u.T())
	return out
}
