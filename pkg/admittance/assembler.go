// Package admittance builds Ybus/Yf/Yt and their DC/fast-decoupled
// counterparts from per-branch primitives, per spec §4.2. Grounded on the
// teacher's per-device Stamp() accumulation idiom (toy-spice
// pkg/circuit/circuit.go Stamp loop), generalized from per-device stamping
// into per-branch primitive stamping against the Cf/Ct connectivity.
package admittance

import (
	"math"
	"math/cmplx"

	"github.com/gridnum/gridnum/internal/consts"
	"github.com/gridnum/gridnum/pkg/grid"
)

// Primitives holds the per-branch 4-tuple admittance primitives, zero for
// inactive branches (spec §3 invariant 1).
type Primitives struct {
	Yff, Yft, Ytf, Ytt []complex128
}

// Admittances is the output of Build: the full set of matrices spec §3/§4.2
// name.
type Admittances struct {
	NBus, NBranch int
	Prim          Primitives
	YshuntBus     []complex128
	Ybus          *ComplexCSR
	Yf, Yt        *ComplexCSR // n_branch x n_bus
}

// BuildInput carries the per-branch/per-bus arrays spec §4.2's build()
// signature names.
type BuildInput struct {
	Branches  []grid.Branch
	NBus      int
	Seq       grid.Sequence
	YshuntBus []complex128 // per-bus shunt admittance contributed by grid.Injection{Kind:Shunt}
}

// BranchPrimitive computes the (yff, yft, ytf, ytt) tuple for one branch at
// the requested sequence, per spec §4.2's formula block. Inactive branches
// contribute the zero tuple (spec §3 invariant 1).
func BranchPrimitive(b grid.Branch, seq grid.Sequence) (yff, yft, ytf, ytt complex128) {
	if !b.Active {
		return 0, 0, 0, 0
	}

	ys := 1.0 / complex(b.R, b.X+consts.SeriesEpsilon)
	bc := complex(b.G, b.B)

	m := b.M
	if m == 0 {
		m = 1.0
	}
	vtf := b.VTapF
	if vtf == 0 {
		vtf = 1.0
	}
	vtt := b.VTapT
	if vtt == 0 {
		vtt = 1.0
	}

	switch seq {
	case grid.SeqZero:
		return zeroSequencePrimitive(b, ys, bc, m, vtf, vtt)
	case grid.SeqNegative:
		yff, yft, ytf, ytt = positiveSequencePrimitive(b, ys, bc, m, vtf, vtt)
		phase := cmplx.Exp(complex(0, math.Pi/6))
		switch b.Conn {
		case grid.ConnGG, grid.ConnGD, grid.ConnSD:
			yft *= phase
			ytf *= cmplx.Conj(phase)
		}
		return
	default: // SeqPositive
		return positiveSequencePrimitive(b, ys, bc, m, vtf, vtt)
	}
}

func positiveSequencePrimitive(b grid.Branch, ys, bc complex128, m, vtf, vtt float64) (yff, yft, ytf, ytt complex128) {
	tauPhase := cmplx.Exp(complex(0, -b.Tau))
	yff = (ys + bc/2) / complex(m*m*vtf*vtf, 0)
	yft = -ys / (complex(m, 0) * tauPhase * complex(vtf*vtt, 0))
	ytf = -ys / (complex(m, 0) * cmplx.Conj(tauPhase) * complex(vtt*vtf, 0))
	ytt = (ys + bc/2) / complex(vtt*vtt, 0)

	if b.Kind == grid.KindVSC {
		ytt += complex(b.Gsw, b.Beq)
	}
	return
}

// zeroSequencePrimitive branches on winding connection per spec §4.2 / §9:
// SD is handled identically to GD per the spec's open-question note.
func zeroSequencePrimitive(b grid.Branch, ys, bc complex128, m, vtf, vtt float64) (yff, yft, ytf, ytt complex128) {
	switch b.Conn {
	case grid.ConnYY:
		return positiveSequencePrimitive(b, ys, bc, m, vtf, vtt)
	case grid.ConnGG:
		yff = (ys + bc/2) / complex(m*m*vtf*vtf, 0)
		yft = -ys / complex(m*vtf*vtt, 0)
		ytf = -ys / complex(m*vtt*vtf, 0)
		ytt = (ys + bc/2) / complex(vtt*vtt, 0)
		return
	case grid.ConnGD, grid.ConnSD:
		// Delta side blocks zero-sequence current from crossing: only the
		// grounded-wye side self-admittance survives.
		yff = (ys + bc/2) / complex(m*m*vtf*vtf, 0)
		yft, ytf, ytt = 0, 0, 0
		return
	default:
		return positiveSequencePrimitive(b, ys, bc, m, vtf, vtt)
	}
}

// Build assembles Ybus = Cf^T diag(yff) Cf + Cf^T diag(yft) Ct +
// Ct^T diag(ytf) Cf + Ct^T diag(ytt) Ct + diag(Yshunt_bus), per spec §3.
func Build(in BuildInput) *Admittances {
	n := in.NBus
	nb := len(in.Branches)

	prim := Primitives{
		Yff: make([]complex128, nb),
		Yft: make([]complex128, nb),
		Ytf: make([]complex128, nb),
		Ytt: make([]complex128, nb),
	}

	ybusB := NewComplexTripletBuilder(n, n)
	yfB := NewComplexTripletBuilder(nb, n)
	ytB := NewComplexTripletBuilder(nb, n)

	for k, br := range in.Branches {
		yff, yft, ytf, ytt := BranchPrimitive(br, in.Seq)
		prim.Yff[k], prim.Yft[k], prim.Ytf[k], prim.Ytt[k] = yff, yft, ytf, ytt
		if !br.Active {
			continue
		}
		f, t := br.From, br.To

		ybusB.Add(f, f, yff)
		ybusB.Add(f, t, yft)
		ybusB.Add(t, f, ytf)
		ybusB.Add(t, t, ytt)

		yfB.Add(k, f, yff)
		yfB.Add(k, t, yft)
		ytB.Add(k, f, ytf)
		ytB.Add(k, t, ytt)
	}

	yshunt := in.YshuntBus
	if yshunt == nil {
		yshunt = make([]complex128, n)
	}
	for i, y := range yshunt {
		ybusB.Add(i, i, y)
	}

	return &Admittances{
		NBus:      n,
		NBranch:   nb,
		Prim:      prim,
		YshuntBus: yshunt,
		Ybus:      ybusB.Build(),
		Yf:        yfB.Build(),
		Yt:        ytB.Build(),
	}
}

// ModifyTaps applies the new tap module/angle to the touched branch indices
// and rebuilds Ybus/Yf/Yt from scratch via Build. Every branch's primitive is
// recomputed, touched or not; prevPrim is not read.
func ModifyTaps(branches []grid.Branch, prevPrim Primitives, nBus int, seq grid.Sequence, yshunt []complex128, touched []int, newM, newTau []float64) (*Admittances, Primitives) {
	updated := make([]grid.Branch, len(branches))
	copy(updated, branches)
	for i, idx := range touched {
		updated[idx].M = newM[i]
		updated[idx].Tau = newTau[i]
	}
	adm := Build(BuildInput{Branches: updated, NBus: nBus, Seq: seq, YshuntBus: yshunt})
	return adm, adm.Prim
}
