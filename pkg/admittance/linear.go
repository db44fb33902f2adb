package admittance

import "github.com/gridnum/gridnum/pkg/grid"

// LinearPrimitives holds the DC susceptance/conductance matrices produced by
// BuildLinear, per spec §4.2: "b = 1/(X*m*active)".
type LinearPrimitives struct {
	Bbus, Bf *RealCSR // DC susceptance: nbus x nbus, nbranch x nbus
	Gbus, Gf *RealCSR // companion conductance matrices (series-loss linearization)
}

// BuildLinear assembles the DC Bbus/Bf (and Gbus/Gf) primitives used by DC
// power flow (§4.4.6) and DC/AC PTDF-LODF (§4.5).
func BuildLinear(branches []grid.Branch, nBus int) LinearPrimitives {
	nb := len(branches)
	bbusB := NewRealTripletBuilder(nBus, nBus)
	bfB := NewRealTripletBuilder(nb, nBus)
	gbusB := NewRealTripletBuilder(nBus, nBus)
	gfB := NewRealTripletBuilder(nb, nBus)

	for k, br := range branches {
		if !br.Active {
			continue
		}
		m := br.M
		if m == 0 {
			m = 1.0
		}
		b := 1.0 / (br.X * m)
		g := 0.0
		denom := br.R*br.R + br.X*br.X
		if denom > 0 {
			g = br.R / denom
		}

		f, t := br.From, br.To
		bbusB.Add(f, f, b)
		bbusB.Add(f, t, -b)
		bbusB.Add(t, f, -b)
		bbusB.Add(t, t, b)

		gbusB.Add(f, f, g)
		gbusB.Add(f, t, -g)
		gbusB.Add(t, f, -g)
		gbusB.Add(t, t, g)

		bfB.Add(k, f, b)
		bfB.Add(k, t, -b)
		gfB.Add(k, f, g)
		gfB.Add(k, t, -g)
	}

	return LinearPrimitives{
		Bbus: bbusB.Build(),
		Bf:   bfB.Build(),
		Gbus: gbusB.Build(),
		Gf:   gfB.Build(),
	}
}

// FastDecoupledPrimitives holds B'/B'' per spec §4.2.
type FastDecoupledPrimitives struct {
	BPrime       *RealCSR // B' — used for the theta update
	BDoublePrime *RealCSR // B'' — used for the |V| update
}

// BuildFastDecoupled assembles the B'/B'' matrices for the XB (standard)
// fast-decoupled variant: B' ignores shunt susceptance and resistance
// (series X only, no tap/angle asymmetry), B'' uses the full Ybus-derived
// susceptance including shunts, matching the classical Stott formulation.
func BuildFastDecoupled(branches []grid.Branch, nBus int) FastDecoupledPrimitives {
	bpB := NewRealTripletBuilder(nBus, nBus)
	bppB := NewRealTripletBuilder(nBus, nBus)

	for _, br := range branches {
		if !br.Active {
			continue
		}
		f, t := br.From, br.To

		// B': series reactance only, taps ignored (classical XB variant).
		bSeries := 1.0 / br.X
		bpB.Add(f, f, bSeries)
		bpB.Add(f, t, -bSeries)
		bpB.Add(t, f, -bSeries)
		bpB.Add(t, t, bSeries)

		// B'': full susceptance including shunt half and tap module, the
		// negated imaginary part of Ybus's primitive block (same sign
		// convention as B').
		yff, yft, ytf, ytt := BranchPrimitive(br, grid.SeqPositive)
		bppB.Add(f, f, -imag(yff))
		bppB.Add(f, t, -imag(yft))
		bppB.Add(t, f, -imag(ytf))
		bppB.Add(t, t, -imag(ytt))
	}

	return FastDecoupledPrimitives{BPrime: bpB.Build(), BDoublePrime: bppB.Build()}
}
