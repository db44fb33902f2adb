package reduction

import (
	"github.com/gridnum/gridnum/pkg/admittance"
)

// DCInversePF is the boundary-load redistribution result of spec §4.8's
// "DC inverse PF" step.
type DCInversePF struct {
	ThetaB         []float64       // theta_full restricted to the boundary buses
	PTarget        []float64       // B_red * theta_B
	PGenAssigned   map[int]float64 // aggregated by boundary bus
	LNew           map[int]float64 // P_gen_assigned - P_target, per boundary bus
}

// ComputeDCInversePF implements spec §4.8 steps 1-5:
//  1. thetaFull is the full-network DC solve (computed by the caller, e.g.
//     powerflow.DC), thetaB its restriction to the boundary set.
//  2. bRedG1 is Bbus built from Y_eq_G1 (the Ward-reduced network).
//  3. P_target = B_red * theta_B.
//  4. P_gen_assigned[b] = sum of generator output relocated onto boundary
//     bus b (via RelocationResult.GenToBoundary).
//  5. L_new = P_gen_assigned - P_target.
func ComputeDCInversePF(thetaFull []float64, boundary []int, bRedG1 *admittance.RealCSR, genOutput map[int]float64, relocation RelocationResult) DCInversePF {
	thetaB := make([]float64, len(boundary))
	for k, b := range boundary {
		thetaB[k] = thetaFull[b]
	}

	pTarget := bRedG1.MulVec(thetaB)

	pGenAssigned := make(map[int]float64, len(boundary))
	for _, b := range boundary {
		pGenAssigned[b] = 0
	}
	for gen, p := range genOutput {
		b, ok := relocation.GenToBoundary[gen]
		if !ok {
			b = gen // already a boundary-resident generator
		}
		pGenAssigned[b] += p
	}

	lNew := make(map[int]float64, len(boundary))
	for k, b := range boundary {
		lNew[b] = pGenAssigned[b] - pTarget[k]
	}

	return DCInversePF{
		ThetaB:       thetaB,
		PTarget:      pTarget,
		PGenAssigned: pGenAssigned,
		LNew:         lNew,
	}
}
