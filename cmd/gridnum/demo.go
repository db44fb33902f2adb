package main

import "github.com/gridnum/gridnum/pkg/grid"

// demoSnapshot is a small 3-bus radial network (slack -> bus1 -> bus2,
// loads at bus1 and bus2) in the shape of spec §8's 3-bus Scenario A: small enough to
// eyeball the solver output, large enough to exercise slack/PQ bus
// classification and a two-branch admittance assembly.
func demoSnapshot() grid.Snapshot {
	buses := []grid.Bus{
		{Name: "slack", VNom: 138, VMin: 0.9, VMax: 1.1, Type: grid.Slack, V0: 1.0, Active: true},
		{Name: "bus1", VNom: 138, VMin: 0.9, VMax: 1.1, Type: grid.PQ, V0: 1.0, Active: true},
		{Name: "bus2", VNom: 138, VMin: 0.9, VMax: 1.1, Type: grid.PQ, V0: 1.0, Active: true},
	}

	branches := []grid.Branch{
		{Name: "line-0-1", Kind: grid.KindLine, From: 0, To: 1, R: 0.01, X: 0.08, Rate: 100, CtgRate: 130, Active: true, M: 1, VTapF: 1, VTapT: 1},
		{Name: "line-1-2", Kind: grid.KindLine, From: 1, To: 2, R: 0.01, X: 0.10, Rate: 100, CtgRate: 130, Active: true, M: 1, VTapF: 1, VTapT: 1},
	}

	injections := []grid.Injection{
		{Name: "load-2", Kind: grid.KindLoad, Bus: 2, P: 0.6, Q: 0.2, Active: true},
		{Name: "load-1", Kind: grid.KindLoad, Bus: 1, P: 0.2, Q: 0.05, Active: true},
	}

	return grid.Snapshot{
		Buses:      buses,
		Branches:   branches,
		Injections: injections,
		SBase:      100,
		FreqHz:     60,
		BranchIdTag: map[string]int{
			"line-0-1": 0,
			"line-1-2": 1,
		},
		InjectionIdTag: map[string]int{
			"load-2": 0,
			"load-1": 1,
		},
	}
}
