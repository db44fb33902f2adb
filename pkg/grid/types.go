// Package grid is the external data model consumed by the numerical core:
// plain arrays of bus/branch/injection/contingency records, in canonical
// device order, exactly as enumerated in spec §6.1. Parsing these arrays out
// of MATPOWER/PSS/E/JSON files is a collaborator's job, out of scope here —
// grid only defines the in-memory shape.
package grid

// BusType classifies a bus for simulation-index derivation (spec §4.3).
type BusType int

const (
	PQ BusType = iota + 1
	PV
	Slack
	NoSlackBus
)

// Bus is one network node.
type Bus struct {
	Name    string
	VNom    float64 // kV
	VMin    float64 // pu
	VMax    float64 // pu
	Type    BusType
	IsDC    bool
	V0      float64 // pu, initial |V|
	Theta0  float64 // rad, initial angle
	Area    string
	Zone    string
	Active  bool
}

// BranchKind is the tagged-variant discriminator driving assembler dispatch
// (spec §9: "all variants produce the same (yff, yft, ytf, ytt) tuple, so
// downstream code is branch-agnostic").
type BranchKind int

const (
	KindLine BranchKind = iota
	KindTransformer
	KindDCLine
	KindVSC
	KindUPFC
	KindSwitch
)

// WindingConn classifies the winding connection for sequence-domain
// assembly (spec §4.2, zero/negative sequence primitives).
type WindingConn int

const (
	ConnYY WindingConn = iota
	ConnGG
	ConnGD
	ConnSD // identical to GD per spec §9 open question
)

// ControlMode tags what a branch's tap/angle control targets (used only for
// CompileError::InvalidControl validation, spec §4.1).
type ControlMode int

const (
	ControlFixed ControlMode = iota
	ControlVfController
	ControlPfController
	ControlVscAC
	ControlVscDC
)

// Sequence selects which symmetrical-component network a primitive build
// targets (spec §4.2).
type Sequence int

const (
	SeqPositive Sequence = 0
	SeqNegative Sequence = 1
	SeqZero     Sequence = 2
)

// Branch is a two-terminal (or VSC/UPFC) device connecting two buses.
type Branch struct {
	Name    string
	Kind    BranchKind
	From    int // bus index
	To      int // bus index
	R, X    float64
	G, B    float64 // shunt pi-model halves
	M       float64 // tap module
	Tau     float64 // tap angle, rad
	VTapF   float64
	VTapT   float64
	Rate    float64 // MVA
	CtgRate float64 // MVA, contingency rating
	Active  bool
	Conn    WindingConn
	Control ControlMode

	// VSC-specific quadratic loss coefficients: loss = a1 + a2|I| + a3|I|^2
	Alpha1, Alpha2, Alpha3 float64
	Gsw                    float64 // switching-loss conductance
	Beq                    float64 // equivalent shunt susceptance
}

// InjectionKind distinguishes the four injection device families.
type InjectionKind int

const (
	KindLoad InjectionKind = iota
	KindGenerator
	KindBattery
	KindShunt
)

// Injection is a Load | Generator | Battery | Shunt attached to a bus.
type Injection struct {
	Name         string
	Kind         InjectionKind
	Bus          int
	P, Q         float64 // pu
	VSet         float64 // pu, generator voltage setpoint
	QMin, QMax   float64
	PMin, PMax   float64
	IsSlack      bool
	IsControlled bool
	Active       bool
	// Shunt-only: admittance in pu, read when Kind==KindShunt
	G, B float64
	Cost [3]float64 // c0, c1, c2
}

// ContingencyOp is the operation a Contingency applies to its target device.
type ContingencyOp int

const (
	OpActive         ContingencyOp = iota // outage
	OpPowerPercentage                     // injection scaling
)

// Contingency targets one device by idtag.
type Contingency struct {
	DeviceIdTag string
	Op          ContingencyOp
	Value       float64 // scaling factor in [0,1] for OpPowerPercentage
}

// ContingencyGroup is an ordered N-k event: all member Contingencies are
// applied jointly.
type ContingencyGroup struct {
	Name    string
	Members []Contingency
}

// Snapshot is the full set of canonical-order arrays a NumericalCircuit
// compiles from, per spec §6.1.
type Snapshot struct {
	Buses        []Bus
	Branches     []Branch
	Injections   []Injection
	Contingencies []ContingencyGroup

	SBase     float64 // MVA
	FreqHz    float64

	// IdTag lookup for contingency resolution: branch/injection idtag -> index.
	BranchIdTag    map[string]int
	InjectionIdTag map[string]int
}
