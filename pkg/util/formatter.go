// Package util carries small formatting helpers shared by cmd/gridnum's
// report printers.
package util

import (
	"fmt"
	"math"
	"math/cmplx"
)

// FormatPU renders a per-unit quantity (voltage magnitude, flow, etc.) at
// fixed precision.
func FormatPU(value float64) string {
	return fmt.Sprintf("%8.5f pu", value)
}

// FormatMW converts a per-unit power value to MW/MVAr given the system base,
// scaling into the nearest SI prefix bucket so a distribution-feeder shunt
// injection and a transmission-line rating both print at readable
// precision instead of trailing zeros or scientific notation.
func FormatMW(valuePU, sBase float64) string {
	mw := valuePU * sBase
	absMW := math.Abs(mw)
	switch {
	case absMW >= 1:
		return fmt.Sprintf("%.3f MW", mw)
	case absMW >= 1e-3:
		return fmt.Sprintf("%.3f kW", mw*1e3)
	case absMW == 0:
		return "0.000 MW"
	default:
		return fmt.Sprintf("%.3e MW", mw)
	}
}

// FormatAngleDeg renders a phase angle in radians as degrees.
func FormatAngleDeg(radians float64) string {
	return fmt.Sprintf("%7.3f deg", radians*180/math.Pi)
}

// FormatComplexPU renders a per-unit phasor as magnitude<angle, the report
// line shape toy-spice used for AC-sweep node voltages (magnitude/phase
// pair), generalized from volts/amps to bus voltage and branch flow
// phasors.
func FormatComplexPU(v complex128) string {
	mag := cmplx.Abs(v)
	ang := cmplx.Phase(v) * 180 / math.Pi
	return fmt.Sprintf("%8.5f<%7.3fdeg", mag, ang)
}
