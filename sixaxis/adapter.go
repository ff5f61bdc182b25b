package sixaxis

import "github.com/btsixad/btsixad/device"

// Adapter implements device.Capability for the Sixaxis/DualShock 3 gamepad
// (spec.md §4.2). It carries no state: every method is a pure function of
// its arguments and the package-level descriptor/LED tables.
type Adapter struct{}

// NewAdapter returns the Sixaxis capability set.
func NewAdapter() Adapter { return Adapter{} }

var _ device.Capability = Adapter{}

func (Adapter) Descriptor() device.ReportDescriptor { return SixaxisDescriptor }

func (Adapter) ActivationReport(active bool) []byte {
	level := ActivationOff
	if active {
		level = ActivationOn
	}
	return ActivationReport(level)
}

func (Adapter) ParkedReport() []byte {
	return ActivationReport(ActivationInactive)
}

func (Adapter) LEDReports(bitmap byte, blink bool) [][]byte {
	return LEDReports(bitmap, FastBlink, blink)
}

func (Adapter) FixupInput(report []byte) {
	FixupInput(report)
}
