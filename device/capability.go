package device

// ReportDescriptor is the HID report descriptor a Capability publishes in
// place of the peer's own, untrusted descriptor (spec.md §4.2).
type ReportDescriptor interface {
	Bytes() []byte
	Len() int
	FirstReportID() byte
}

// Capability is everything the device state machine needs to know about a
// specific gamepad's report shapes. It has no dependency in the other
// direction: the device package never imports a concrete adapter package,
// so a second adapter can be added without touching the state machine
// (spec.md §9 design note: "express this as a capability set... leaving the
// door open for additional devices without touching the transport core").
type Capability interface {
	// Descriptor is served to the peer in place of its own.
	Descriptor() ReportDescriptor

	// ActivationReport builds the feature report that enables (active) or
	// disables input streaming (spec.md §4.2).
	ActivationReport(active bool) []byte

	// ParkedReport builds the feature report issued when the Closed-state
	// inactivity timer fires (spec.md §4.3, §7).
	ParkedReport() []byte

	// LEDReports builds the output-report transaction(s) for the given
	// per-unit LED bitmap; blink selects the fast-blink pattern over steady
	// on/off (spec.md §4.2, §4.3).
	LEDReports(bitmap byte, blink bool) [][]byte

	// FixupInput rewrites an input report in place before it reaches the
	// host; adapters with nothing to rewrite may leave report untouched.
	FixupInput(report []byte)
}
