package sixaxis

// ActivationLevel selects the vendor feature report value that drives input
// streaming on/off (spec.md §4.2).
type ActivationLevel byte

const (
	ActivationOff      ActivationLevel = 1
	ActivationOn       ActivationLevel = 3
	ActivationInactive ActivationLevel = 8 // "parked": powers the controller down
)

// ActivationReport builds the SET_REPORT/Feature payload
// "0xf4 0x42 v 0x00 0x00" that enables or disables input streaming. Must be
// sent before any input report is expected, and on every Open/Close
// transition (spec.md §4.2).
func ActivationReport(level ActivationLevel) []byte {
	return []byte{ActivationReportID, 0x42, byte(level), 0x00, 0x00}
}
