// Package sixaxis implements the Sixaxis capability set: the fixed report
// descriptor substituted for the untrusted over-the-air one, the vendor
// activation/LED feature and output reports, and the input-report byte
// rewrite (spec.md §4.2).
package sixaxis

// Descriptor is the immutable report descriptor record (spec.md §3).
type Descriptor struct {
	bytes       []byte
	HasReportID bool
}

// Bytes returns the raw descriptor bytes. The slice is shared and must not
// be mutated by callers (spec.md §8 property 7: "byte-identical to the
// static Sixaxis descriptor").
func (d *Descriptor) Bytes() []byte { return d.bytes }

// Len is the descriptor length in bytes.
func (d *Descriptor) Len() int { return len(d.bytes) }

// FirstReportID returns the descriptor's sole report ID, or 0 if the
// descriptor is ID-less (chardev ioctl get-report-id, spec.md §4.7).
func (d *Descriptor) FirstReportID() byte {
	if !d.HasReportID {
		return 0
	}
	return InputReportID
}

// Report IDs used throughout the descriptor and the wire protocol. The
// descriptor declares a single top-level Report ID (1), which scopes the
// input, output, and feature reports alike; the 0xF4/0x42 activation prefix
// is a body-format convention layered on top of the feature report, not a
// separate descriptor-declared ID.
const (
	InputReportID      = 0x01
	OutputReportID     = 0x01
	ActivationReportID = 0xF4
)

// InputReportSize is the full wire size of an input report, including the
// leading report-ID byte (spec.md §4.2: "49-byte input reports").
const InputReportSize = 49

// descriptorBytes is a literal transcription of the original Sixaxis HID
// report descriptor: one top-level Game Pad collection under report ID 1,
// carrying 11 buttons (4 face + 7 shoulder/system) reshuffled into place by
// FixupInput, a converted D-pad hat switch, two thumbstick collections, two
// analog triggers reported as Wheel/Slider, and a shared 48-byte
// output/feature report pair. 122 bytes.
var descriptorBytes = []byte{
	0x05, 0x01, //       Usage Page - Generic Desktop
	0x09, 0x05, //       Usage - Gamepad
	0xa1, 0x01, //       Collection - Application
	0x85, 0x01, //           Report ID - 1

	0x14,       //           Logical Minimum - 0
	0x25, 0x01, //           Logical Maximum - 1
	0x75, 0x01, //           Report Size - 1
	0x95, 0x14, //           Report Count - 20
	0x81, 0x01, //           Input (Const, Array, Absolute) [padding]
	//                       - 8 bits original padding
	//                       - 12 shuffled away buttons
	0x05, 0x09, //           Usage Page - Button
	0x19, 0x01, //           Usage Minimum - Button 1
	0x29, 0x04, //           Usage Maximum - Button 4
	0x95, 0x04, //           Report Count - 4
	0x81, 0x02, //           Input (Data, Variable, Absolute)
	//                       - X, O, Square, Triangle reshuffled in place
	0x81, 0x01, //           Input (Const, Array, Absolute) [padding]
	//                       - 3 shuffled away buttons (1 soldered) and padding
	0x19, 0x05, //           Usage Minimum - Button 5
	0x29, 0x0b, //           Usage Maximum - Button 11
	0x95, 0x07, //           Report Count - 7
	0x81, 0x02, //           Input (Data, Variable, Absolute)
	//                       - reshuffled buttons
	0x95, 0x01, //           Report Count - 1
	0x81, 0x01, //           Input (Const, Array, Absolute) [padding]

	0x05, 0x01, //           Usage Page - Generic Desktop
	0x09, 0x39, //           Usage - Hat switch
	0x14,             //     Logical Minimum - 0
	0x25, 0x07,       //     Logical Maximum - 7
	0x34,             //     Physical Minimum - 0
	0x46, 0x3b, 0x01, //     Physical Maximum - 315
	0x65, 0x14, //           Unit - Degrees
	0x75, 0x04, //           Report Size - 4
	0x81, 0x42, //           Input (Data, Variable, Absolute, Null State)
	//                       - converted D-pad
	0x64, //                 Unit - None

	0x09, 0x01, //           Usage - Pointer
	0xa1, 0x00, //           Collection - Physical
	0x09, 0x30, //               Usage - X
	0x09, 0x31,       //         Usage - Y
	0x26, 0xff, 0x00, //         Logical Maximum - 255
	0x35, 0x80, //               Physical Minimum - -128
	0x45, 0x7f, //               Physical Maximum - 127
	0x75, 0x08, //               Report Size - 8
	0x95, 0x02, //               Report Count - 2
	0x81, 0x02, //               Input (Data, Variable, Absolute)
	0xc0,       //           End Collection
	0x09, 0x01, //           Usage - Pointer
	0xa1, 0x00, //           Collection - Physical
	0x09, 0x33, //               Usage - Rx [not X]
	0x09, 0x34, //               Usage - Ry [not Y]
	0x81, 0x02, //               Input (Data, Variable, Absolute)
	0xc0,       //           End Collection

	0x95, 0x08, //           Report Count - 8
	0x81, 0x01, //           Input (Const, Array, Absolute) [padding]
	0x09, 0x38,       //     Usage - Wheel [not second Slider]
	0x09, 0x36,       //     Usage - Slider
	0x34,             //     Physical Minimum - 0
	0x46, 0xff, 0x00, //     Physical Maximum - 255
	0x95, 0x02, //           Report Count - 2
	0x81, 0x02, //           Input (Data, Variable, Absolute)
	//                       - L2, R2
	0x44,       //           Physical Maximum - 0
	0x95, 0x1d, //           Report Count - 29
	0x81, 0x01, //           Input (Const, Array, Absolute) [padding]
	0x75, 0x08, //           Report Size - 8
	0x95, 0x30, //           Report Count - 48
	0x91, 0x02, //           Output (Data, Variable, Absolute)
	0xb1, 0x02, //           Feature (Data, Variable, Absolute)
	0xc0, //             End Collection
}

// SixaxisDescriptor is the static descriptor substituted for the peer's own,
// untrusted, over-the-air descriptor (spec.md §4.2, §1 Non-goals).
var SixaxisDescriptor = &Descriptor{bytes: descriptorBytes, HasReportID: true}
