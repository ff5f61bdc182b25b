package sixaxis

// LEDReportSize is the wire size of the LED/rumble output report
// (spec.md §4.2: "36-byte output report").
const LEDReportSize = 36

// LED bit positions in the LED bitmap (byte 10, shifted left by one bit on
// the wire).
const (
	LED1 byte = 1 << 0
	LED2 byte = 1 << 1
	LED3 byte = 1 << 2
	LED4 byte = 1 << 3
)

// BlinkTimer is one of the four 5-byte LED blink timers (duration,
// tick-high, tick-low, off-ticks, on-ticks).
type BlinkTimer struct {
	Duration byte
	TickHi   byte
	TickLo   byte
	OffTicks byte
	OnTicks  byte
}

// Fast blink cadence: 10ms ticks, 990ms off / 10ms on (spec.md §4.2).
var FastBlink = BlinkTimer{Duration: 0xFF, TickHi: 0x27, TickLo: 0x10, OffTicks: 99, OnTicks: 1}

// Steady: continuously on (timer[2]/timer[3] left at zero, matching the
// original, which only ever writes timer[1] and timer[4] for this case).
var SteadyOn = BlinkTimer{Duration: 0xFF, TickHi: 0x80, TickLo: 0x00, OffTicks: 0x00, OnTicks: 0x80}

// AllLEDsOn is the pattern issued on close (spec.md §4.3: "issue
// deactivation and an 'all LEDs on' pattern").
var AllLEDsOn = LED1 | LED2 | LED3 | LED4

// ledBitmapOffset is the byte 10 LED-bitmap slot within the 36-byte report
// (spec.md §4.2). LED slot i's timer sits at byte 26-5*i (LED1/i=0 -> 26,
// LED2/i=1 -> 21, LED3/i=2 -> 16, LED4/i=3 -> 11): descending, not ascending.
const ledBitmapOffset = 10

func baseLEDReport() []byte {
	b := make([]byte, LEDReportSize)
	b[0] = 0x01
	return b
}

func ledTimerOffset(slot int) int {
	return 26 - 5*slot
}

func writeTimer(b []byte, slot int, t BlinkTimer) {
	off := ledTimerOffset(slot)
	b[off+0] = t.Duration
	b[off+1] = t.TickHi
	b[off+2] = t.TickLo
	b[off+3] = t.OffTicks
	b[off+4] = t.OnTicks
}

// LEDReports builds the output-report transaction(s) a set-report(output)
// call sends. bitmap has one bit per LED (bit0=LED1..bit3=LED4); it is
// shifted left by one bit to land in byte 10, matching the wire layout
// (spec.md §4.2). When blink is true, two transactions are returned: first
// a reset report carrying only the bitmap (no timers, so any running
// pattern restarts in sync), then a report with the blink cadence written
// into every lit LED's timer slot (spec.md §8 scenario S6, e.g. bitmap bits
// 1 and 3 set -> timer slots at byte offsets 21 and 11 filled). When blink
// is false, a single report is returned with the steady-on pattern written
// into every lit LED's timer slot.
func LEDReports(bitmap byte, pattern BlinkTimer, blink bool) [][]byte {
	if !blink {
		steady := baseLEDReport()
		steady[ledBitmapOffset] = bitmap << 1
		for slot := 0; slot < 4; slot++ {
			if bitmap&(1<<uint(slot)) != 0 {
				writeTimer(steady, slot, SteadyOn)
			}
		}
		return [][]byte{steady}
	}

	reset := baseLEDReport()
	reset[ledBitmapOffset] = bitmap << 1

	filled := baseLEDReport()
	filled[ledBitmapOffset] = bitmap << 1
	for slot := 0; slot < 4; slot++ {
		if bitmap&(1<<uint(slot)) != 0 {
			writeTimer(filled, slot, pattern)
		}
	}
	return [][]byte{reset, filled}
}
