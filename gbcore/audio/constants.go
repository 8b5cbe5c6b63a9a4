package audio

// Timing constants
// Reference: https://gbdev.io/pandocs/Audio_details.html
const (
	// ClockHz is the master system clock the APU's internal counters are driven from.
	ClockHz = 4_194_304

	// SampleHz is the output sample rate exposed to the host.
	SampleHz = 44_100

	// frameSequencerCycles is the number of CPU cycles per frame sequencer tick.
	// The frame sequencer runs at 512 Hz: 4194304 Hz / 512 Hz = 8192 t-cycles.
	frameSequencerCycles = ClockHz / 512

	// sampleCyclesFixed is the (fractional) number of CPU cycles between two
	// generated samples; kept as a fixed-point accumulator in APU.
	sampleCyclesFixed = (ClockHz << fpShift) / SampleHz
)

// Channel constants
const (
	// waveRAMSize is the size of wave pattern RAM in bytes (16 bytes = 32 nibbles).
	waveRAMSize = 16

	// dutyPhases is the number of steps in a duty cycle (eighths).
	dutyPhases = 8

	// frequencyToTimerOffset converts an NRx3/NRx4 raw period into a
	// channel period expressed in the same 2048-based unit for channels 1-3.
	frequencyToTimerOffset = 2048

	// fpShift is the fixed-point precision used by the phase accumulators.
	fpShift = 8

	pulseIncrement = 1 << fpShift
	waveIncrement  = 1 << fpShift

	waveTableSize = 32

	lfsrInitialValue        = 0x7FFF
	noiseWidthBit           = 3
	highFrequencyThreshold  = 256
	maxLFSRUpdatesPerSample = 64
)

// dutyPatterns holds the eight-step high/low pattern for each of the four
// duty cycle settings (12.5%, 25%, 50%, 75%), MSB first.
var dutyPatterns = [4]uint8{
	0b00000001,
	0b10000001,
	0b10000111,
	0b01111110,
}

// waveVolumeShift maps the 2-bit NR32 output-level code to a right shift
// applied to the raw 4-bit wave sample; a shift of 4 mutes the channel.
var waveVolumeShift = [4]uint8{4, 0, 1, 2}

// Sample scaling
const (
	// sampleAmplitude converts a 0..15 volume level into a signed 16-bit
	// excursion for a single channel.
	sampleAmplitude = 1000

	maxSampleValue = 32767
	minSampleValue = -32768

	// channelMixScale is the per-channel attenuation applied before the
	// master mix, so four simultaneous channels cannot clip.
	channelMixScale = 0.25
)

// Buffer sizing for the per-channel and master sample ring buffers.
const (
	// initialBufferCapacity is the starting capacity for a fresh ring buffer.
	initialBufferCapacity = 4096

	// maxBufferSize is the point at which a ring buffer is trimmed back,
	// guarding against unbounded growth if a consumer stops draining it.
	maxBufferSize = SampleHz * 2 * 2

	// bufferRetainSize is how much of the tail is kept after trimming.
	bufferRetainSize = SampleHz * 2
)

// Register bit positions
const (
	triggerBit          = 7
	envelopeIncreaseBit = 3
	waveDACBit          = 7
)

// NR52 status bits
const (
	nr52PowerMask     = 0x80
	nr52Ch1StatusMask = 0x01
	nr52Ch2StatusMask = 0x02
	nr52Ch3StatusMask = 0x04
	nr52Ch4StatusMask = 0x08
	nr52UnusedMask    = 0x70

	waveRAMRegisterOffset = 0x20 // registers[0x20:0x30] mirrors 0xFF30-0xFF3F
)

// readOrMask holds the bits that always read back as 1 for each audio
// register offset (0x00-0x2F from 0xFF10), reflecting the write-only bits
// hardware doesn't latch for readback.
// Reference: https://gbdev.io/pandocs/Audio_Registers.html#registers-overview
var readOrMask = [0x30]uint8{
	0x00: 0x80, 0x01: 0x3F, 0x02: 0x00, 0x03: 0xFF, 0x04: 0xBF, 0x05: 0xFF,
	0x06: 0x3F, 0x07: 0x00, 0x08: 0xFF, 0x09: 0xBF, 0x0A: 0x7F, 0x0B: 0xFF,
	0x0C: 0x9F, 0x0D: 0xFF, 0x0E: 0xBF, 0x0F: 0xFF,
	0x10: 0xFF, 0x11: 0x00, 0x12: 0x00, 0x13: 0xBF, 0x14: 0x00, 0x15: 0x00, 0x16: 0x70,
	0x17: 0xFF, 0x18: 0xFF, 0x19: 0xFF, 0x1A: 0xFF, 0x1B: 0xFF, 0x1C: 0xFF, 0x1D: 0xFF, 0x1E: 0xFF, 0x1F: 0xFF,
}
