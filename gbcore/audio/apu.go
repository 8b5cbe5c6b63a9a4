package audio

import (
	"sync"

	"github.com/arl/blip"
	"github.com/kobold-systems/lr35902/gbcore/addr"
	"github.com/kobold-systems/lr35902/gbcore/bit"
)

// ChannelState holds per-channel state
type ChannelState struct {
	enabled bool
	freq    uint16
	volume  uint8
	counter uint32 // Fixed-point counter (8.8) for ch1-3, plain for ch4

	// Pulse channels only (ch1, ch2)
	duty uint8

	// Envelope state (ch1, ch2, ch4)
	envelopePeriod    uint8
	envelopeDirection uint8 // 0 = decrease, 1 = increase
	envelopeTimer     uint8

	// Length counter
	lengthCounter uint16
	lengthEnabled bool

	// Noise channel specific (ch4)
	noisePeriod uint16 // Calculated period from NR43

	// Sweep state (ch1 only)
	sweepPeriod    uint8
	sweepDirection uint8 // 0 = increase, 1 = decrease
	sweepShift     uint8
	sweepTimer     uint8
	sweepEnabled   bool
	sweepShadow    uint16

	// Per-channel ring buffer of post-pan, post-master-volume stereo
	// samples, independent from the band-limited master mix.
	ringBuffer []int16

	// Debug
	muted bool
}

// APU implements the Game Boy's Audio Processing Unit.
// Reference: https://gbdev.io/pandocs/Audio.html
type APU struct {
	// mu protects APU state during concurrent write operations.
	// Reads don't need protection for simple types (bool, uint8, uint16)
	// but complex operations (like power-off clearing registers) do.
	mu sync.Mutex

	enabled   bool       // Master audio enable (NR52 bit 7)
	registers [0x30]byte // Audio registers FF10-FF3F (48 bytes)

	// Frame sequencer state.
	// Runs at 512 Hz, advances every frameSequencerCycles (8192) CPU cycles.
	frameCounter int // Current step (0-7) in frame sequence
	frameCycles  int // CPU cycles since last frame sequencer tick

	// Sample generation state, driving the per-channel ring buffers.
	sampleCycleAccum uint64 // Fixed-point (fpShift) CPU cycles since the last sample

	// Channel states (indexed 0-3 for channels 1-4)
	channels [4]ChannelState

	// Channel 3 specific
	ch3WaveRAM [waveRAMSize]uint8

	// Channel 4 specific
	ch4LFSR uint16 // Linear feedback shift register for noise

	// Band-limited master mix, resampled from the 4,194,304 Hz system
	// clock down to SampleHz using arl/blip; this is what Provider.GetSamples
	// drains for host playback.
	blipLeft, blipRight *blip.Buffer
	lastMasterLeft       int32
	lastMasterRight      int32
	masterScratch        []int16
	sampleBuffer         []int16 // interleaved L,R pairs awaiting consumption
	sampleBufferMu       sync.Mutex
}

const masterScratchSamples = 256

// New creates a new APU instance with initial register values
func New() *APU {
	apu := &APU{
		enabled:       true,
		sampleBuffer:  make([]int16, 0, initialBufferCapacity),
		ch4LFSR:       lfsrInitialValue,
		blipLeft:      blip.NewBuffer(masterScratchSamples),
		blipRight:     blip.NewBuffer(masterScratchSamples),
		masterScratch: make([]int16, masterScratchSamples*2),
	}
	apu.blipLeft.SetRates(ClockHz, SampleHz)
	apu.blipRight.SetRates(ClockHz, SampleHz)
	for i := range apu.channels {
		apu.channels[i].ringBuffer = make([]int16, 0, initialBufferCapacity)
	}
	apu.initRegisters()
	return apu
}

// initRegisters sets the initial power-on values for audio registers.
// Reference: https://gbdev.io/pandocs/Power_Up_Sequence.html#hardware-registers
func (a *APU) initRegisters() {
	// Channel 1 registers
	a.registers[0x10] = 0x80 // NR10: Sweep off
	a.registers[0x11] = 0xBF // NR11: Duty 50%, length counter loaded with max
	a.registers[0x12] = 0xF3 // NR12: Max volume, decrease, period 3
	a.registers[0x14] = 0xBF // NR14: Counter mode, frequency MSB

	// Channel 2 registers
	a.registers[0x16] = 0x3F // NR21: Duty 12.5%, length counter max
	a.registers[0x17] = 0x00 // NR22: Muted
	a.registers[0x19] = 0xBF // NR24: Counter mode, frequency MSB

	// Channel 3 registers
	a.registers[0x1A] = 0x7F // NR30: DAC off
	a.registers[0x1B] = 0xFF // NR31: Length counter max
	a.registers[0x1C] = 0x9F // NR32: Volume 0
	a.registers[0x1E] = 0xBF // NR34: Counter mode

	// Channel 4 registers
	a.registers[0x20] = 0xFF // NR41: Length counter max
	a.registers[0x21] = 0x00 // NR42: Muted
	a.registers[0x22] = 0x00 // NR43: Clock divider 0
	a.registers[0x23] = 0xBF // NR44: Counter mode

	// Global control registers
	a.registers[0x24] = 0x77 // NR50: Max volume both channels
	a.registers[0x25] = 0xF3 // NR51: All channels left, channels 1-2 right
	a.registers[0x26] = 0xF1 // NR52: Sound on, channel 1 status on

	// Initialize noise period with default value from NR43 = 0x00
	// divisor = 0.5, shift = 0, frequency = 524288 Hz
	a.channels[3].noisePeriod = 21
}

func (a *APU) Tick(cycles int) {
	if !a.enabled {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Frame sequencer (512 Hz): envelopes, length counters, sweep.
	a.frameCycles += cycles
	for a.frameCycles >= frameSequencerCycles {
		a.frameCycles -= frameSequencerCycles
		a.updateFrameSequencer()
	}

	// Each channel's digital waveform advances once per generated sample,
	// at the ~44100 Hz sample rate (not once per CPU tick): this decouples
	// the cost of the inner CPU loop from the number of audio channels.
	a.sampleCycleAccum += uint64(cycles) << fpShift
	for a.sampleCycleAccum >= sampleCyclesFixed {
		a.sampleCycleAccum -= sampleCyclesFixed

		raws := [4]int16{
			a.generateChannel1(),
			a.generateChannel2(),
			a.generateChannel3(),
			a.generateChannel4(),
		}

		// Per-channel ring buffers, used for debug visualization and as
		// the literal per-channel sample stream exposed to the host.
		a.appendChannelSamples(raws)

		// Band-limited master mix: blip resamples this (already
		// quantized to sample-rate) source down to SampleHz, smoothing
		// the inter-sample steps before the host reads it back.
		a.updateMasterMix(int(sampleCyclesFixed>>fpShift), raws)
	}
}

// updateFrameSequencer advances the frame sequencer which controls
// sweep, length counter, and envelope timing.
//
//	Step   Length  Sweep  Envelope
//	0      Clock   -      -
//	1      -       -      -
//	2      Clock   Clock  -
//	3      -       -      -
//	4      Clock   -      -
//	5      -       -      -
//	6      Clock   Clock  -
//	7      -       -      Clock
//
// Reference: https://gbdev.io/pandocs/Audio_details.html#frame-sequencer
func (a *APU) updateFrameSequencer() {
	a.frameCounter = (a.frameCounter + 1) & 7
	switch a.frameCounter {
	case 0, 4:
		a.updateLengthCounters()
	case 2, 6:
		a.updateLengthCounters()
		a.updateSweep()
	case 7:
		a.updateEnvelopes()
	}
}

func (a *APU) updateLengthCounters() {
	for i := range a.channels {
		if a.channels[i].lengthEnabled && a.channels[i].lengthCounter > 0 {
			a.channels[i].lengthCounter--
			if a.channels[i].lengthCounter == 0 {
				a.channels[i].enabled = false
			}
		}
	}
}

// updateSweep runs channel 1's frequency sweep at 128 Hz.
func (a *APU) updateSweep() {
	ch := &a.channels[0]
	if !ch.sweepEnabled || ch.sweepTimer == 0 {
		return
	}

	ch.sweepTimer--
	if ch.sweepTimer > 0 {
		return
	}

	if ch.sweepPeriod > 0 {
		ch.sweepTimer = ch.sweepPeriod
	} else {
		ch.sweepTimer = 8
	}

	if ch.sweepPeriod == 0 {
		return
	}

	newFreq := a.computeSweepFrequency()
	if newFreq > 2047 {
		ch.enabled = false
		ch.sweepEnabled = false
		return
	}

	if ch.sweepShift > 0 {
		ch.sweepShadow = newFreq
		ch.freq = newFreq
		a.registers[0x03] = uint8(newFreq)
		a.registers[0x04] = (a.registers[0x04] & 0xF8) | uint8(newFreq>>8)

		// Overflow check is performed a second time with the new value.
		if a.computeSweepFrequency() > 2047 {
			ch.enabled = false
			ch.sweepEnabled = false
		}
	}
}

func (a *APU) computeSweepFrequency() uint16 {
	ch := &a.channels[0]
	delta := ch.sweepShadow >> ch.sweepShift
	if ch.sweepDirection == 1 {
		return ch.sweepShadow - delta
	}
	return ch.sweepShadow + delta
}

func (a *APU) updateEnvelopes() {
	// Only channels 0, 1, 3 have envelopes (ch1, ch2, ch4).
	for _, i := range []int{0, 1, 3} {
		if a.channels[i].envelopePeriod > 0 {
			a.channels[i].envelopeTimer++
			if a.channels[i].envelopeTimer >= a.channels[i].envelopePeriod {
				a.channels[i].envelopeTimer = 0
				if a.channels[i].envelopeDirection == 1 && a.channels[i].volume < 15 {
					a.channels[i].volume++
				} else if a.channels[i].envelopeDirection == 0 && a.channels[i].volume > 0 {
					a.channels[i].volume--
				}
			}
		}
	}
}

// panAndVolume returns the left/right gain multiplier for a channel given
// NR51 (panning) and NR50 (master volume, normalised 0..7 -> (vol+1)/8).
func (a *APU) panAndVolume(ch int) (left, right float64) {
	nr51 := a.registers[0x15] // NR51 at offset 0xFF25-0xFF10
	nr50 := a.registers[0x14] // NR50 at offset 0xFF24-0xFF10

	leftVol := float64(((nr50>>4)&0x07)+1) / 8.0
	rightVol := float64((nr50&0x07)+1) / 8.0

	if bit.IsSet(uint8(4+ch), nr51) {
		left = leftVol
	}
	if bit.IsSet(uint8(ch), nr51) {
		right = rightVol
	}
	return left, right
}

// appendChannelSamples appends the panned, volume-scaled stereo pair for
// each channel's already-computed raw sample to that channel's ring buffer.
func (a *APU) appendChannelSamples(raws [4]int16) {
	for i, raw := range raws {
		ch := &a.channels[i]
		if ch.muted || !ch.enabled {
			raw = 0
		}

		left, right := a.panAndVolume(i)
		l := clampSample(int32(float64(raw) * left))
		r := clampSample(int32(float64(raw) * right))

		ch.ringBuffer = append(ch.ringBuffer, l, r)
		if len(ch.ringBuffer) > maxBufferSize {
			ch.ringBuffer = ch.ringBuffer[len(ch.ringBuffer)-bufferRetainSize:]
		}
	}
}

// updateMasterMix feeds the combined, 0.25-scaled-per-channel mix into the
// left/right blip buffers and drains whatever band-limited output is ready
// into the interleaved sample buffer the Provider interface exposes.
func (a *APU) updateMasterMix(cycles int, raws [4]int16) {
	var left, right int32

	for i, raw := range raws {
		ch := &a.channels[i]
		if ch.muted || !ch.enabled {
			continue
		}
		l, r := a.panAndVolume(i)
		left += int32(float64(raw) * l * channelMixScale)
		right += int32(float64(raw) * r * channelMixScale)
	}

	left = clampSample(left)
	right = clampSample(right)

	if left != a.lastMasterLeft {
		a.blipLeft.AddDelta(0, left-a.lastMasterLeft)
		a.lastMasterLeft = left
	}
	if right != a.lastMasterRight {
		a.blipRight.AddDelta(0, right-a.lastMasterRight)
		a.lastMasterRight = right
	}

	a.blipLeft.EndFrame(cycles)
	a.blipRight.EndFrame(cycles)

	n := a.blipLeft.ReadSamples(a.masterScratch, masterScratchSamples, false)
	rn := a.blipRight.ReadSamples(a.masterScratch[masterScratchSamples:], masterScratchSamples, false)
	if rn < n {
		n = rn
	}

	a.sampleBufferMu.Lock()
	for i := 0; i < n; i++ {
		a.sampleBuffer = append(a.sampleBuffer, a.masterScratch[i], a.masterScratch[masterScratchSamples+i])
	}
	if len(a.sampleBuffer) > maxBufferSize {
		a.sampleBuffer = a.sampleBuffer[len(a.sampleBuffer)-bufferRetainSize:]
	}
	a.sampleBufferMu.Unlock()
}

func clampSample(v int32) int16 {
	if v > maxSampleValue {
		return maxSampleValue
	}
	if v < minSampleValue {
		return minSampleValue
	}
	return int16(v)
}

// generatePulseChannel generates a sample for a pulse channel (used by channels 1 and 2)
func (a *APU) generatePulseChannel(ch int) int16 {
	if a.channels[ch].volume == 0 || a.channels[ch].freq == 0 || a.channels[ch].freq >= frequencyToTimerOffset {
		return 0
	}

	period := uint32(frequencyToTimerOffset-a.channels[ch].freq) << fpShift
	a.channels[ch].counter += pulseIncrement
	if a.channels[ch].counter >= period {
		a.channels[ch].counter %= period
	}

	pattern := dutyPatterns[a.channels[ch].duty&3]
	phase := ((a.channels[ch].counter >> fpShift) * dutyPhases) / (period >> fpShift)
	dutyBit := (pattern >> (7 - phase)) & 1

	if dutyBit == 1 {
		return int16(a.channels[ch].volume) * sampleAmplitude
	}
	return -int16(a.channels[ch].volume) * sampleAmplitude
}

func (a *APU) generateChannel1() int16 {
	return a.generatePulseChannel(0)
}

func (a *APU) generateChannel2() int16 {
	return a.generatePulseChannel(1)
}

func (a *APU) generateChannel3() int16 {
	if !a.channels[2].enabled || a.channels[2].freq == 0 || a.channels[2].freq >= frequencyToTimerOffset {
		return 0
	}

	period := uint32(frequencyToTimerOffset-a.channels[2].freq) << fpShift
	a.channels[2].counter += waveIncrement
	if a.channels[2].counter >= period {
		a.channels[2].counter %= period
	}

	sampleIndex := ((a.channels[2].counter >> fpShift) * waveTableSize) / (period >> fpShift)
	nibbleIndex := sampleIndex / 2
	highNibble := sampleIndex&1 == 0

	sample := a.ch3WaveRAM[nibbleIndex]
	if highNibble {
		sample = (sample >> 4) & 0x0F
	} else {
		sample = sample & 0x0F
	}

	volumeShift := waveVolumeShift[a.channels[2].volume&3]
	if volumeShift >= 4 {
		return 0 // Muted
	}
	sample = sample >> volumeShift
	return (int16(sample) - 8) * 2048
}

func (a *APU) generateChannel4() int16 {
	if !a.channels[3].enabled || a.channels[3].volume == 0 {
		return 0
	}

	updatesNeeded := 1
	if a.channels[3].noisePeriod > 0 && a.channels[3].noisePeriod < highFrequencyThreshold {
		updatesNeeded = highFrequencyThreshold / int(a.channels[3].noisePeriod)
		if updatesNeeded > maxLFSRUpdatesPerSample {
			updatesNeeded = maxLFSRUpdatesPerSample
		}
	}

	for i := 0; i < updatesNeeded; i++ {
		a.stepLFSR()
	}

	if a.channels[3].noisePeriod >= highFrequencyThreshold {
		a.channels[3].counter += uint32(a.channels[3].noisePeriod)
		if a.channels[3].counter >= (highFrequencyThreshold << 8) {
			a.channels[3].counter -= highFrequencyThreshold << 8
			a.stepLFSR()
		}
	}

	if (a.ch4LFSR & 1) == 0 {
		return int16(a.channels[3].volume) * sampleAmplitude
	}
	return -int16(a.channels[3].volume) * sampleAmplitude
}

func (a *APU) stepLFSR() {
	feedbackBit := (a.ch4LFSR & 1) ^ ((a.ch4LFSR >> 1) & 1)
	a.ch4LFSR = (a.ch4LFSR >> 1) | (feedbackBit << 14)
	if bit.IsSet(noiseWidthBit, a.registers[0x12]) {
		a.ch4LFSR = (a.ch4LFSR & 0xFF7F) | (feedbackBit << 6)
	}
}

// ReadRegister reads from an audio register.
// Most reads don't need mutex protection as they read simple types.
func (a *APU) ReadRegister(address uint16) uint8 {
	if address < addr.AudioStart || address > addr.AudioEnd {
		return 0xFF
	}

	index := address - addr.AudioStart

	switch address {
	case addr.NR52:
		status := a.registers[index] & nr52PowerMask
		if a.channels[0].enabled {
			status |= nr52Ch1StatusMask
		}
		if a.channels[1].enabled {
			status |= nr52Ch2StatusMask
		}
		if a.channels[2].enabled {
			status |= nr52Ch3StatusMask
		}
		if a.channels[3].enabled {
			status |= nr52Ch4StatusMask
		}
		return status | nr52UnusedMask
	default:
		if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
			waveIndex := address - addr.WaveRAMStart
			return a.registers[waveRAMRegisterOffset+waveIndex]
		}
		return a.registers[index] | readOrMask[index]
	}
}

func updateFrequencyLow(current uint16, lowByte uint8) uint16 {
	return (current & 0x700) | uint16(lowByte)
}

func updateFrequencyHigh(current uint16, highBits uint8) uint16 {
	return (current & 0xFF) | (uint16(highBits&0x07) << 8)
}

// WriteRegister writes to an audio register.
// Needs mutex protection as it modifies shared state.
func (a *APU) WriteRegister(address uint16, value uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if address < addr.AudioStart || address > addr.AudioEnd {
		return
	}

	index := address - addr.AudioStart
	isWaveRAM := address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd

	if address == addr.NR52 {
		wasEnabled := a.enabled
		a.enabled = bit.IsSet(7, value)
		if !a.enabled && wasEnabled {
			for i := range a.registers {
				if i != 0x16 && i < waveRAMRegisterOffset {
					a.registers[i] = 0
				}
			}
			for i := range a.channels {
				ring := a.channels[i].ringBuffer
				a.channels[i] = ChannelState{ringBuffer: ring}
			}
		}
		a.registers[index] = value
		return
	}

	// Powering off forces all registers (except wave RAM) to read back as
	// zero and ignores further writes until power is restored.
	if !a.enabled && !isWaveRAM {
		return
	}

	a.registers[index] = value
	a.mapRegisterToState(address, value)
}

func (a *APU) mapRegisterToState(address uint16, value uint8) {
	switch address {
	case addr.NR10: // Channel 1 sweep
		a.channels[0].sweepPeriod = (value >> 4) & 0x07
		a.channels[0].sweepDirection = (value >> 3) & 0x01
		a.channels[0].sweepShift = value & 0x07
	case addr.NR11:
		a.channels[0].duty = value >> 6
	case addr.NR12:
		a.channels[0].volume = value >> 4
		a.channels[0].enabled = (value & 0xF8) != 0
		a.channels[0].envelopePeriod = value & 0x07
		a.channels[0].envelopeDirection = bit.GetBitValue(envelopeIncreaseBit, value)
	case addr.NR13:
		a.channels[0].freq = updateFrequencyLow(a.channels[0].freq, value)
	case addr.NR14:
		a.channels[0].freq = updateFrequencyHigh(a.channels[0].freq, value)
		a.channels[0].lengthEnabled = bit.IsSet(6, value)
		if bit.IsSet(triggerBit, value) && (a.registers[0x02]&0xF8) != 0 {
			ch := &a.channels[0]
			ch.counter = 0
			ch.enabled = true
			ch.envelopeTimer = 0
			ch.volume = a.registers[0x02] >> 4
			lengthData := a.registers[0x01] & 0x3F
			if lengthData == 0 {
				ch.lengthCounter = 64
			} else {
				ch.lengthCounter = 64 - uint16(lengthData)
			}
			ch.sweepShadow = ch.freq
			ch.sweepTimer = ch.sweepPeriod
			if ch.sweepTimer == 0 {
				ch.sweepTimer = 8
			}
			ch.sweepEnabled = ch.sweepPeriod > 0 || ch.sweepShift > 0
			if ch.sweepShift > 0 && a.computeSweepFrequency() > 2047 {
				ch.enabled = false
				ch.sweepEnabled = false
			}
		}
	case addr.NR21:
		a.channels[1].duty = value >> 6
	case addr.NR22:
		a.channels[1].volume = value >> 4
		a.channels[1].enabled = (value & 0xF8) != 0
		a.channels[1].envelopePeriod = value & 0x07
		a.channels[1].envelopeDirection = bit.GetBitValue(envelopeIncreaseBit, value)
	case addr.NR23:
		a.channels[1].freq = updateFrequencyLow(a.channels[1].freq, value)
	case addr.NR24:
		a.channels[1].freq = updateFrequencyHigh(a.channels[1].freq, value)
		a.channels[1].lengthEnabled = bit.IsSet(6, value)
		if bit.IsSet(triggerBit, value) && (a.registers[0x07]&0xF8) != 0 {
			a.channels[1].counter = 0
			a.channels[1].enabled = true
			a.channels[1].envelopeTimer = 0
			a.channels[1].volume = a.registers[0x07] >> 4
			lengthData := a.registers[0x06] & 0x3F
			if lengthData == 0 {
				a.channels[1].lengthCounter = 64
			} else {
				a.channels[1].lengthCounter = 64 - uint16(lengthData)
			}
		}
	case addr.NR30:
		a.channels[2].enabled = bit.IsSet(waveDACBit, value)
	case addr.NR32:
		a.channels[2].volume = (value >> 5) & 0x03
	case addr.NR33:
		a.channels[2].freq = updateFrequencyLow(a.channels[2].freq, value)
	case addr.NR34:
		a.channels[2].freq = updateFrequencyHigh(a.channels[2].freq, value)
		a.channels[2].lengthEnabled = bit.IsSet(6, value)
		if bit.IsSet(triggerBit, value) {
			a.channels[2].counter = 0
			lengthData := a.registers[0x0B]
			if lengthData == 0 {
				a.channels[2].lengthCounter = 256
			} else {
				a.channels[2].lengthCounter = 256 - uint16(lengthData)
			}
		}
	case addr.NR42:
		a.channels[3].volume = value >> 4
		if (value & 0xF8) == 0 {
			a.channels[3].enabled = false
		}
		a.channels[3].envelopePeriod = value & 0x07
		a.channels[3].envelopeDirection = bit.GetBitValue(envelopeIncreaseBit, value)
	case addr.NR43:
		a.channels[3].noisePeriod = computeNoisePeriod(value)
	case addr.NR44:
		a.channels[3].lengthEnabled = bit.IsSet(6, value)
		if bit.IsSet(triggerBit, value) && (a.registers[0x11]&0xF8) != 0 {
			a.ch4LFSR = lfsrInitialValue
			a.channels[3].counter = 0
			a.channels[3].enabled = true
			a.channels[3].envelopeTimer = 0
			a.channels[3].volume = a.registers[0x11] >> 4
			a.channels[3].noisePeriod = computeNoisePeriod(a.registers[0x12])
			lengthData := a.registers[0x10] & 0x3F
			if lengthData == 0 {
				a.channels[3].lengthCounter = 64
			} else {
				a.channels[3].lengthCounter = 64 - uint16(lengthData)
			}
		}
	}

	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		waveIndex := address - addr.WaveRAMStart
		nibbleIndex := waveIndex / 2
		if (waveIndex & 1) == 0 {
			a.ch3WaveRAM[nibbleIndex] = (a.ch3WaveRAM[nibbleIndex] & 0x0F) | (value & 0xF0)
		} else {
			a.ch3WaveRAM[nibbleIndex] = (a.ch3WaveRAM[nibbleIndex] & 0xF0) | (value & 0x0F)
		}
	}
}

// computeNoisePeriod converts NR43's divisor/shift encoding into a period
// expressed in 44100 Hz sample units (8.8 fixed point).
func computeNoisePeriod(nr43 uint8) uint16 {
	divisorCode := nr43 & 0x07
	shift := (nr43 >> 4) & 0x0F

	divisor := float64(divisorCode)
	if divisorCode == 0 {
		divisor = 0.5
	}

	frequency := 262144.0 / (divisor * float64(uint32(1)<<shift))
	return uint16((SampleHz * 256.0) / frequency)
}

// GetSamples retrieves band-limited, interleaved stereo samples from the
// master mix for host playback.
func (a *APU) GetSamples(count int) []int16 {
	a.sampleBufferMu.Lock()
	defer a.sampleBufferMu.Unlock()

	if len(a.sampleBuffer) < count {
		samples := make([]int16, count)
		copy(samples, a.sampleBuffer)
		a.sampleBuffer = a.sampleBuffer[:0]
		return samples
	}

	samples := a.sampleBuffer[:count]
	a.sampleBuffer = a.sampleBuffer[count:]
	return samples
}

// ChannelSamples drains up to count interleaved stereo samples from a
// single channel's ring buffer (ch is 1-4).
func (a *APU) ChannelSamples(ch int, count int) []int16 {
	if ch < 1 || ch > 4 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	buf := a.channels[ch-1].ringBuffer
	if len(buf) < count {
		samples := make([]int16, len(buf))
		copy(samples, buf)
		a.channels[ch-1].ringBuffer = buf[:0]
		return samples
	}

	samples := buf[:count]
	a.channels[ch-1].ringBuffer = buf[count:]
	return samples
}

func (a *APU) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.enabled = true
	a.frameCounter = 0
	a.frameCycles = 0
	a.sampleCycleAccum = 0
	a.sampleBuffer = a.sampleBuffer[:0]
	a.lastMasterLeft = 0
	a.lastMasterRight = 0
	a.blipLeft.Clear()
	a.blipRight.Clear()

	for i := range a.channels {
		ring := a.channels[i].ringBuffer
		a.channels[i] = ChannelState{ringBuffer: ring[:0]}
	}

	a.ch4LFSR = lfsrInitialValue

	a.initRegisters()
}

// MuteChannel mutes or unmutes a specific audio channel for debugging
func (a *APU) MuteChannel(channel int, muted bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if channel >= 1 && channel <= 4 {
		a.channels[channel-1].muted = muted
	}
}

// ToggleChannel toggles muting for a specific channel
func (a *APU) ToggleChannel(channel int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if channel >= 1 && channel <= 4 {
		a.channels[channel-1].muted = !a.channels[channel-1].muted
	}
}

// SoloChannel mutes all channels except the specified one
func (a *APU) SoloChannel(channel int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.channels {
		a.channels[i].muted = (i != channel-1)
	}
}

// UnmuteAll unmutes all channels
func (a *APU) UnmuteAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.channels {
		a.channels[i].muted = false
	}
}

// GetChannelStatus returns the current mute status and basic info for all channels
func (a *APU) GetChannelStatus() (ch1, ch2, ch3, ch4 bool) {
	return !a.channels[0].muted && a.channels[0].enabled,
		!a.channels[1].muted && a.channels[1].enabled,
		!a.channels[2].muted && a.channels[2].enabled,
		!a.channels[3].muted && a.channels[3].enabled
}

// GetChannelVolumes returns the actual current volumes for all channels.
// This reflects the actual volume after envelope processing.
func (a *APU) GetChannelVolumes() (ch1, ch2, ch3, ch4 uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.channels[0].volume, a.channels[1].volume, a.channels[2].volume, a.channels[3].volume
}
