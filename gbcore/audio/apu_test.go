package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/kobold-systems/lr35902/gbcore/addr"
)

func TestAPU_RegisterMapping(t *testing.T) {
	tests := []struct {
		name     string
		register uint16
		value    uint8
		testFunc func(t *testing.T, apu *APU)
	}{
		{
			name:     "NR52 power control",
			register: addr.NR52, value: 0x80,
			testFunc: func(t *testing.T, apu *APU) {
				assert.True(t, apu.enabled, "APU should be enabled when NR52 bit 7 is set")
			},
		},
		{
			name:     "NR51 panning",
			register: addr.NR51, value: 0xFF, // all channels to both sides
			testFunc: func(t *testing.T, apu *APU) {
				for i := range 4 {
					left, right := apu.panAndVolume(i)
					assert.NotZero(t, left, "channel %d should be panned left", i)
					assert.NotZero(t, right, "channel %d should be panned right", i)
				}
			},
		},
		{
			name:     "NR50 master volume",
			register: addr.NR50, value: 0x77, // max volume both sides
			testFunc: func(t *testing.T, apu *APU) {
				apu.WriteRegister(addr.NR51, 0xFF)
				left, right := apu.panAndVolume(0)
				assert.InDelta(t, 1.0, left, 0.001, "left volume should be maxed out")
				assert.InDelta(t, 1.0, right, 0.001, "right volume should be maxed out")
			},
		},
		{
			name:     "NR11 duty and length timer",
			register: addr.NR11, value: 0xBF, // duty=2, length timer=63
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(2), apu.channels[0].duty, "CH1 duty should be 2")
			},
		},
		{
			name:     "NR12 volume and envelope",
			register: addr.NR12, value: 0xF7, // vol=15, up=0, pace=7
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(15), apu.channels[0].volume, "CH1 volume should be 15")
				assert.Equal(t, uint8(0), apu.channels[0].envelopeDirection, "CH1 envelope should be down")
				assert.Equal(t, uint8(7), apu.channels[0].envelopePeriod, "CH1 envelope period should be 7")
				assert.True(t, apu.channels[0].enabled, "CH1 DAC should be enabled (volume > 0)")
			},
		},
		{
			name:     "Wave RAM write/read",
			register: addr.WaveRAMStart, value: 0xAB,
			testFunc: func(t *testing.T, apu *APU) {
				read := apu.ReadRegister(addr.WaveRAMStart)
				assert.Equal(t, uint8(0xAB), read, "Wave RAM should store and return values")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apu := New()
			// Power on
			apu.WriteRegister(addr.NR52, 0x80)
			apu.WriteRegister(tt.register, tt.value)
			tt.testFunc(t, apu)
		})
	}
}

func TestAPU_ReadMasks(t *testing.T) {
	apu := New()
	apu.WriteRegister(addr.NR52, 0x80)

	// Write-only registers should always read back as 0xFF.
	for _, register := range []uint16{addr.NR13, addr.NR23, addr.NR33, addr.NR41} {
		apu.WriteRegister(register, 0x00)
		assert.Equal(t, uint8(0xFF), apu.ReadRegister(register), "register 0x%X should read as 0xFF (write-only)", register)
	}
}

func TestAPU_PowerOffLogic(t *testing.T) {
	apu := New()

	// Power on and set up some state.
	apu.WriteRegister(addr.NR52, 0x80) // Power on
	apu.WriteRegister(addr.NR10, 0x5E) // CH1 sweep: period=5, down=1, step=6
	apu.WriteRegister(addr.NR11, 0xC3) // CH1: duty=3, length=3
	apu.WriteRegister(addr.NR12, 0xFB) // CH1: volume=15, up=1, pace=3
	apu.WriteRegister(addr.NR50, 0x77) // Master volume: 7/7
	apu.WriteRegister(addr.NR51, 0xFF) // All channels panned to both sides
	apu.WriteRegister(addr.WaveRAMStart, 0xAA)
	apu.WriteRegister(addr.WaveRAMStart+1, 0xBB)

	// Power off.
	apu.WriteRegister(addr.NR52, 0x00)
	assert.False(t, apu.enabled, "APU should be disabled")

	// Check that all computed state was cleared, except wave RAM.
	assert.Equal(t, uint8(0), apu.channels[0].sweepPeriod, "CH1 sweep period should be cleared")
	assert.Equal(t, uint8(0), apu.channels[0].duty, "CH1 duty should be cleared")
	assert.Equal(t, uint8(0), apu.channels[0].volume, "CH1 volume should be cleared")
	for i := range 4 {
		assert.False(t, apu.channels[i].enabled, "channel %d should be disabled", i)
	}
	left, right := apu.panAndVolume(0)
	assert.Zero(t, left, "left volume should be cleared")
	assert.Zero(t, right, "right volume should be cleared")

	assert.Equal(t, uint8(0xAA), apu.ReadRegister(addr.WaveRAMStart), "Wave RAM[0] should be preserved")
	assert.Equal(t, uint8(0xBB), apu.ReadRegister(addr.WaveRAMStart+1), "Wave RAM[1] should be preserved")

	// Ignore non-wave-RAM writes while powered off.
	apu.WriteRegister(addr.NR10, 0x77)
	apu.WriteRegister(addr.NR50, 0x55)
	assert.Equal(t, uint8(0), apu.channels[0].sweepPeriod, "CH1 sweep should remain 0 (write ignored)")

	// Wave RAM writes still allowed while powered off.
	apu.WriteRegister(addr.WaveRAMStart+2, 0xCC)
	assert.Equal(t, uint8(0xCC), apu.ReadRegister(addr.WaveRAMStart+2), "Wave RAM should be writable while powered off")

	apu.WriteRegister(addr.NR52, 0x80) // Power back on
	assert.True(t, apu.enabled, "APU should be enabled again")

	// Registers become writable again after power on.
	apu.WriteRegister(addr.NR10, 0x34)
	assert.Equal(t, uint8(3), apu.channels[0].sweepPeriod, "CH1 sweep period should be writable after power on")
}

func TestAPU_FrameSequencer_LengthCounter(t *testing.T) {
	apu := New()
	apu.WriteRegister(addr.NR52, 0x80)
	apu.WriteRegister(addr.NR12, 0xF0) // volume=15, so trigger keeps the DAC on
	apu.WriteRegister(addr.NR11, 0x3F) // length timer = 63, so lengthCounter = 64-63 = 1
	apu.WriteRegister(addr.NR14, 0xC0) // trigger + length enable

	assert.True(t, apu.channels[0].enabled, "channel should be enabled after trigger")
	assert.Equal(t, uint16(1), apu.channels[0].lengthCounter)

	// One full length-counter tick happens every two frame sequencer steps
	// (512 Hz / 256 Hz), i.e. every 2*frameSequencerCycles CPU cycles.
	apu.Tick(2 * frameSequencerCycles)

	assert.Equal(t, uint16(0), apu.channels[0].lengthCounter)
	assert.False(t, apu.channels[0].enabled, "channel should disable itself when its length counter expires")
}

func TestAPU_FrameSequencer_Envelope(t *testing.T) {
	apu := New()
	apu.WriteRegister(addr.NR52, 0x80)
	apu.WriteRegister(addr.NR12, 0x89) // volume=8, increase, period=1
	apu.WriteRegister(addr.NR14, 0x80) // trigger

	assert.Equal(t, uint8(8), apu.channels[0].volume)

	// The envelope advances on frame sequencer step 7, which recurs every
	// 8 steps (8*frameSequencerCycles CPU cycles).
	apu.Tick(8 * frameSequencerCycles)

	assert.Equal(t, uint8(9), apu.channels[0].volume, "envelope should have incremented the volume once")
}

func TestAPU_SampleGeneration_PulseDuty(t *testing.T) {
	apu := New()
	apu.WriteRegister(addr.NR52, 0x80)
	apu.WriteRegister(addr.NR51, 0x22) // CH2 panned both left and right
	apu.WriteRegister(addr.NR50, 0x77) // max master volume
	apu.WriteRegister(addr.NR22, 0xF0) // CH2 volume=15, no envelope
	apu.WriteRegister(addr.NR21, 0x80) // CH2 duty=2 (50%)
	apu.WriteRegister(addr.NR23, 0x00) // period low
	apu.WriteRegister(addr.NR24, 0xC7) // trigger, length enable, period high bits

	apu.Tick(ClockHz / 10)

	want := (SampleHz / 10) * 2 // interleaved L,R int16 pairs
	samples := apu.ChannelSamples(2, want)
	assert.Len(t, samples, want, "channel 2 ring buffer should contain the expected number of samples")

	var sawNonZero bool
	for _, s := range samples {
		if s != 0 {
			sawNonZero = true
			break
		}
	}
	assert.True(t, sawNonZero, "an active, triggered pulse channel should produce non-zero samples")
}

func TestAPU_TriggerBehavior_Retrigger(t *testing.T) {
	apu := New()
	apu.WriteRegister(addr.NR52, 0x80)
	apu.WriteRegister(addr.NR12, 0xF0) // volume=15
	apu.WriteRegister(addr.NR14, 0x80) // trigger

	apu.channels[0].counter = 1234
	apu.channels[0].volume = 2

	apu.WriteRegister(addr.NR14, 0x80) // retrigger

	assert.Equal(t, uint32(0), apu.channels[0].counter, "retrigger should reset the phase counter")
	assert.Equal(t, uint8(15), apu.channels[0].volume, "retrigger should reload the volume from NR12")
	assert.True(t, apu.channels[0].enabled)
}

func TestAPU_TriggerBehavior_DACOffKeepsChannelDisabled(t *testing.T) {
	apu := New()
	apu.WriteRegister(addr.NR52, 0x80)
	apu.WriteRegister(addr.NR12, 0x00) // DAC off (volume=0, no envelope)
	apu.WriteRegister(addr.NR14, 0x80) // trigger

	assert.False(t, apu.channels[0].enabled, "triggering with the DAC off must not enable the channel")
}
