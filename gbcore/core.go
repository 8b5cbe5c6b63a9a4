package gbcore

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kobold-systems/lr35902/gbcore/cpu"
	"github.com/kobold-systems/lr35902/gbcore/debug"
	"github.com/kobold-systems/lr35902/gbcore/input/action"
	"github.com/kobold-systems/lr35902/gbcore/memory"
	"github.com/kobold-systems/lr35902/gbcore/timing"
	"github.com/kobold-systems/lr35902/gbcore/video"
)

// debugSnapshotSize is how many bytes around the CPU's program counter are
// captured in a debug memory snapshot.
const debugSnapshotSize = 64

// DMG is the root struct and entry point for running the emulation. It
// wires together the CPU, MMU and GPU and drives them one CPU instruction
// at a time, matching real Game Boy (DMG) hardware.
type DMG struct {
	cpu *cpu.CPU
	gpu *video.GPU
	mem *memory.MMU

	limiter          timing.Limiter
	frameCount       uint64
	instructionCount uint64

	// romPath is set by NewWithFile and used to derive the .sav path for
	// battery-backed cartridge RAM persistence.
	romPath string
}

func newDMG() *DMG {
	mem := memory.NewWithCartridge(memory.NewCartridge())

	d := &DMG{
		mem:     mem,
		cpu:     cpu.New(mem),
		gpu:     video.NewGpu(nil, mem),
		limiter: timing.NewAdaptiveLimiter(),
	}

	return d
}

// New creates a new emulator instance with no cartridge loaded.
func New() *DMG {
	return newDMG()
}

// NewWithFile creates a new emulator instance and loads the ROM at path.
func NewWithFile(path string) (*DMG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	slog.Info("Loaded ROM", "bytes", len(data), "path", path)

	mem := memory.NewWithCartridge(memory.NewCartridgeWithData(data))

	d := &DMG{
		mem:     mem,
		cpu:     cpu.New(mem),
		gpu:     video.NewGpu(nil, mem),
		limiter: timing.NewAdaptiveLimiter(),
		romPath: path,
	}

	if err := memory.LoadRAM(mem.MBC(), memory.SavePath(path)); err != nil {
		slog.Warn("Failed to load battery RAM", "path", path, "error", err)
	}

	return d, nil
}

// SaveRAM persists cartridge external RAM to the ROM's .sav path. It is a
// no-op for a DMG created without a file and for cartridges with no external
// RAM (no MBC, or a banked MBC with zero RAM banks). The header's battery
// flag is not consulted: a banked cartridge with RAM but no battery is saved
// too. Intended to be called
// periodically and on clean shutdown by the host.
func (d *DMG) SaveRAM() error {
	if d.romPath == "" {
		return nil
	}
	return memory.SaveRAM(d.mem.MBC(), memory.SavePath(d.romPath))
}

// CartridgeTitle returns the loaded cartridge's header title, for display in
// window titles and debug overlays.
func (d *DMG) CartridgeTitle() string {
	return d.mem.CartridgeTitle()
}

// Step executes a single CPU instruction and advances every other component
// (MMU-owned timer/serial, GPU, APU) by the same number of cycles it took.
// This is the host-facing single-step entry point; RunUntilFrame calls it
// repeatedly to advance a full frame.
func (d *DMG) Step() int {
	cycles := d.cpu.Exec()
	d.mem.Tick(cycles)
	d.gpu.Tick(cycles)
	d.mem.APU.Tick(cycles)
	d.instructionCount++
	return cycles
}

// RunUntilFrame runs the emulator for one full frame's worth of cycles,
// then waits for the frame limiter before returning.
func (d *DMG) RunUntilFrame() error {
	cyclesThisFrame := 0
	for cyclesThisFrame < timing.CyclesPerFrame {
		cyclesThisFrame += d.Step()
	}

	d.frameCount++
	if d.limiter != nil {
		d.limiter.WaitForNextFrame()
	}
	return nil
}

// GetCurrentFrame returns the framebuffer produced by the most recent frame.
func (d *DMG) GetCurrentFrame() *video.FrameBuffer {
	return d.gpu.FrameBuffer()
}

// GetFrameCount returns the number of frames rendered so far.
func (d *DMG) GetFrameCount() uint64 {
	return d.frameCount
}

// GetInstructionCount returns the number of CPU instructions executed so far.
func (d *DMG) GetInstructionCount() uint64 {
	return d.instructionCount
}

// SetFrameLimiter overrides the frame pacing strategy. Passing nil disables
// frame limiting entirely (used by benchmarks).
func (d *DMG) SetFrameLimiter(limiter timing.Limiter) {
	if limiter == nil {
		d.limiter = timing.NewNoOpLimiter()
		return
	}
	d.limiter = limiter
}

// ResetFrameTiming resets the frame limiter's internal clock, useful after a
// pause.
func (d *DMG) ResetFrameTiming() {
	if d.limiter != nil {
		d.limiter.Reset()
	}
}

// HandleKeyPress presses a Game Boy joypad button.
func (d *DMG) HandleKeyPress(key memory.JoypadKey) {
	d.mem.HandleKeyPress(key)
}

// HandleKeyRelease releases a Game Boy joypad button.
func (d *DMG) HandleKeyRelease(key memory.JoypadKey) {
	d.mem.HandleKeyRelease(key)
}

// HandleAction dispatches a higher-level input action (which may map to a
// Game Boy button or an emulator-only feature) to the right handler.
func (d *DMG) HandleAction(act action.Action, pressed bool) {
	key, isGBControl := gbControlKey(act)
	if !isGBControl {
		return
	}

	if pressed {
		d.HandleKeyPress(key)
	} else {
		d.HandleKeyRelease(key)
	}
}

func gbControlKey(act action.Action) (memory.JoypadKey, bool) {
	switch act {
	case action.GBButtonA:
		return memory.JoypadA, true
	case action.GBButtonB:
		return memory.JoypadB, true
	case action.GBButtonStart:
		return memory.JoypadStart, true
	case action.GBButtonSelect:
		return memory.JoypadSelect, true
	case action.GBDPadUp:
		return memory.JoypadUp, true
	case action.GBDPadDown:
		return memory.JoypadDown, true
	case action.GBDPadLeft:
		return memory.JoypadLeft, true
	case action.GBDPadRight:
		return memory.JoypadRight, true
	default:
		return 0, false
	}
}

// ExtractDebugData captures a point-in-time snapshot of CPU, OAM, VRAM and
// interrupt state for debug tooling. Returns nil if the emulator has no
// components initialized (e.g. a zero-value DMG).
func (d *DMG) ExtractDebugData() *debug.CompleteDebugData {
	if d.cpu == nil || d.mem == nil {
		return nil
	}

	pc := d.cpu.GetPC()
	snapshotStart := pc
	snapshotSize := debugSnapshotSize
	if uint32(snapshotStart)+uint32(snapshotSize) > 0x10000 {
		snapshotSize = int(0x10000 - uint32(snapshotStart))
	}

	snapshotBytes := make([]uint8, snapshotSize)
	for i := range snapshotBytes {
		snapshotBytes[i] = d.mem.Read(snapshotStart + uint16(i))
	}

	spriteHeight := 8
	if d.mem.ReadBit(2, 0xFF40) {
		spriteHeight = 16
	}

	return &debug.CompleteDebugData{
		OAM:  debug.ExtractOAMData(d.mem, int(d.gpu.Line()), spriteHeight),
		VRAM: debug.ExtractVRAMData(d.mem),
		CPU: &debug.CPUState{
			A:      d.cpu.GetA(),
			F:      d.cpu.GetF(),
			B:      d.cpu.GetB(),
			C:      d.cpu.GetC(),
			D:      d.cpu.GetD(),
			E:      d.cpu.GetE(),
			H:      d.cpu.GetH(),
			L:      d.cpu.GetL(),
			SP:     d.cpu.GetSP(),
			PC:     pc,
			IME:    d.cpu.GetIME(),
			Cycles: d.cpu.GetCycles(),
		},
		Memory: &debug.MemorySnapshot{
			StartAddr: snapshotStart,
			Bytes:     snapshotBytes,
		},
		DebuggerState:   debug.DebuggerRunning,
		InterruptEnable: d.cpu.GetIE(),
		InterruptFlags:  d.cpu.GetIF(),
	}
}

var _ Emulator = (*DMG)(nil)

// String returns a human-readable summary, useful for quick debug output.
func (d *DMG) String() string {
	if d.cpu == nil {
		return "DMG{uninitialized}"
	}
	return fmt.Sprintf("DMG{pc=0x%04X frame=%d instr=%d}", d.cpu.GetPC(), d.frameCount, d.instructionCount)
}
