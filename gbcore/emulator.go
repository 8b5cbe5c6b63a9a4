package gbcore

import (
	"github.com/kobold-systems/lr35902/gbcore/debug"
	"github.com/kobold-systems/lr35902/gbcore/input/action"
	"github.com/kobold-systems/lr35902/gbcore/video"
)

// Emulator is the interface for all emulator implementations
type Emulator interface {
	RunUntilFrame() error
	GetCurrentFrame() *video.FrameBuffer
	HandleAction(act action.Action, pressed bool)
	ExtractDebugData() *debug.CompleteDebugData
}

var _ Emulator = (*DMG)(nil)
