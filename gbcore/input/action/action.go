package action

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// Game Boy hardware controls
	GBButtonA Action = iota
	GBButtonB
	GBButtonStart
	GBButtonSelect
	GBDPadUp
	GBDPadDown
	GBDPadLeft
	GBDPadRight

	// Emulator features
	EmulatorDebugToggle
	EmulatorDebugUpdate
	EmulatorSnapshot
	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorStepInstruction
	EmulatorTestPatternCycle
	EmulatorQuit

	// Audio debug controls
	AudioToggleChannel1
	AudioToggleChannel2
	AudioToggleChannel3
	AudioToggleChannel4
	AudioSoloChannel1
	AudioSoloChannel2
	AudioSoloChannel3
	AudioSoloChannel4
	AudioShowStatus

	// Debug log verbosity controls
	DebugLogLevelIncrease
	DebugLogLevelDecrease
)

var names = map[Action]string{
	GBButtonA:                "gb_button_a",
	GBButtonB:                "gb_button_b",
	GBButtonStart:            "gb_button_start",
	GBButtonSelect:           "gb_button_select",
	GBDPadUp:                 "gb_dpad_up",
	GBDPadDown:               "gb_dpad_down",
	GBDPadLeft:               "gb_dpad_left",
	GBDPadRight:              "gb_dpad_right",
	EmulatorDebugToggle:      "emulator_debug_toggle",
	EmulatorDebugUpdate:      "emulator_debug_update",
	EmulatorSnapshot:         "emulator_snapshot",
	EmulatorPauseToggle:      "emulator_pause_toggle",
	EmulatorStepFrame:        "emulator_step_frame",
	EmulatorStepInstruction:  "emulator_step_instruction",
	EmulatorTestPatternCycle: "emulator_test_pattern_cycle",
	EmulatorQuit:             "emulator_quit",
	AudioToggleChannel1:      "audio_toggle_channel_1",
	AudioToggleChannel2:      "audio_toggle_channel_2",
	AudioToggleChannel3:      "audio_toggle_channel_3",
	AudioToggleChannel4:      "audio_toggle_channel_4",
	AudioSoloChannel1:        "audio_solo_channel_1",
	AudioSoloChannel2:        "audio_solo_channel_2",
	AudioSoloChannel3:        "audio_solo_channel_3",
	AudioSoloChannel4:        "audio_solo_channel_4",
	AudioShowStatus:          "audio_show_status",
	DebugLogLevelIncrease:    "debug_log_level_increase",
	DebugLogLevelDecrease:    "debug_log_level_decrease",
}

var byName = func() map[string]Action {
	m := make(map[string]Action, len(names))
	for act, name := range names {
		m[name] = act
	}
	return m
}()

// String returns the stable, lowercase name for an action, used when
// persisting key bindings.
func (a Action) String() string {
	if name, ok := names[a]; ok {
		return name
	}
	return "unknown"
}

// ByName resolves an action from its stable name, as produced by String.
func ByName(name string) (Action, bool) {
	act, ok := byName[name]
	return act, ok
}

// Category groups actions by how a frontend should treat them: game inputs
// drive the joypad and need press/hold/release tracking, everything else is
// a one-shot UI/debug trigger.
type Category int

const (
	CategoryGameInput Category = iota
	CategoryEmulatorControl
	CategoryAudioDebug
	CategoryLogControl
)

// ActionInfo describes an action for display and dispatch purposes.
type ActionInfo struct {
	Category    Category
	Description string
}

var infos = map[Action]ActionInfo{
	GBButtonA:                {CategoryGameInput, "A button"},
	GBButtonB:                {CategoryGameInput, "B button"},
	GBButtonStart:            {CategoryGameInput, "Start button"},
	GBButtonSelect:           {CategoryGameInput, "Select button"},
	GBDPadUp:                 {CategoryGameInput, "D-pad up"},
	GBDPadDown:               {CategoryGameInput, "D-pad down"},
	GBDPadLeft:               {CategoryGameInput, "D-pad left"},
	GBDPadRight:              {CategoryGameInput, "D-pad right"},
	EmulatorDebugToggle:      {CategoryEmulatorControl, "Toggle debug view"},
	EmulatorDebugUpdate:      {CategoryEmulatorControl, "Force debug refresh"},
	EmulatorSnapshot:         {CategoryEmulatorControl, "Save snapshot"},
	EmulatorPauseToggle:      {CategoryEmulatorControl, "Pause/resume"},
	EmulatorStepFrame:        {CategoryEmulatorControl, "Step one frame"},
	EmulatorStepInstruction:  {CategoryEmulatorControl, "Step one instruction"},
	EmulatorTestPatternCycle: {CategoryEmulatorControl, "Cycle test pattern"},
	EmulatorQuit:             {CategoryEmulatorControl, "Quit"},
	AudioToggleChannel1:      {CategoryAudioDebug, "Toggle audio channel 1"},
	AudioToggleChannel2:      {CategoryAudioDebug, "Toggle audio channel 2"},
	AudioToggleChannel3:      {CategoryAudioDebug, "Toggle audio channel 3"},
	AudioToggleChannel4:      {CategoryAudioDebug, "Toggle audio channel 4"},
	AudioSoloChannel1:        {CategoryAudioDebug, "Solo audio channel 1"},
	AudioSoloChannel2:        {CategoryAudioDebug, "Solo audio channel 2"},
	AudioSoloChannel3:        {CategoryAudioDebug, "Solo audio channel 3"},
	AudioSoloChannel4:        {CategoryAudioDebug, "Solo audio channel 4"},
	AudioShowStatus:          {CategoryAudioDebug, "Show audio channel status"},
	DebugLogLevelIncrease:    {CategoryLogControl, "Increase log verbosity"},
	DebugLogLevelDecrease:    {CategoryLogControl, "Decrease log verbosity"},
}

// GetInfo returns display metadata for an action. Unknown actions are
// reported as a generic emulator control so callers always get a usable
// Category to dispatch on.
func GetInfo(act Action) ActionInfo {
	if info, ok := infos[act]; ok {
		return info
	}
	return ActionInfo{Category: CategoryEmulatorControl, Description: "unknown action"}
}
