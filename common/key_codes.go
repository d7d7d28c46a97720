package common

// KeyArraySize is the number of slots in the host key state array. One slot per physical
// key code, in the W3C UI Events "code" order shared by the native and web hosts.
const KeyArraySize = 194

// Virtual gamepad button slots exposed to shaders as the BTN_* constants.
const (
	ButtonUp = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonA
	ButtonB
	ButtonX
	ButtonY
	ButtonL
	ButtonR
	ButtonStart
	ButtonSelect

	// ButtonCount is the length of the host buttons array.
	ButtonCount
)

// ButtonConstants lists the BTN_* shader constant names in slot order.
var ButtonConstants = [ButtonCount]string{
	"BTN_UP", "BTN_DOWN", "BTN_LEFT", "BTN_RIGHT",
	"BTN_A", "BTN_B", "BTN_X", "BTN_Y",
	"BTN_L", "BTN_R", "BTN_START", "BTN_SELECT",
}

// keyCodes holds the physical key code names in slot order.
var keyCodes = [KeyArraySize]string{
	"Backquote", "Backslash", "BracketLeft", "BracketRight", "Comma", "Digit0", "Digit1", "Digit2",
	"Digit3", "Digit4", "Digit5", "Digit6", "Digit7", "Digit8", "Digit9", "Equal", "IntlBackslash",
	"IntlRo", "IntlYen", "KeyA", "KeyB", "KeyC", "KeyD", "KeyE", "KeyF", "KeyG", "KeyH", "KeyI",
	"KeyJ", "KeyK", "KeyL", "KeyM", "KeyN", "KeyO", "KeyP", "KeyQ", "KeyR", "KeyS", "KeyT", "KeyU",
	"KeyV", "KeyW", "KeyX", "KeyY", "KeyZ", "Minus", "Period", "Quote", "Semicolon", "Slash",
	"AltLeft", "AltRight", "Backspace", "CapsLock", "ContextMenu", "ControlLeft", "ControlRight",
	"Enter", "SuperLeft", "SuperRight", "ShiftLeft", "ShiftRight", "Space", "Tab", "Convert",
	"KanaMode", "Lang1", "Lang2", "Lang3", "Lang4", "Lang5", "NonConvert", "Delete", "End", "Help",
	"Home", "Insert", "PageDown", "PageUp", "ArrowDown", "ArrowLeft", "ArrowRight", "ArrowUp",
	"NumLock", "Numpad0", "Numpad1", "Numpad2", "Numpad3", "Numpad4", "Numpad5", "Numpad6", "Numpad7",
	"Numpad8", "Numpad9", "NumpadAdd", "NumpadBackspace", "NumpadClear", "NumpadClearEntry",
	"NumpadComma", "NumpadDecimal", "NumpadDivide", "NumpadEnter", "NumpadEqual", "NumpadHash",
	"NumpadMemoryAdd", "NumpadMemoryClear", "NumpadMemoryRecall", "NumpadMemoryStore",
	"NumpadMemorySubtract", "NumpadMultiply", "NumpadParenLeft", "NumpadParenRight", "NumpadStar",
	"NumpadSubtract", "Escape", "Fn", "FnLock", "PrintScreen", "ScrollLock", "Pause", "BrowserBack",
	"BrowserFavorites", "BrowserForward", "BrowserHome", "BrowserRefresh", "BrowserSearch",
	"BrowserStop", "Eject", "LaunchApp1", "LaunchApp2", "LaunchMail", "MediaPlayPause", "MediaSelect",
	"MediaStop", "MediaTrackNext", "MediaTrackPrevious", "Power", "Sleep", "AudioVolumeDown",
	"AudioVolumeMute", "AudioVolumeUp", "WakeUp", "Meta", "Hyper", "Turbo", "Abort", "Resume",
	"Suspend", "Again", "Copy", "Cut", "Find", "Open", "Paste", "Props", "Select", "Undo", "Hiragana",
	"Katakana", "F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12", "F13",
	"F14", "F15", "F16", "F17", "F18", "F19", "F20", "F21", "F22", "F23", "F24", "F25", "F26", "F27",
	"F28", "F29", "F30", "F31", "F32", "F33", "F34", "F35",
}

// keyIndex is the reverse lookup of keyCodes, built once at init.
var keyIndex = make(map[string]int, KeyArraySize)

func init() {
	for i, code := range keyCodes {
		keyIndex[code] = i
	}
}

// KeyIndex returns the key state slot for a physical key code name (e.g. "KeyA",
// "ArrowUp", "F12"), the same string a browser reports as KeyboardEvent.code.
//
// Parameters:
//   - code: the physical key code name
//
// Returns:
//   - int: the slot in the host keys array
//   - bool: false if the code is not part of the table
func KeyIndex(code string) (int, bool) {
	i, ok := keyIndex[code]
	return i, ok
}

// KeyCode returns the physical key code name stored at the given slot, or an empty
// string when the slot is out of range.
func KeyCode(slot int) string {
	if slot < 0 || slot >= KeyArraySize {
		return ""
	}
	return keyCodes[slot]
}

// KeyConstant names a KEY_* shader constant and the key slot it refers to.
type KeyConstant struct {
	Name string
	Slot int
}

// KeyConstants lists the KEY_* constants emitted into every generated shader header.
// The slots must stay identical across hosts that share the input mapping.
var KeyConstants = []KeyConstant{
	{"KEY_BACKQUOTE", 0},
	{"KEY_BACKSLASH", 1},
	{"KEY_BRACKET_LEFT", 2},
	{"KEY_BRACKET_RIGHT", 3},
	{"KEY_COMMA", 4},
	{"KEY_0", 5},
	{"KEY_1", 6},
	{"KEY_2", 7},
	{"KEY_3", 8},
	{"KEY_4", 9},
	{"KEY_5", 10},
	{"KEY_6", 11},
	{"KEY_7", 12},
	{"KEY_8", 13},
	{"KEY_9", 14},
	{"KEY_EQUAL", 15},
	{"KEY_INTL_BACKSLASH", 16},
	{"KEY_INTL_RO", 17},
	{"KEY_INTL_YEN", 18},
	{"KEY_A", 19},
	{"KEY_B", 20},
	{"KEY_C", 21},
	{"KEY_D", 22},
	{"KEY_E", 23},
	{"KEY_F", 24},
	{"KEY_G", 25},
	{"KEY_H", 26},
	{"KEY_I", 27},
	{"KEY_J", 28},
	{"KEY_K", 29},
	{"KEY_L", 30},
	{"KEY_M", 31},
	{"KEY_N", 32},
	{"KEY_O", 33},
	{"KEY_P", 34},
	{"KEY_Q", 35},
	{"KEY_R", 36},
	{"KEY_S", 37},
	{"KEY_T", 38},
	{"KEY_U", 39},
	{"KEY_V", 40},
	{"KEY_W", 41},
	{"KEY_X", 42},
	{"KEY_Y", 43},
	{"KEY_Z", 44},
	{"KEY_MINUS", 45},
	{"KEY_PERIOD", 46},
	{"KEY_QUOTE", 47},
	{"KEY_SEMICOLON", 48},
	{"KEY_SLASH", 49},
	{"KEY_ALT_LEFT", 50},
	{"KEY_ALT_RIGHT", 51},
	{"KEY_BACKSPACE", 52},
	{"KEY_CAPS_LOCK", 53},
	{"KEY_CONTEXT_MENU", 54},
	{"KEY_CTRL_LEFT", 55},
	{"KEY_CTRL_RIGHT", 56},
	{"KEY_ENTER", 57},
	{"KEY_SUPER_LEFT", 58},
	{"KEY_SUPER_RIGHT", 59},
	{"KEY_SHIFT_LEFT", 60},
	{"KEY_SHIFT_RIGHT", 61},
	{"KEY_SPACE", 62},
	{"KEY_TAB", 63},
	{"KEY_DELETE", 72},
	{"KEY_END", 73},
	{"KEY_HOME", 75},
	{"KEY_INSERT", 76},
	{"KEY_PAGE_DOWN", 77},
	{"KEY_PAGE_UP", 78},
	{"KEY_DOWN", 79},
	{"KEY_LEFT", 80},
	{"KEY_RIGHT", 81},
	{"KEY_UP", 82},
	{"KEY_ESCAPE", 114},
	{"KEY_F1", 159},
	{"KEY_F2", 160},
	{"KEY_F3", 161},
	{"KEY_F4", 162},
	{"KEY_F5", 163},
	{"KEY_F6", 164},
	{"KEY_F7", 165},
	{"KEY_F8", 166},
	{"KEY_F9", 167},
	{"KEY_F10", 168},
	{"KEY_F11", 169},
	{"KEY_F12", 170},
}
