// Package input translates GLFW keyboard and mouse events into the host state buffer:
// the raw key slots, the virtual gamepad buttons and the mouse vector.
package input

import (
	"strconv"

	"github.com/Carmen-Shannon/wgsl-game/common"
	"github.com/Carmen-Shannon/wgsl-game/engine/host"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwKeyCodes maps GLFW keys to the physical key code names of the key slot table.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
var glfwKeyCodes = map[glfw.Key]string{
	glfw.KeyGraveAccent:  "Backquote",
	glfw.KeyBackslash:    "Backslash",
	glfw.KeyLeftBracket:  "BracketLeft",
	glfw.KeyRightBracket: "BracketRight",
	glfw.KeyComma:        "Comma",
	glfw.KeyEqual:        "Equal",
	glfw.KeyWorld2:       "IntlBackslash",
	glfw.KeyMinus:        "Minus",
	glfw.KeyPeriod:       "Period",
	glfw.KeyApostrophe:   "Quote",
	glfw.KeySemicolon:    "Semicolon",
	glfw.KeySlash:        "Slash",
	glfw.KeyLeftAlt:      "AltLeft",
	glfw.KeyRightAlt:     "AltRight",
	glfw.KeyBackspace:    "Backspace",
	glfw.KeyCapsLock:     "CapsLock",
	glfw.KeyMenu:         "ContextMenu",
	glfw.KeyLeftControl:  "ControlLeft",
	glfw.KeyRightControl: "ControlRight",
	glfw.KeyEnter:        "Enter",
	glfw.KeyLeftSuper:    "SuperLeft",
	glfw.KeyRightSuper:   "SuperRight",
	glfw.KeyLeftShift:    "ShiftLeft",
	glfw.KeyRightShift:   "ShiftRight",
	glfw.KeySpace:        "Space",
	glfw.KeyTab:          "Tab",
	glfw.KeyDelete:       "Delete",
	glfw.KeyEnd:          "End",
	glfw.KeyHome:         "Home",
	glfw.KeyInsert:       "Insert",
	glfw.KeyPageDown:     "PageDown",
	glfw.KeyPageUp:       "PageUp",
	glfw.KeyDown:         "ArrowDown",
	glfw.KeyLeft:         "ArrowLeft",
	glfw.KeyRight:        "ArrowRight",
	glfw.KeyUp:           "ArrowUp",
	glfw.KeyNumLock:      "NumLock",
	glfw.KeyKPAdd:        "NumpadAdd",
	glfw.KeyKPDecimal:    "NumpadDecimal",
	glfw.KeyKPDivide:     "NumpadDivide",
	glfw.KeyKPEnter:      "NumpadEnter",
	glfw.KeyKPEqual:      "NumpadEqual",
	glfw.KeyKPMultiply:   "NumpadMultiply",
	glfw.KeyKPSubtract:   "NumpadSubtract",
	glfw.KeyEscape:       "Escape",
	glfw.KeyPrintScreen:  "PrintScreen",
	glfw.KeyScrollLock:   "ScrollLock",
	glfw.KeyPause:        "Pause",
}

func init() {
	for i := range 10 {
		digit := string(rune('0' + i))
		glfwKeyCodes[glfw.Key0+glfw.Key(i)] = "Digit" + digit
		glfwKeyCodes[glfw.KeyKP0+glfw.Key(i)] = "Numpad" + digit
	}
	for i := range 26 {
		glfwKeyCodes[glfw.KeyA+glfw.Key(i)] = "Key" + string(rune('A'+i))
	}
	for i := range 25 {
		glfwKeyCodes[glfw.KeyF1+glfw.Key(i)] = "F" + strconv.Itoa(i+1)
	}
}

// gamepadKeys is the keyboard layout of the virtual gamepad.
var gamepadKeys = map[glfw.Key]int{
	glfw.KeyUp:        common.ButtonUp,
	glfw.KeyW:         common.ButtonUp,
	glfw.KeyDown:      common.ButtonDown,
	glfw.KeyS:         common.ButtonDown,
	glfw.KeyLeft:      common.ButtonLeft,
	glfw.KeyA:         common.ButtonLeft,
	glfw.KeyRight:     common.ButtonRight,
	glfw.KeyD:         common.ButtonRight,
	glfw.KeyZ:         common.ButtonA,
	glfw.KeyX:         common.ButtonB,
	glfw.KeyEnter:     common.ButtonStart,
	glfw.KeyLeftShift: common.ButtonSelect,
}

// KeySlot returns the key state slot of a GLFW key.
//
// Parameters:
//   - key: the GLFW key
//
// Returns:
//   - int: the index into the host keys array
//   - bool: false if the key has no slot
func KeySlot(key glfw.Key) (int, bool) {
	code, ok := glfwKeyCodes[key]
	if !ok {
		return 0, false
	}
	return common.KeyIndex(code)
}

// ButtonForKey returns the virtual gamepad button a key is bound to.
//
// Parameters:
//   - key: the GLFW key
//
// Returns:
//   - int: a common.Button* slot
//   - bool: false if the key is not bound
func ButtonForKey(key glfw.Key) (int, bool) {
	b, ok := gamepadKeys[key]
	return b, ok
}

// Apply updates the key and button state for one GLFW key event. Repeat events keep
// the key held.
//
// Parameters:
//   - state: the host state to update
//   - key: the GLFW key
//   - action: the GLFW key action
func Apply(state *host.State, key glfw.Key, action glfw.Action) {
	var v uint32
	switch action {
	case glfw.Press, glfw.Repeat:
		v = 1
	case glfw.Release:
		v = 0
	default:
		return
	}
	if slot, ok := KeySlot(key); ok {
		state.Keys[slot] = v
	}
	if b, ok := ButtonForKey(key); ok {
		state.Buttons[b] = int32(v)
	}
}

// ApplyMouseButton records left button clicks in the z and w components of the mouse
// vector: the cursor position of the click while held, negated once released.
//
// Parameters:
//   - state: the host state to update
//   - button: the GLFW mouse button, only the left button is tracked
//   - action: the GLFW action
func ApplyMouseButton(state *host.State, button glfw.MouseButton, action glfw.Action) {
	if button != glfw.MouseButtonLeft {
		return
	}
	switch action {
	case glfw.Press:
		state.Mouse[2] = state.Mouse[0]
		state.Mouse[3] = state.Mouse[1]
	case glfw.Release:
		state.Mouse[2] = -abs(state.Mouse[2])
		state.Mouse[3] = -abs(state.Mouse[3])
	}
}

// ApplyCursor records the cursor position in pixels in the x and y components of the
// mouse vector.
func ApplyCursor(state *host.State, x, y float64) {
	state.Mouse[0] = float32(x)
	state.Mouse[1] = float32(y)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
