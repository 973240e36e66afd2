package vt100

// Key is a special key that sends a fixed code to the remote end.
type Key int

const (
	KeyEnter Key = iota
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
)

// DeviceAttributesResponse is the answer to "ESC [ c", identifying as a VT102.
var DeviceAttributesResponse = []byte{asciiEscape, '[', '?', '6', 'c'}

var keyCodes = map[Key][]byte{
	KeyEnter: {'\r'},
	KeyUp:    {asciiEscape, 'O', 'A'},
	KeyDown:  {asciiEscape, 'O', 'B'},
	KeyRight: {asciiEscape, 'O', 'C'},
	KeyLeft:  {asciiEscape, 'O', 'D'},
	KeyF1:    {asciiEscape, 'O', 'P'},
	KeyF2:    {asciiEscape, 'O', 'Q'},
	KeyF3:    {asciiEscape, 'O', 'R'},
	KeyF4:    {asciiEscape, 'O', 'S'},
	KeyF5:    {asciiEscape, 'O', 't'},
	KeyF6:    {asciiEscape, 'O', 'u'},
	KeyF7:    {asciiEscape, 'O', 'v'},
	KeyF8:    {asciiEscape, 'O', 'I'},
	KeyF9:    {asciiEscape, 'O', 'w'},
	KeyF10:   {asciiEscape, 'O', 'x'},
}

// KeyCode returns the bytes sent for k, or nil if k has no code.
func KeyCode(k Key) []byte {
	code, ok := keyCodes[k]
	if !ok {
		return nil
	}
	return append([]byte(nil), code...)
}
