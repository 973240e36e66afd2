// Package vt100 is a VT100/ANSI terminal emulation core.
//
// Bytes from a Transport are pulled through a ByteChannel, decoded into
// actions by a Decoder and applied by a Terminal to a ScreenBuffer. Lines
// scrolled off the top of the screen are kept in a Scrollback. Renderers
// extract styled runs from the ScreenBuffer, either for a rectangle or only
// for the cells damaged since the last extraction.
//
// An Emulator wires these together and owns the session lifecycle:
//
//	screen := vt100.NewScreenBuffer(80, 24)
//	emu := vt100.NewEmulator(transport, vt100.NewBufferDisplay(screen), screen)
//	err := emu.Run(ctx)
package vt100
