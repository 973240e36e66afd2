// Command fyneterm is a VT100 terminal for local shells, SSH and WebSocket
// sessions.
package main

func main() {
	Execute()
}
