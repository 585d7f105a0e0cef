// Package ipc exposes a unix-socket control surface so the session can
// be driven without the global hotkey (scripts, window-manager binds,
// headless testing).
package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

// SocketPath is where the daemon listens for control commands.
const SocketPath = "/tmp/auraspeak.sock"

// Control verbs understood by the daemon.
const (
	CmdEngage  = "engage"
	CmdRelease = "release"
	CmdTrigger = "trigger" // engage now, release after a fixed hold
	CmdStop    = "stop"    // cancel the in-flight pipeline and playback
)

// ControlMessage is one command on the socket.
type ControlMessage struct {
	Cmd string `json:"cmd"`
}

// StartServer listens on SocketPath and dispatches each received
// command to handler on its own goroutine.
func StartServer(handler func(ControlMessage)) error {
	os.Remove(SocketPath)

	ln, err := net.Listen("unix", SocketPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return nil
}

func handleConn(conn net.Conn, handler func(ControlMessage)) {
	defer conn.Close()

	var msg ControlMessage
	dec := json.NewDecoder(conn)
	if err := dec.Decode(&msg); err != nil {
		return
	}
	handler(msg)
}

// SendCommand delivers one command to a running daemon.
func SendCommand(cmd string) error {
	conn, err := net.Dial("unix", SocketPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	enc := json.NewEncoder(conn)
	return enc.Encode(ControlMessage{Cmd: cmd})
}
