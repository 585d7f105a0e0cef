package main

import (
	"fmt"
	"os"

	"github.com/salah-saleh/AuraSpeak/internal/ipc"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s engage|release|trigger|stop\n", os.Args[0])
		os.Exit(2)
	}

	if err := ipc.SendCommand(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "aura-ctl:", err)
		os.Exit(1)
	}
}
