package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"rigpath/backend/internal/logging"
	"rigpath/backend/internal/viewer"
)

func main() {
	url := pflag.String("url", "ws://localhost:8080/ws", "playback stream address")
	logFile := pflag.String("log", "", "write debug logs to this file")
	pflag.Parse()

	var logOut io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := logging.New(logOut, "debug", false)

	client, err := viewer.Dial(*url, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	program := tea.NewProgram(viewer.NewModel(client.Send), tea.WithAltScreen())
	go func() {
		program.Send(viewer.ConnectedMsg{Addr: client.RemoteAddr()})
		client.Run(func(msg interface{}) { program.Send(msg) })
	}()

	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
