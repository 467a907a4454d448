package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const defaultServerURL = "ws://localhost:8080/ws"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "confidant-terminal",
		Short: "Chat with Confidant from the terminal",
		Long: "Connects to a running Confidant server over WebSocket.\n\n" +
			"Enter sends, ctrl+z undoes the last turn, ctrl+r retries it,\n" +
			"/image <path> attaches an image to the next message, esc quits.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(serverURL)
		},
	}
	cmd.Flags().StringVarP(&serverURL, "server", "s", defaultServerURL, "WebSocket URL of the chat endpoint")
	return cmd
}

func run(serverURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", serverURL, err)
	}
	defer conn.Close()

	frames := make(chan tea.Msg, 64)
	go readFrames(conn, frames)

	p := tea.NewProgram(NewModel(conn, frames), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
