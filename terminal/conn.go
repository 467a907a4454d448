package main

import (
	tea "github.com/charmbracelet/bubbletea"

	chatws "github.com/satriahrh/confidant/adapters/websocket"
)

// frameWriter is the half of the connection the model sends actions on.
type frameWriter interface {
	WriteJSON(v interface{}) error
}

type frameReader interface {
	ReadJSON(v interface{}) error
}

type (
	frameMsg        chatws.Message
	disconnectedMsg struct{ err error }
)

// readFrames pumps server frames into out until the connection fails.
func readFrames(conn frameReader, out chan<- tea.Msg) {
	for {
		var m chatws.Message
		if err := conn.ReadJSON(&m); err != nil {
			out <- disconnectedMsg{err: err}
			close(out)
			return
		}
		out <- frameMsg(m)
	}
}

func waitForFrame(in <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-in
		if !ok {
			return nil
		}
		return msg
	}
}
