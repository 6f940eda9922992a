package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/talktotj/chat/backend/internal/model/chat"
	chatservice "github.com/talktotj/chat/backend/internal/service/chat"
)

// view prints conversation changes incrementally.
type view struct {
	out  io.Writer
	name string

	printed  int
	wasBusy  bool
	lastErr  error
	userTag  lipgloss.Style
	botTag   lipgloss.Style
	status   lipgloss.Style
	errStyle lipgloss.Style
	title    lipgloss.Style
}

func newView(out io.Writer, name string) *view {
	r := lipgloss.NewRenderer(out)
	return &view{
		out:      out,
		name:     name,
		userTag:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		botTag:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("250")),
		status:   r.NewStyle().Italic(true).Foreground(lipgloss.Color("243")),
		errStyle: r.NewStyle().Foreground(lipgloss.Color("203")),
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
	}
}

func (v *view) Banner() {
	fmt.Fprintln(v.out, v.title.Render("💬 Talk to "+v.name))
}

// Update is registered as the conversation listener.
func (v *view) Update(state chatservice.State) {
	for _, msg := range state.Messages[v.printed:] {
		v.printMessage(msg)
	}
	v.printed = len(state.Messages)

	if state.Busy && !v.wasBusy {
		fmt.Fprintln(v.out, v.status.Render(v.name+" is typing..."))
	}
	v.wasBusy = state.Busy

	if !state.Busy && state.Err != nil && state.Err != v.lastErr {
		fmt.Fprintln(v.out, v.errStyle.Render("! message not delivered: "+state.Err.Error()))
	}
	v.lastErr = state.Err
}

func (v *view) printMessage(msg chat.Message) {
	switch msg.Origin {
	case chat.OriginUser:
		fmt.Fprintf(v.out, "%s %s\n", v.userTag.Render("you:"), msg.Text)
	case chat.OriginAssistant:
		fmt.Fprintf(v.out, "%s %s\n", v.botTag.Render(v.name+":"), msg.Text)
	}
}
