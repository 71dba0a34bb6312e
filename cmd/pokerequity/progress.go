package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/pokerequity/internal/equity"
)

type progressMsg struct {
	completed int
	requested int
}

type doneMsg struct{}

type progressModel struct {
	bar       progress.Model
	completed int
	requested int
	cancel    context.CancelFunc
}

func newProgressModel(cancel context.CancelFunc) progressModel {
	return progressModel{
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel: cancel,
	}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-24, 60))
	case progressMsg:
		m.completed, m.requested = msg.completed, msg.requested
	case doneMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.requested == 0 {
		return "Starting simulation...\n"
	}
	ratio := float64(m.completed) / float64(m.requested)
	return fmt.Sprintf("%s %d/%d batches\n", m.bar.ViewAs(ratio), m.completed, m.requested)
}

// runWithProgress calls run with a progress callback that drives a terminal
// progress bar, and returns once both run and the bar have finished.
// Quitting the bar calls cancel.
func runWithProgress(cancel context.CancelFunc, run func(equity.ProgressFunc)) error {
	p := tea.NewProgram(newProgressModel(cancel), tea.WithOutput(os.Stderr))

	done := make(chan struct{})
	go func() {
		defer close(done)
		run(func(completed, requested int) {
			p.Send(progressMsg{completed: completed, requested: requested})
		})
		p.Send(doneMsg{})
	}()

	_, err := p.Run()
	<-done
	return err
}
