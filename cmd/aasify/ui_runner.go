package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"aasify/internal/ui"
	"aasify/internal/workspace"
)

type loadOutcome struct {
	outcomes []workspace.Outcome
	err      error
}

// runLoadWithUI loads ids while a progress view consumes the workspace events.
// The sink is detached before returning so later updates do not write to
// the closed channel.
func runLoadWithUI(ctx context.Context, title string, ws *workspace.Workspace, ids []string) ([]workspace.Outcome, error) {
	events := make(chan workspace.Event, 256)
	outcomeCh := make(chan loadOutcome, 1)

	ws.SetProgress(workspace.ChannelSink{Ch: events})
	go func() {
		outcomes, err := ws.Load(ctx, ids)
		ws.SetProgress(nil)
		outcomeCh <- loadOutcome{outcomes: outcomes, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, ids, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.outcomes, uiErr
	}
	return outcome.outcomes, outcome.err
}
