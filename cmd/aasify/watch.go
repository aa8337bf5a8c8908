package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"aasify/internal/diagfmt"
	"aasify/internal/workspace"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Load the workspace and relink it whenever a document changes",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", 200*time.Millisecond, "quiet period before a change batch is applied")
}

func runWatch(cmd *cobra.Command, args []string) error {
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to get debounce flag: %w", err)
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	s, err := openSession(cmd, nil, sessionOptions{validate: true})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	outcomes, err := s.ws.Load(ctx, s.ids)
	if err != nil {
		return err
	}
	if err := s.printOutcomes(out, outcomes, timings); err != nil {
		return err
	}

	root := s.manifest.WorkspaceRoot()
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", diagfmt.FormatPath(root, diagfmt.PathModeAuto, s.baseDir))
	return s.ws.Watch(ctx, root, workspace.WatchOptions{
		Extensions: s.manifest.Config.Workspace.Extensions,
		Debounce:   debounce,
		OnBatch: func(changed []string, outcomes []workspace.Outcome) {
			for _, path := range changed {
				fmt.Fprintf(out, "changed %s\n", diagfmt.FormatPath(path, diagfmt.PathModeAuto, s.baseDir))
			}
			if err := s.printOutcomes(out, outcomes, timings); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err)
			}
		},
	})
}
