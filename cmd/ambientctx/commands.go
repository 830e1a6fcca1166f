package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"ambientctx/internal/bootstrap"
	"ambientctx/internal/config"
	"ambientctx/internal/desktop"
	"ambientctx/internal/domain"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ambientctx",
		Short:         "Collect screen and audio context",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newWindowsCmd(),
		newScreenCmd(),
		newListenCmd(),
		newContextCmd(),
	)
	return root
}

func newWindowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "windows",
		Short: "List windows eligible for capture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			windows, err := desktop.NewLister(cfg.Screen.MinWindowArea).ListWindows(cmd.Context())
			if err != nil {
				return err
			}
			printWindows(cmd.OutOrStdout(), windows)
			return nil
		},
	}
}

func printWindows(w io.Writer, windows []domain.Window) {
	for _, win := range windows {
		fmt.Fprintf(w, "%#x\t%s\n", win.Handle, win.Title)
	}
}

func newScreenCmd() *cobra.Command {
	var maxChars int
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Capture and recognize visible windows once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := buildServices()
			if err != nil {
				return err
			}
			defer services.Close()
			if services.Screen == nil {
				return services.ScreenErr
			}
			if maxChars <= 0 {
				maxChars = services.Config.Screen.MaxChars
			}
			text, err := services.Screen.GetScreenText(cmd.Context(), maxChars)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "character budget (defaults to the configured screen budget)")
	return cmd
}

func newListenCmd() *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Transcribe system audio and print the rolling transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := buildServices()
			if err != nil {
				return err
			}
			defer services.Close()
			pipeline := services.Pipeline
			if pipeline == nil {
				return services.AudioErr
			}

			pipeline.SetEnabled(true)
			if err := pipeline.StartCapture(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "listening for %s (drain every %s)\n", duration, services.Config.Audio.DrainInterval())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			select {
			case <-ctx.Done():
			case <-time.After(duration):
			}

			fmt.Fprint(cmd.OutOrStdout(), pipeline.Transcript())
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 30*time.Second, "how long to listen")
	return cmd
}

func newContextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Print the context assembled from the stored settings",
		Long: `Print the context assembled from the stored settings.

A one-shot process has no rolling transcript, so only the screen section
can be non-empty. Use "listen" to exercise the audio pipeline.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := buildServices()
			if err != nil {
				return err
			}
			defer services.Close()

			out, err := services.Assembler.Build(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out.Content)
			return nil
		},
	}
}

func buildServices() (bootstrap.Services, error) {
	return bootstrap.Build(stderrSink{})
}

type stderrSink struct{}

func (stderrSink) PipelineError(code domain.ErrorCode, detail string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", code, detail)
}
