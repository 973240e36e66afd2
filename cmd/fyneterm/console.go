package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/fyne-io/vt100"
	"github.com/fyne-io/vt100/internal/config"
	"github.com/fyne-io/vt100/internal/console"
	"github.com/fyne-io/vt100/tty"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run the local shell inside this terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runConsole(cmd.Context(), cfg, tty.NewLocalShell(cfg.Shell.Command, cfg.Shell.Dir))
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

// runConsole runs a session on tr in the terminal fyneterm was started from,
// until the session ends or the user presses the quit key.
func runConsole(ctx context.Context, cfg *config.Config, tr vt100.Transport) error {
	defer tr.Close()
	fmt.Fprintln(os.Stderr, msg("ConsoleHint", nil))

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open console: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init console: %w", err)
	}

	buf := console.NewBuffer(screen)
	c := console.New(screen, buf)
	emu, err := newEmulator(cfg, tr, c, buf)
	if err != nil {
		screen.Fini()
		return err
	}

	err = c.Run(ctx, emu)
	screen.Fini()

	switch {
	case errors.Is(err, console.ErrQuit), errors.Is(err, context.Canceled):
		return nil
	case err != nil:
		return errors.New(msg("SessionFailed", map[string]any{"Name": tr.Name(), "Error": err}))
	}
	fmt.Fprintln(os.Stderr, msg("SessionEnded", map[string]any{"Name": tr.Name(), "Status": emu.ExitStatus()}))
	return nil
}
