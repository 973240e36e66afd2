package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyne-io/vt100"
	"github.com/fyne-io/vt100/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fyneterm",
	Short: "fyneterm - a VT100 terminal",
	Long: "fyneterm runs a VT100 session over a local shell, SSH or a WebSocket " +
		"in a window or in the terminal it was started from.",
	RunE:          runGUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "path to a YAML configuration file")
	pf.Bool("debug", false, "log every control sequence")
	pf.Int("rows", 24, "terminal rows")
	pf.Int("columns", 80, "terminal columns")
	pf.String("charset", vt100.DefaultCharset, "encoding of double-byte characters")
	pf.String("lang", "en", "language of messages")
	pf.String("shell", "", "shell to start, $SHELL by default")
	pf.String("dir", "", "working directory of the shell")
}

// loadConfig reads the configuration for cmd and applies its global parts:
// debug logging and the message language.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	vt100.SetDebug(cfg.Terminal.Debug)
	setLanguage(cfg.UI.Language)
	return cfg, nil
}

// newEmulator creates the session of tr on display, with the configured charset.
func newEmulator(cfg *config.Config, tr vt100.Transport, display vt100.Display, screen *vt100.ScreenBuffer) (*vt100.Emulator, error) {
	cs, err := vt100.NewCharset(cfg.Terminal.Charset)
	if err != nil {
		return nil, err
	}
	emu := vt100.NewEmulator(tr, display, screen)
	emu.Terminal().SetCharset(cs)
	return emu, nil
}

// Execute runs the CLI.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
