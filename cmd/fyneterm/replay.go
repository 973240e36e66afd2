package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyne-io/vt100"
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Play a captured byte stream and print the resulting screen",
	Long: "replay feeds FILE, or standard input when FILE is -, through the " +
		"emulator without any transport and prints the scrollback and screen.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		in := cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open capture: %w", err)
			}
			defer f.Close()
			in = f
		}

		opts := replayOptions{size: cfg.Size(), charset: cfg.Terminal.Charset}
		opts.styles, _ = cmd.Flags().GetBool("styles")
		opts.damage, _ = cmd.Flags().GetBool("damage")
		return replay(cmd.OutOrStdout(), in, opts)
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Bool("styles", false, "also print the style id of every cell")
	replayCmd.Flags().Bool("damage", false, "also print which cells were changed")
}

type replayOptions struct {
	size           vt100.Size
	charset        string
	styles, damage bool
}

// replay decodes everything in r onto a fresh screen and writes out what it
// shows.
func replay(w io.Writer, r io.Reader, opts replayOptions) error {
	cs, err := vt100.NewCharset(opts.charset)
	if err != nil {
		return err
	}
	screen := vt100.NewScreenBuffer(opts.size.Width, opts.size.Height)
	display := vt100.NewBufferDisplay(screen)
	term := vt100.NewTerminal(display, screen)
	term.SetCharset(cs)
	scrollback := vt100.NewScrollback()
	term.SetScrollback(scrollback)

	if err := term.Replay(r); err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	if n := scrollback.LineCount(); n > 0 {
		fmt.Fprintln(w, msg("ScrollbackHeader", map[string]any{"Lines": n}))
		fmt.Fprint(w, scrollback.Lines())
	}
	fmt.Fprintln(w, msg("ScreenHeader", nil))
	fmt.Fprint(w, screen.Lines())
	if opts.styles {
		fmt.Fprintln(w, msg("StylesHeader", nil))
		fmt.Fprint(w, screen.StyleLines())
	}
	if opts.damage {
		fmt.Fprintln(w, msg("DamageHeader", nil))
		fmt.Fprint(w, screen.DamageLines())
	}

	x, y := display.Cursor()
	fmt.Fprintln(w, msg("ReplaySummary", map[string]any{"Column": x, "Row": y, "Beeps": display.Beeps()}))
	return nil
}
