package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fyne-io/vt100/tty"
)

var wsCmd = &cobra.Command{
	Use:   "ws [URL]",
	Short: "Attach to a terminal stream served over a WebSocket",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.WebSocket.URL = args[0]
		}
		if cfg.WebSocket.URL == "" {
			return errors.New(msg("NoURL", nil))
		}

		tr := tty.NewWebSocket(cfg.WebSocket.URL)
		if useConsole, _ := cmd.Flags().GetBool("console"); useConsole {
			return runConsole(cmd.Context(), cfg, tr)
		}
		return showWindow(cmd.Context(), cfg, tr)
	},
}

func init() {
	rootCmd.AddCommand(wsCmd)
	wsCmd.Flags().String("url", "", "ws:// or wss:// address of the stream")
	wsCmd.Flags().Bool("console", false, "run inside this terminal instead of a window")
}
