package main

import (
	"github.com/spf13/cobra"

	"github.com/fyne-io/vt100/tty"
)

var sshCmd = &cobra.Command{
	Use:   "ssh [user@]host",
	Short: "Open a shell on a remote host over SSH",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.SSH.User, cfg.SSH.Host = splitTarget(args[0], cfg.SSH.User)
		}

		tr := tty.NewSSHShell(cfg.SSHConfig())
		if useConsole, _ := cmd.Flags().GetBool("console"); useConsole {
			return runConsole(cmd.Context(), cfg, tr)
		}
		return showWindow(cmd.Context(), cfg, tr)
	},
}

func init() {
	rootCmd.AddCommand(sshCmd)
	sshCmd.Flags().String("host", "", "remote host")
	sshCmd.Flags().Int("port", 22, "remote port")
	sshCmd.Flags().StringP("user", "l", "", "remote user")
	sshCmd.Flags().StringP("key", "i", "", "private key file")
	sshCmd.Flags().Bool("console", false, "run inside this terminal instead of a window")
}

// splitTarget splits user@host, keeping user when the target names none.
func splitTarget(target, user string) (string, string) {
	for i := len(target) - 1; i >= 0; i-- {
		if target[i] == '@' {
			return target[:i], target[i+1:]
		}
	}
	return user, target
}
