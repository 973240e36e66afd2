package main

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"github.com/spf13/cobra"

	"github.com/fyne-io/vt100"
	"github.com/fyne-io/vt100/internal/config"
	"github.com/fyne-io/vt100/internal/widget"
	"github.com/fyne-io/vt100/tty"
)

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Open a window running the local shell",
	RunE:  runGUI,
}

func init() {
	rootCmd.AddCommand(guiCmd)
}

func runGUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return showWindow(cmd.Context(), cfg, tty.NewLocalShell(cfg.Shell.Command, cfg.Shell.Dir))
}

// showWindow runs a session on tr in a new window until the window closes.
func showWindow(ctx context.Context, cfg *config.Config, tr vt100.Transport) error {
	a := app.New()
	w := a.NewWindow(msg("SessionTitle", map[string]any{"Name": tr.Name()}))
	w.SetPadded(false)
	th := newTermTheme(a.Settings().Theme())

	screen := vt100.NewScreenBuffer(cfg.Terminal.Columns, cfg.Terminal.Rows)
	t := widget.NewTerminal(screen)
	emu, err := newEmulator(cfg, tr, t, screen)
	if err != nil {
		return err
	}
	emu.SetController(cfg.Policy(func() {
		fyne.Do(w.Close)
	}))

	w.SetContent(container.NewThemeOverride(t, th))
	w.Resize(windowSize(th, cfg.Size()))
	w.Canvas().Focus(t)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.SetOnClosed(cancel)
	a.Lifecycle().SetOnStarted(func() {
		t.SetPalette(widget.Palette{Theme: th, Variant: a.Settings().ThemeVariant()})
	})

	log := vt100.Logger().With("session", emu.ID().String())
	go func() {
		err := t.Run(ctx, emu)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			log.Error(msg("SessionFailed", map[string]any{"Name": tr.Name(), "Error": err}))
		default:
			log.Info(msg("SessionEnded", map[string]any{"Name": tr.Name(), "Status": emu.ExitStatus()}))
		}
	}()

	w.ShowAndRun()
	cancel()
	if err := tr.Close(); err != nil {
		log.Debug("transport closed", "err", err)
	}
	return nil
}

// windowSize fits size cells of the theme's monospace text.
func windowSize(th fyne.Theme, size vt100.Size) fyne.Size {
	cell := fyne.MeasureText("M", th.Size(theme.SizeNameText), fyne.TextStyle{Monospace: true})
	return fyne.NewSize(cell.Width*float32(size.Width), cell.Height*float32(size.Height))
}
