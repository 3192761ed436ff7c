package cmd

import (
	"fmt"

	"github.com/theirongolddev/rab/internal/config"
	"github.com/theirongolddev/rab/internal/logging"
	"github.com/theirongolddev/rab/internal/tui"
	"github.com/theirongolddev/rab/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var flagExportDir string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	RunE:  runTUI,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, tuiCmd} {
		c.Flags().StringVar(&flagExportDir, "export-dir", ".", "Directory for exported workbooks")
	}
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Log lines would tear the alternate screen.
	if flagLogFile == "" {
		logger = logging.Discard()
	}

	theme.SetActive(appCfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(newService(appCfg), tui.Options{
		Ctx:          cmd.Context(),
		Config:       appCfg,
		NeedSetup:    !config.Exists(),
		ExportDir:    flagExportDir,
		NewExtractor: newExtractor,
	})
	defer app.Close()
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
