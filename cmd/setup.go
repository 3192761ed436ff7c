package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/rab/internal/config"
	"github.com/theirongolddev/rab/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the file, not appCfg, so flag overrides are not persisted.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cfg, err = tui.RunSetup(cfg)
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println("  Setup cancelled; nothing saved.")
		return nil
	}
	if err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `rab setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
