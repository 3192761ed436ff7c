package cmd

import (
	"fmt"

	"github.com/theirongolddev/rab/internal/config"
	"github.com/theirongolddev/rab/internal/export"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Log level:  %s\n", cfg.General.LogLevel)
	if cfg.General.LogFormat != "" {
		fmt.Printf("    Log format: %s\n", cfg.General.LogFormat)
	}
	fmt.Println()

	fmt.Println("  [Gemini]")
	fmt.Printf("    API key: %s (%s)\n", config.MaskKey(config.GetAPIKey(cfg)), config.APIKeySource(cfg))
	fmt.Printf("    Model:   %s\n", cfg.Gemini.Model)
	fmt.Printf("    Timeout: %s\n", cfg.Timeout())
	if cfg.Gemini.BaseURL != "" {
		fmt.Printf("    Base URL: %s\n", cfg.Gemini.BaseURL)
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	if cfg.Server.EventsBuffer > 0 {
		fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	}
	fmt.Println()

	fmt.Println("  [Export]")
	if cfg.Export.Title != "" {
		fmt.Printf("    Title: %s\n", cfg.Export.Title)
	} else {
		fmt.Printf("    Title: %s (default)\n", export.DefaultTitle)
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `rab setup` to reconfigure.")
	return nil
}
