package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/rab/internal/cli"
	"github.com/theirongolddev/rab/internal/export"
	"github.com/theirongolddev/rab/internal/ingest"
	"github.com/theirongolddev/rab/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagParseFormat  string
	flagParseCSVOnly bool
	flagParseTitle   string
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Extract RAB items from a spreadsheet with Gemini",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&flagParseFormat, "format", "f", "table", "Output format: table, json, yaml, csv")
	parseCmd.Flags().BoolVar(&flagParseCSVOnly, "csv-only", false, "Print the converted sheet as CSV and skip the AI")
	parseCmd.Flags().StringVar(&flagParseTitle, "title", "", "Document title (default from config)")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(flagParseFormat)
	switch format {
	case "table", "json", "yaml", "csv":
	default:
		return fmt.Errorf("unknown format %q (want table, json, yaml or csv)", flagParseFormat)
	}

	name, data, err := readUpload(args[0])
	if err != nil {
		return err
	}

	if flagParseCSVOnly {
		csvText, err := ingest.ToCSV(name, data)
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), csvText)
		return err
	}

	summary, err := extractSummary(cmd.Context(), name, data)
	if err != nil {
		return err
	}

	title := flagParseTitle
	if title == "" {
		title = appCfg.Export.Title
	}
	return writeSummary(cmd.OutOrStdout(), format, export.NewData(title, summary, time.Now()))
}

// readUpload reads a spreadsheet from disk under the same size limit as
// web uploads.
func readUpload(path string) (string, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	data, err := ingest.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	return filepath.Base(path), data, nil
}

// extractSummary runs the upload workflow and returns the resulting summary.
func extractSummary(ctx context.Context, name string, data []byte) (model.Summary, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Mengekstrak %s dengan %s...\n", name, appCfg.Gemini.Model)
	}
	start := time.Now()

	svc := newService(appCfg)
	out := svc.Upload(ctx, name, data)
	if !out.OK() {
		logger.WithError(out.Err).Debug("upload failed")
		return model.Summary{}, errors.New(out.Message)
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  %d item dalam %s\n", len(out.Items), cli.FormatElapsed(time.Since(start)))
	}
	return svc.Summary(), nil
}

func writeSummary(w io.Writer, format string, data export.Data) error {
	switch format {
	case "json":
		return export.WriteJSON(w, data)
	case "yaml":
		return export.WriteYAML(w, data)
	case "csv":
		return export.WriteCSV(w, data)
	}

	if len(data.Summary.Rows) == 0 {
		fmt.Fprintln(w, cli.RenderWarning("Tidak ada item yang ditemukan."))
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, cli.RenderTable(cli.BudgetTable(data.Title, data.Summary)))
	return nil
}
