package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/rab/internal/export"
	"github.com/theirongolddev/rab/internal/model"
	"github.com/theirongolddev/rab/internal/pipeline"
	"github.com/theirongolddev/rab/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagExportOut   string
	flagExportTitle string
)

var exportCmd = &cobra.Command{
	Use:   "export <items.json|sheet.xlsx>",
	Short: "Export RAB items to XLSX or PDF",
	Long: "Export a RAB to XLSX or PDF. The input is either a JSON items file\n" +
		"(as written by `rab parse --format json`) or a spreadsheet, which is\n" +
		"read with Gemini first.",
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "output", "o", "rab.xlsx", "Output file (.xlsx or .pdf)")
	exportCmd.Flags().StringVar(&flagExportTitle, "title", "", "Document title (default from input or config)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	render, err := exporterFor(flagExportOut)
	if err != nil {
		return err
	}

	var (
		title   string
		summary model.Summary
	)
	if strings.EqualFold(filepath.Ext(args[0]), ".json") {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		var drafts []model.Draft
		title, drafts, err = export.ReadDocument(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		summary = pipeline.Summarize(store.New().ReplaceAll(drafts))
	} else {
		name, data, err := readUpload(args[0])
		if err != nil {
			return err
		}
		if summary, err = extractSummary(cmd.Context(), name, data); err != nil {
			return err
		}
	}

	switch {
	case flagExportTitle != "":
		title = flagExportTitle
	case title == "":
		title = appCfg.Export.Title
	}

	out, err := render(export.NewData(title, summary, time.Now()))
	if err != nil {
		return fmt.Errorf("render %s: %w", flagExportOut, err)
	}
	if err := os.WriteFile(flagExportOut, out, 0o644); err != nil {
		return err
	}

	logger.WithField("items", len(summary.Rows)).WithField("file", flagExportOut).Info("exported")
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Diekspor %d item ke %s\n", len(summary.Rows), flagExportOut)
	}
	return nil
}

func exporterFor(path string) (func(export.Data) ([]byte, error), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return export.XLSX, nil
	case ".pdf":
		return export.PDF, nil
	}
	return nil, fmt.Errorf("unsupported output %q (want .xlsx or .pdf)", path)
}
