package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clearcrawl/internal/types"
)

var (
	exportDataDir string
	exportSQLite  bool
	exportFormat  string
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored crawl results",
	Long:  `Export stored pages to JSON or CSV`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.Storage.DataDir = exportDataDir
		}
		if cmd.Flags().Changed("sqlite") {
			cfg.Storage.SQLite = exportSQLite
		}

		backend, err := openStorage(cfg)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer backend.Close()

		pages, err := backend.LoadPages()
		if err != nil {
			return fmt.Errorf("failed to load pages: %w", err)
		}

		switch exportFormat {
		case "json":
			err = writeJSON(exportOutput, pages)
		case "csv":
			err = writeCSV(exportOutput, pages)
		default:
			return fmt.Errorf("unknown format %q (want json or csv)", exportFormat)
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported %d pages to %s\n", len(pages), exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDataDir, "data-dir", "data", "Data storage directory")
	exportCmd.Flags().BoolVar(&exportSQLite, "sqlite", false, "Read from the SQLite backend")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json or csv")
	exportCmd.Flags().StringVar(&exportOutput, "output", "pages.json", "Output file path")
}

func writeJSON(path string, pages []types.StoredPage) error {
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeCSV(path string, pages []types.StoredPage) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	if err := w.Write([]string{"url", "title", "description", "keywords", "crawled_at", "links", "content_chars"}); err != nil {
		return err
	}
	for _, p := range pages {
		record := []string{
			p.URL,
			p.Data.Metadata.Title,
			p.Data.Metadata.Description,
			p.Data.Metadata.Keywords,
			p.CrawledAt.Format(time.RFC3339),
			strconv.Itoa(len(p.Data.Links)),
			strconv.Itoa(len(p.Data.Content)),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
