package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jchantrell/datscan/internal/database"
	"github.com/jchantrell/datscan/internal/export"
	"github.com/jchantrell/datscan/internal/utils"
)

var (
	extractSlots    []int
	extractCategory string
	extractOutput   string
)

var extractCmd = &cobra.Command{
	Use:   "extract [archive]",
	Short: "Write decompressed archive entries to disk",
	Long: `Extract writes the decompressed content of archive entries to the output
directory, laid out by catalog category and named after the entry with the
extension of its kind.

Select entries with --slot (repeatable) or --category. String tables are
limited to the configured languages when 'languages' is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(extractSlots) == 0 && extractCategory == "" {
			return fmt.Errorf("nothing to extract, use --slot or --category")
		}

		path, err := resolveArchive(args)
		if err != nil {
			return err
		}

		r, err := openArchive(path)
		if err != nil {
			return err
		}
		defer r.Close()

		db, err := openCatalog(path, true)
		if err != nil {
			return err
		}
		defer db.Close()

		idx, err := database.LoadCatalog(context.Background(), db)
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}

		exporter := export.NewExporter(r, idx, extractOutput)
		exporter.SetFilter(export.LanguageFilter(idx, cfg.ExportLanguages()))

		start := time.Now()
		var progress *utils.Progress
		onProgress := func(current, total int, description string) {
			if progress == nil {
				progress = utils.NewProgress(total, progressEnabled())
			}
			progress.Update(current, description)
		}

		var exported int
		if extractCategory != "" {
			id, ok := idx.FindPath(splitCategoryPath(extractCategory)...)
			if !ok {
				return fmt.Errorf("category %q not found", extractCategory)
			}
			exported, err = exporter.ExportCategory(id, onProgress)
		} else {
			exported, err = exporter.ExportSlots(extractSlots, onProgress)
		}

		if progress != nil {
			progress.Finish()
		}
		if err != nil {
			return fmt.Errorf("exporting entries: %w", err)
		}

		slog.Info("Export finished", "output", extractOutput, "files", exported, "duration", utils.Duration(time.Since(start)))
		fmt.Printf("Files written: %s\n", utils.Number(int64(exported)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().IntSliceVar(&extractSlots, "slot", []int{}, "slot to extract, repeatable")
	extractCmd.Flags().StringVarP(&extractCategory, "category", "c", "", "category path to extract, e.g. Sounds/MP3")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "export", "output directory")
}
