package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jchantrell/datscan/internal/catalog"
	"github.com/jchantrell/datscan/internal/database"
	"github.com/jchantrell/datscan/internal/scan"
	"github.com/jchantrell/datscan/internal/utils"
)

type ScanStats struct {
	StartTime time.Time
	EndTime   time.Time
	Slots     int
	Indexed   int
	Skipped   int
	Entries   int
}

var forceScan bool

var scanCmd = &cobra.Command{
	Use:   "scan [archive]",
	Short: "Build or update the catalog of an archive",
	Long: `Scan classifies every entry of the archive and stores the result in the
archive's catalog.

An existing catalog is reused: a scan that was interrupted resumes at the first
slot not yet covered, and a catalog built against an older copy of the archive
is discarded and rebuilt. Use --force to rebuild unconditionally.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		path, err := resolveArchive(args)
		if err != nil {
			return err
		}

		r, err := openArchive(path)
		if err != nil {
			return err
		}
		defer r.Close()

		db, err := openCatalog(path, false)
		if err != nil {
			return err
		}
		defer db.Close()

		idx, err := database.LoadCatalog(ctx, db)
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}

		if forceScan {
			slog.Info("Discarding catalog", "entries", idx.Len())
			idx.Clear()
		}

		switch catalog.Reconcile(idx, r.ModTime(), r.SlotCount()) {
		case catalog.PlanUpToDate:
			slog.Info("Catalog is up to date", "entries", idx.Len(), "slots", r.SlotCount())
			return nil
		case catalog.PlanResume:
			slog.Info("Resuming scan", "from", idx.HighestCovered()+1, "slots", r.SlotCount())
		case catalog.PlanFullScan:
			slog.Info("Scanning archive", "path", path, "slots", r.SlotCount())
		}

		stats := &ScanStats{StartTime: time.Now()}

		task := scan.NewTask(r, idx)
		if !task.Init() {
			return scan.ErrInitFailed
		}
		_, stats.Slots = task.Progress()

		progress := utils.NewProgress(stats.Slots, progressEnabled())
		scanErr := scan.Drive(ctx, task, func(done, total int) {
			progress.Update(done, fmt.Sprintf("slot %d", idx.HighestCovered()))
		})
		progress.Finish()

		stats.EndTime = time.Now()
		stats.Indexed, stats.Skipped = task.Stats()
		stats.Entries = idx.Len()

		// progress is saved even when interrupted so the next scan resumes
		saveErr := database.SaveCatalog(context.Background(), db, idx, database.SaveOptions{
			ArchivePath: path,
			SlotCount:   r.SlotCount(),
			BatchSize:   cfg.BatchSize,
		})

		if errors.Is(scanErr, context.Canceled) {
			slog.Warn("Scan interrupted", "covered", idx.HighestCovered(), "slots", r.SlotCount())
			if saveErr != nil {
				return fmt.Errorf("saving partial catalog: %w", saveErr)
			}
			return scanErr
		}
		if scanErr != nil {
			return fmt.Errorf("scanning archive: %w", scanErr)
		}
		if saveErr != nil {
			return fmt.Errorf("saving catalog: %w", saveErr)
		}

		printScanStats(stats)
		fmt.Printf("Catalog: %s\n", db.Path())
		fmt.Println("Try running: datscan ls")

		return nil
	},
}

func printScanStats(stats *ScanStats) {
	duration := stats.EndTime.Sub(stats.StartTime)

	var rate float64
	if duration.Seconds() > 0 {
		rate = float64(stats.Slots) / duration.Seconds()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fmt.Printf("Slots scanned: %s\n", utils.Number(int64(stats.Slots)))
	fmt.Printf("Entries indexed: %s\n", utils.Number(int64(stats.Indexed)))
	fmt.Printf("Slots skipped: %s\n", utils.Number(int64(stats.Skipped)))
	fmt.Printf("Catalog entries: %s\n", utils.Number(int64(stats.Entries)))
	fmt.Printf("Duration: %s\n", utils.Duration(duration))
	fmt.Printf("Scan rate: %s slots/sec\n", utils.Rate(rate))
	fmt.Printf("Memory usage: %.2fmb\n", float64(mem.Alloc)/1024.0/1024.0)
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&forceScan, "force", false, "discard the existing catalog and rescan")
}
