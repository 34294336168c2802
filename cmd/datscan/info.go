package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jchantrell/datscan/internal/cache"
	"github.com/jchantrell/datscan/internal/database"
	"github.com/jchantrell/datscan/internal/utils"
)

var infoCmd = &cobra.Command{
	Use:   "info [archive]",
	Short: "Show archive header and catalog status",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveArchive(args)
		if err != nil {
			return err
		}

		r, err := openArchive(path)
		if err != nil {
			return err
		}
		defer r.Close()

		h := r.Header()
		fmt.Printf("Archive: %s\n", r.Path())
		fmt.Printf("Size: %s (%s bytes)\n", utils.Bytes(r.Size()), utils.Number(r.Size()))
		fmt.Printf("Modified: %s\n", r.ModTime().Format("2006-01-02 15:04:05"))
		fmt.Printf("Sector size: %d\n", h.SectorSize)
		fmt.Printf("Master table: offset %d, %s bytes\n", h.MFTOffset, utils.Number(int64(h.MFTSize)))
		fmt.Printf("Slots: %s\n", utils.Number(int64(r.SlotCount())))
		fmt.Printf("Identified slots: %s\n", utils.Number(int64(r.IdentifiedSlots())))

		dataDir := cache.New(cfg.DataDir)
		fmt.Printf("Data directory: %s\n", dataDir.Root())

		catalogPath, err := dataDir.CatalogPath(path)
		if err != nil {
			return err
		}
		if !cache.FileExists(catalogPath) {
			fmt.Println("Catalog: none")
			return nil
		}

		db, err := openCatalog(path, true)
		if err != nil {
			return err
		}
		defer db.Close()

		meta, ok, err := database.ReadMeta(context.Background(), db)
		if err != nil {
			return fmt.Errorf("reading catalog: %w", err)
		}
		if !ok {
			fmt.Printf("Catalog: %s (empty)\n", catalogPath)
			return nil
		}

		status := "up to date"
		switch {
		case !meta.ArchiveModTime.Equal(r.ModTime()):
			status = "stale"
		case meta.HighestCovered < r.SlotCount()-1:
			status = fmt.Sprintf("partial, %d/%d slots", meta.HighestCovered+1, r.SlotCount())
		}

		fmt.Printf("Catalog: %s (%s, %s)\n", catalogPath, status, utils.Bytes(cache.FileSize(catalogPath)))
		fmt.Printf("Catalog saved: %s\n", meta.SavedAt.Format("2006-01-02 15:04:05"))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
