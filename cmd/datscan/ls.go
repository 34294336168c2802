package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jchantrell/datscan/internal/catalog"
	"github.com/jchantrell/datscan/internal/database"
	"github.com/jchantrell/datscan/internal/utils"
)

var (
	lsCategory string
	lsEntries  bool
	lsDepth    int
)

var lsCmd = &cobra.Command{
	Use:   "ls [archive]",
	Short: "List the category tree of a scanned archive",
	Long: `Ls prints the category tree of an archive's catalog with the number of
entries under each category. Use --category to start below a category and
--entries to list the entries filed directly under it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveArchive(args)
		if err != nil {
			return err
		}

		db, err := openCatalog(path, true)
		if err != nil {
			return err
		}
		defer db.Close()

		idx, err := database.LoadCatalog(context.Background(), db)
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}

		start := catalog.Root
		if lsCategory != "" {
			id, ok := idx.FindPath(splitCategoryPath(lsCategory)...)
			if !ok {
				return fmt.Errorf("category %q not found", lsCategory)
			}
			start = id
		}

		if lsEntries {
			c, _ := idx.Category(start)
			for _, eid := range c.Entries() {
				e, _ := idx.Entry(eid)
				fmt.Printf("%8d  %-12s %s\n", e.Slot, e.Kind, e.Name)
			}
			return nil
		}

		fmt.Printf("%s (%s)\n", displayPath(idx, start), utils.Number(int64(idx.SubtreeLen(start))))
		printTree(idx, start)

		return nil
	},
}

func displayPath(idx *catalog.Index, id catalog.CategoryID) string {
	path := idx.Path(id)
	if len(path) == 0 {
		return "/"
	}
	return strings.Join(path, "/")
}

// printTree prints the categories below start, indented by depth and cut off at --depth
func printTree(idx *catalog.Index, start catalog.CategoryID) {
	idx.Walk(start, func(id catalog.CategoryID, depth int) bool {
		c, _ := idx.Category(id)
		fmt.Printf("%s%s (%s)\n", strings.Repeat("  ", depth+1), c.Name, utils.Number(int64(idx.SubtreeLen(id))))
		return lsDepth <= 0 || depth+1 < lsDepth
	})
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().StringVarP(&lsCategory, "category", "c", "", "category path to start from, e.g. Textures/PNG")
	lsCmd.Flags().BoolVar(&lsEntries, "entries", false, "list entries filed directly under the category")
	lsCmd.Flags().IntVar(&lsDepth, "depth", 0, "maximum tree depth, 0 for unlimited")
}
