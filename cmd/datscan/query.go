package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [archive] [sql]",
	Short: "Query an archive's catalog database from the command line",
	Long: `Query executes SQL against the catalog of a scanned archive, lists the
catalog tables, or shows a table's schema. The catalog has the tables
categories(id, parent_id, name) and entries(slot, base_id, file_id, kind, name,
category_id).`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		listTables, err := cmd.Flags().GetBool("tables")
		if err != nil {
			return fmt.Errorf("failed to get tables flag: %w", err)
		}
		schemaTable, err := cmd.Flags().GetString("schema")
		if err != nil {
			return fmt.Errorf("failed to get schema flag: %w", err)
		}

		var archiveArgs []string
		var query string
		switch {
		case len(args) == 2:
			archiveArgs, query = args[:1], args[1]
		case len(args) == 1 && (listTables || schemaTable != ""):
			archiveArgs = args
		case len(args) == 1:
			query = args[0]
		}

		path, err := resolveArchive(archiveArgs)
		if err != nil {
			return err
		}

		slog.Debug("Query parameters",
			"archive", path,
			"list-tables", listTables,
			"schema", schemaTable)

		db, err := openCatalog(path, true)
		if err != nil {
			return err
		}
		defer db.Close()

		tables, err := db.Tables(ctx)
		if err != nil {
			return err
		}

		if listTables {
			fmt.Println("Available tables:")
			for _, table := range tables {
				fmt.Printf("  %s\n", table)
			}
			return nil
		}

		if schemaTable != "" {
			if !slices.Contains(tables, schemaTable) {
				return fmt.Errorf("table %q not found", schemaTable)
			}

			rows, err := db.Query(ctx, `SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`, schemaTable)
			if err != nil {
				return fmt.Errorf("getting schema for table %s: %w", schemaTable, err)
			}
			defer rows.Close()

			fmt.Printf("Schema for table '%s':\n", schemaTable)
			fmt.Printf("%-20s %-15s %-10s %-10s %-10s\n", "Column", "Type", "NotNull", "Default", "Primary")
			fmt.Println(strings.Repeat("-", 70))

			for rows.Next() {
				var name, dataType string
				var notNull, primaryKey int
				var defaultValue interface{}

				if err := rows.Scan(&name, &dataType, &notNull, &defaultValue, &primaryKey); err != nil {
					return fmt.Errorf("scanning schema row: %w", err)
				}

				defaultStr := "NULL"
				if defaultValue != nil {
					defaultStr = fmt.Sprintf("%v", defaultValue)
				}

				fmt.Printf("%-20s %-15s %-10s %-10s %-10s\n",
					name, dataType, yesNo(notNull != 0), defaultStr, yesNo(primaryKey != 0))
			}

			if err := rows.Err(); err != nil {
				return fmt.Errorf("iterating schema: %w", err)
			}

			ddl, err := db.TableSQL(ctx, schemaTable)
			if err != nil {
				return err
			}
			fmt.Printf("\n%s\n", ddl)

			return nil
		}

		if query == "" {
			return fmt.Errorf("no query provided, use --tables to list tables or --schema <table> to show schema")
		}

		slog.Debug("Executing SQL query", "query", query)

		rows, err := db.Query(ctx, query)
		if err != nil {
			return fmt.Errorf("executing query: %w", err)
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("getting column names: %w", err)
		}

		fmt.Println(strings.Join(columns, "\t"))
		separators := make([]string, len(columns))
		for i, col := range columns {
			separators[i] = strings.Repeat("-", len(col))
		}
		fmt.Println(strings.Join(separators, "\t"))

		for rows.Next() {
			values := make([]interface{}, len(columns))
			valuePtrs := make([]interface{}, len(columns))
			for i := range values {
				valuePtrs[i] = &values[i]
			}

			if err := rows.Scan(valuePtrs...); err != nil {
				return fmt.Errorf("scanning row: %w", err)
			}

			cells := make([]string, len(values))
			for i, val := range values {
				switch v := val.(type) {
				case nil:
					cells[i] = "NULL"
				case []byte:
					cells[i] = string(v)
				default:
					cells[i] = fmt.Sprint(v)
				}
			}
			fmt.Println(strings.Join(cells, "\t"))
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating rows: %w", err)
		}

		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("tables", false, "List available tables")
	queryCmd.Flags().String("schema", "", "Show schema for specified table")
}
