package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	catalogrepo "github.com/TheVirusNVGM/modcurator/internal/repository/catalog"
)

const defaultImportBatch = 500

// newCatalogCmd creates the catalog command group.
func newCatalogCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the mod catalog",
	}
	cmd.AddCommand(newCatalogLoadCmd(flags))
	return cmd
}

// newCatalogLoadCmd creates the catalog load command.
func newCatalogLoadCmd(flags *globalFlags) *cobra.Command {
	var (
		file  string
		batch int
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Import catalog documents from a JSON file",
		Long: `Import a JSON array of catalog documents into the configured store,
creating the search index first when it does not exist. Invalid documents
are reported and skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := readDocuments(file)
			if err != nil {
				return err
			}
			if batch <= 0 {
				batch = defaultImportBatch
			}
			return withApp(cmd.Context(), flags, func(ctx context.Context, a *app) error {
				if err := a.catalog.EnsureIndex(ctx); err != nil {
					return err
				}

				imported := 0
				rejected := make(map[string]error)
				for start := 0; start < len(docs); start += batch {
					end := min(start+batch, len(docs))
					res, err := a.catalog.Import(ctx, docs[start:end])
					if err != nil {
						return fmt.Errorf("import documents %d-%d: %w", start, end-1, err)
					}
					imported += res.Imported
					for id, rerr := range res.Rejected {
						rejected[batchKey(id, start)] = rerr
					}
				}

				ids := make([]string, 0, len(rejected))
				for id := range rejected {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					a.logger.Warn("Document rejected", zap.String("mod_id", id), zap.Error(rejected[id]))
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "rejected %s: %v\n", id, rejected[id])
				}

				_, err := fmt.Fprintf(cmd.OutOrStdout(), "imported %d, rejected %d\n", imported, len(rejected))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file with an array of catalog documents")
	cmd.Flags().IntVar(&batch, "batch", defaultImportBatch, "Documents per store write")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readDocuments(path string) ([]catalogrepo.Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var docs []catalogrepo.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	return docs, nil
}

// batchKey turns a positional rejection key ("#3") into a file-wide one.
func batchKey(id string, offset int) string {
	pos, ok := strings.CutPrefix(id, "#")
	if !ok {
		return id
	}
	n, err := strconv.Atoi(pos)
	if err != nil {
		return id
	}
	return "#" + strconv.Itoa(offset+n)
}
