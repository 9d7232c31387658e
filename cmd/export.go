package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/linesmerrill/police-investigations-api/databases"
	"github.com/linesmerrill/police-investigations-api/export"
)

var exportFlags struct {
	investigation string
	out           string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write one investigation as a .docx file",
	Long: `Renders the investigation named by --investigation into a Word document
in --out. The file is named after the investigation title and is also
archived when EXPORT_S3_BUCKET is set.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		path, err := exportInvestigation(cmd.Context(), a.Investigations, a.Archiver, exportFlags.investigation, exportFlags.out)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.investigation, "investigation", "", "id of the investigation to export (required)")
	exportCmd.Flags().StringVar(&exportFlags.out, "out", ".", "directory the document is written to")
	_ = exportCmd.MarkFlagRequired("investigation")
}

// exportInvestigation renders id into dir and returns the written path
func exportInvestigation(ctx context.Context, store databases.InvestigationDatabase, archiver export.Archiver, id, dir string) (string, error) {
	inv, err := store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return "", fmt.Errorf("investigation %q not found", id)
		}
		return "", fmt.Errorf("find investigation: %w", err)
	}

	body, filename, err := export.Export(*inv)
	if err != nil {
		return "", fmt.Errorf("export investigation: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if archiver != nil {
		if err := archiver.Archive(ctx, *inv, filename, body); err != nil {
			return path, err
		}
	}
	return path, nil
}
