package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/apodex/internal/archive"
	"github.com/JakeFAU/apodex/internal/report"
)

func newParseCmd() *cobra.Command {
	var (
		path     string
		htmlPath string
		bundled  bool
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract every page in the archive and report quality",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if path == "" {
				path = a.Config().Archive.Path
			}
			out := cmd.OutOrStdout()
			if err := loadDocuments(cmd.Context(), a, out, path, bundled); err != nil {
				return err
			}

			rep := report.Build(a.Data.Documents())
			rep.WriteTable(out, all)
			if htmlPath == "" {
				return nil
			}
			var buf bytes.Buffer
			if err := rep.WriteHTML(&buf); err != nil {
				return err
			}
			if err := archive.WriteFileAtomic(htmlPath, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s\n", htmlPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "archive", "", "document archive path (default archive.path)")
	cmd.Flags().StringVar(&htmlPath, "html", "", "also write an HTML report to this file")
	cmd.Flags().BoolVar(&bundled, "bundled", false, "report on the bundled archive")
	cmd.Flags().BoolVar(&all, "all", false, "list clean days too")
	return cmd
}
