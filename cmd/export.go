package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JakeFAU/apodex/internal/archive"
)

func newExportCmd() *cobra.Command {
	var (
		path      string
		level     int
		dir       string
		gcsBucket string
		bundled   bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Compress both archives at a high level and upload them",
		Long: `Compresses the document and entry archives and writes them to the export
target: a GCS bucket when one is configured, else a local directory.`,
		Args: cobra.NoArgs,
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

			exp := a.Config().Export
			if dir != "" {
				exp.Dir = dir
				exp.GCSBucket = ""
			}
			if gcsBucket != "" {
				exp.GCSBucket = gcsBucket
			}
			store, closeStore, err := a.ExportTarget(cmd.Context(), exp)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			a.Data.Export(store, level)
			return waitSave(a, out)
		},
	}
	cmd.Flags().StringVar(&path, "archive", "", "document archive path (default archive.path)")
	cmd.Flags().IntVar(&level, "level", archive.LevelMax, "compression level 1..22")
	cmd.Flags().StringVar(&dir, "dir", "", "export directory (default export.dir)")
	cmd.Flags().StringVar(&gcsBucket, "gcs-bucket", "", "export bucket (default export.gcs_bucket)")
	cmd.Flags().BoolVar(&bundled, "bundled", false, "export the bundled archive")
	cmd.MarkFlagsMutuallyExclusive("dir", "gcs-bucket")
	return cmd
}
