package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/apodex/internal/archive"
)

func newMediaCmd() *cobra.Command {
	var (
		path    string
		outPath string
		bundled bool
	)
	cmd := &cobra.Command{
		Use:   "media DATE|today",
		Short: "Fetch the media of one day into the media cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDay(args[0])
			if err != nil {
				return err
			}
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

			entry, ok := a.Data.Entry(d)
			if !ok {
				return fmt.Errorf("no entry for %s", d)
			}
			a.Media.Request(entry)
			notices, err := wait(cmd.Context(), a, out)
			if err != nil {
				return err
			}
			if err := firstError(notices); err != nil {
				return err
			}
			blob, ok := a.Media.Handle(d)
			if !ok {
				return fmt.Errorf("no media for %s", d)
			}
			fmt.Fprintf(out, "%s: %s, %d bytes\n", d, blob.Kind, len(blob.Data))
			if outPath != "" {
				if err := archive.WriteFileAtomic(outPath, blob.Data); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %s\n", outPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "archive", "", "document archive path (default archive.path)")
	cmd.Flags().StringVar(&outPath, "out", "", "also write the payload to this file")
	cmd.Flags().BoolVar(&bundled, "bundled", false, "look the entry up in the bundled archive")
	return cmd
}
