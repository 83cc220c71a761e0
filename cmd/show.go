package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const explanationWidth = 80

func newShowCmd() *cobra.Command {
	var (
		path    string
		bundled bool
	)
	cmd := &cobra.Command{
		Use:   "show DATE|today",
		Short: "Print the extracted entry for one day",
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

			if _, ok := a.Data.Document(d); !ok {
				return fmt.Errorf("no page stored for %s", d)
			}
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: explanationWidth}})
			t.AppendRow(table.Row{"Date", d.String()})
			if link, ok := d.Link(); ok {
				t.AppendRow(table.Row{"Page", link})
			}
			if parseErr := a.Data.Error(d); parseErr != nil {
				t.AppendRow(table.Row{"Error", parseErr.Error()})
				t.Render()
				return nil
			}
			entry, _ := a.Data.Entry(d)
			t.AppendRow(table.Row{"Title", entry.Title})
			t.AppendRow(table.Row{"Explanation", entry.Explanation})
			if entry.Media.URL != "" {
				t.AppendRow(table.Row{"Media", entry.Media.URL})
			}
			if entry.Media.HDURL != "" {
				t.AppendRow(table.Row{"HD media", entry.Media.HDURL})
			}
			t.AppendRow(table.Row{"Kind", entry.Media.Kind().String()})
			if w := a.Data.Warnings(d); !w.Empty() {
				t.AppendRow(table.Row{"Warnings", strings.ReplaceAll(w.String(), ",", ", ")})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "archive", "", "document archive path (default archive.path)")
	cmd.Flags().BoolVar(&bundled, "bundled", false, "read the bundled archive")
	return cmd
}
