package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nebulapad/otakit/internal/cmdfmt"
	"github.com/nebulapad/otakit/ota"
)

func newManifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect OTA manifest files",
	}
	cmd.AddCommand(newManifestShowCmd())
	return cmd
}

func newManifestShowCmd() *cobra.Command {
	var (
		asJSON bool
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "show <ota_update.in>",
		Short: "Parse and print an ota_update.in manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ota.ReadManifestFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !asJSON && !pretty {
				fmt.Fprintf(out, "ota_version: %s\n", m.Version)
			}
			p := cmdfmt.NewPrinter(out, []string{"type", "name", "size", "md5"}, asJSON || pretty, pretty)
			for _, e := range m.Entries {
				p.AppendRow(e.Type, e.Name, e.Size, e.MD5)
			}
			return p.Render()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the partition records as JSON.")
	cmd.Flags().BoolVar(&pretty, "json-pretty", false, "Print the partition records as indented JSON.")
	cmd.MarkFlagsMutuallyExclusive("json", "json-pretty")
	return cmd
}
