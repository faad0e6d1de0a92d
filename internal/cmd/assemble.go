package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nebulapad/otakit/ota"
)

func newAssembleCmd() *cobra.Command {
	var deleteParts bool

	cmd := &cobra.Command{
		Use:   "assemble <chunk-dir> <output-image>",
		Short: "Reassemble a chunked OTA layout into a single image",
		Long: `Reassemble the chunk set for the output image's basename back into one
file. Chunks are concatenated in sequence order; digests are not checked
(use 'otakit verify' for that).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ota.Assemble(args[0], args[1], ota.DeletePartsAfterAssemble(deleteParts)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assembled %s\n", args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteParts, "delete-parts", false, "Delete the chunk files after assembling.")
	return cmd
}
