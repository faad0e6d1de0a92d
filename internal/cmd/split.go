package cmd

import (
	"fmt"

	"github.com/dsnet/golib/unitconv"
	"github.com/spf13/cobra"

	"github.com/nebulapad/otakit/ota"
)

func newSplitCmd() *cobra.Command {
	var (
		chunkSize    string
		deleteSource bool
	)

	cmd := &cobra.Command{
		Use:   "split <image> <output-dir>",
		Short: "Split a filesystem image into the chunked OTA layout",
		Long: `Split a filesystem image into fixed-size chunks plus a digest chain file.

Chunk filenames carry the digest of the preceding chunk (the whole-image
digest for chunk 0000); the chain file lists each chunk's own digest in
order. Both follow the device updater's verification protocol exactly.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := unitconv.ParsePrefix(chunkSize, unitconv.AutoParse)
			if err != nil {
				return fmt.Errorf("invalid chunk size %q: %w", chunkSize, err)
			}

			chain, err := ota.Split(args[0], args[1],
				ota.WithChunkSize(int64(size)),
				ota.DeleteSourceAfterSplit(deleteSource),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d chunks to %s\n", len(chain), args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&chunkSize, "chunk-size", "1Mi", "Chunk size (IEC or SI prefix, e.g. '1Mi'). The device updater expects 1 MiB.")
	cmd.Flags().BoolVar(&deleteSource, "delete-source", false, "Delete the source image after splitting.")
	return cmd
}
