package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nebulapad/otakit/internal/config"
	"github.com/nebulapad/otakit/ota"
)

func newVerifyCmd() *cobra.Command {
	var chainFile string

	cmd := &cobra.Command{
		Use:   "verify <chunk-dir> <image-basename>",
		Short: "Verify a chunk set against its digest chain",
		Long: `Verify that every chunk of the named image matches the digest chain file.

The chain file is discovered in the chunk directory by its
ota_md5_<basename>.<digest> name unless --chain points at one explicitly.
Chunks are hashed in parallel; the number of workers follows --num-workers.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, base := args[0], args[1]
			path := chainFile
			if path == "" {
				var err error
				if path, err = discoverChain(dir, base); err != nil {
					return err
				}
			}
			chain, err := ota.ReadChain(path)
			if err != nil {
				return err
			}
			if err := ota.VerifyChunks(cmd.Context(), dir, base, chain, config.NumWorkers()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d chunks match %s\n", len(chain), filepath.Base(path))
			return nil
		},
	}

	cmd.Flags().StringVar(&chainFile, "chain", "", "Path to the digest chain file (default: discovered in the chunk directory).")
	return cmd
}

func discoverChain(dir, base string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var found []string
	prefix := "ota_md5_" + base + "."
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			found = append(found, entry.Name())
		}
	}
	if len(found) != 1 {
		return "", fmt.Errorf("found %d chain files for %q in %s, expected exactly 1 (use --chain)", len(found), base, dir)
	}
	return filepath.Join(dir, found[0]), nil
}
