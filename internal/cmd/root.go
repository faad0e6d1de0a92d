// Package cmd wires up the otakit command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nebulapad/otakit/internal/config"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otakit",
		Short: "Repackage embedded device OTA firmware images",
		Long: `otakit repackages an embedded device's firmware between its monolithic
root filesystem image and the vendor's chunked OTA on-disk layout, and can
build a complete root-enabled firmware image from a stock release.`,
		SilenceUsage: true,
	}
	config.InitGlobalFlags(cmd)

	cmd.AddCommand(newPatchCmd())
	cmd.AddCommand(newSplitCmd())
	cmd.AddCommand(newAssembleCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newManifestCmd())
	cmd.AddCommand(newDownloadCmd())
	return cmd
}
