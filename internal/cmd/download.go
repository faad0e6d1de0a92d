package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nebulapad/otakit/firmware"
	"github.com/nebulapad/otakit/internal/config"
)

func newDownloadCmd() *cobra.Command {
	var (
		boardName string
		version   string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a stock firmware image into the firmware cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := firmware.ValidateVersion(version); err != nil {
				return err
			}
			log, err := config.GetLogger()
			if err != nil {
				return err
			}
			catalog, err := firmware.LoadCatalog(config.BoardFile())
			if err != nil {
				return err
			}
			board, err := catalog.Board(boardName)
			if err != nil {
				return err
			}

			d := firmware.NewDownloader(log.Logger, config.ShowProgress())
			dest := filepath.Join(config.BaseDir(), "firmware")
			path, err := d.Fetch(cmd.Context(), board, version, dest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&boardName, "board-name", "nebula", "Board to download firmware for.")
	cmd.Flags().StringVar(&version, "version", "", "The firmware version to download.")
	cmd.MarkFlagRequired("version")
	return cmd
}
