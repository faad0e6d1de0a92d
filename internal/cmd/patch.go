package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nebulapad/otakit/firmware"
	"github.com/nebulapad/otakit/internal/config"
)

func newPatchCmd() *cobra.Command {
	var (
		boardName     string
		rootPassword  string
		sourceVersion string
		versionPrefix string
		assetsDir     string
		templatesDir  string
		keepWorking   bool
	)

	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Build a root-enabled firmware image from a stock release",
		Long: `Build a root-enabled firmware image from a stock release.

The stock image is downloaded into the firmware cache if it is not already
there, its root filesystem is reassembled, extracted and customized (root
password, helper assets, release info), and the result is repackaged into
the vendor OTA layout under a new version number.

Example: root stock version 1.1.0.30 with the default board:

$ otakit patch --source-version 1.1.0.30 --root-password creality
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := firmware.ValidateVersion(sourceVersion); err != nil {
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

			rootedVersion := firmware.RootedVersion(sourceVersion, versionPrefix)
			printBanner(cmd.OutOrStdout(), board.Name, sourceVersion, rootedVersion)

			pipeline := firmware.NewPipeline(firmware.Config{
				Board:         board,
				RootPassword:  rootPassword,
				SourceVersion: sourceVersion,
				VersionPrefix: versionPrefix,
				BaseDir:       config.BaseDir(),
				AssetsDir:     assetsDir,
				TemplatesDir:  templatesDir,
				KeepWorking:   keepWorking,
				ShowProgress:  config.ShowProgress(),
			}, log.Logger)

			image, err := pipeline.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved custom firmware to %s\n", text.Bold.Sprint(image))
			return nil
		},
	}

	cmd.Flags().StringVar(&boardName, "board-name", "nebula", "Board to build for (a key or name from the board catalog).")
	cmd.Flags().StringVar(&rootPassword, "root-password", "creality", "Password to set for the root user.")
	cmd.Flags().StringVar(&sourceVersion, "source-version", "1.1.0.30", "The stock firmware version to root.")
	cmd.Flags().StringVar(&versionPrefix, "version-prefix", "6", "Number replacing the first version component so devices never auto-update back to stock.")
	cmd.Flags().StringVar(&assetsDir, "assets", "assets", "Directory of files overlaid onto the root filesystem.")
	cmd.Flags().StringVar(&templatesDir, "templates", "templates", "Directory holding the ota_info template.")
	cmd.Flags().BoolVar(&keepWorking, "keep-working", false, "Keep the working tree after a successful run.")
	return cmd
}

func printBanner(out io.Writer, board, stock, rooted string) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w < width {
		width = w
	}
	fmt.Fprintln(out, text.AlignCenter.Apply(text.Bold.Sprint(board+" Firmware Root Tool"), width))
	fmt.Fprintf(out, "\nRooting stock version %s; the output image carries version %s\n\n",
		text.Bold.Sprint(stock), text.Bold.Sprint(rooted))
}
