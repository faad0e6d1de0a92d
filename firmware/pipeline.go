package firmware

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsnet/golib/unitconv"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/nebulapad/otakit/ota"
	"github.com/nebulapad/otakit/rootfs"
)

const (
	rootfsImage     = "rootfs.squashfs"
	rootfsType      = "rootfs"
	squashfsRootDir = "squashfs-root"
	manifestFile    = "ota_update.in"
	configFile      = "ota_config.in"
)

// Config holds the parameters of one pipeline run.
type Config struct {
	Board         Board
	RootPassword  string
	SourceVersion string
	// VersionPrefix replaces the first component of SourceVersion in the
	// rooted release's version.
	VersionPrefix string
	// BaseDir is where the working tree and the firmware cache live.
	BaseDir      string
	AssetsDir    string
	TemplatesDir string
	// KeepWorking leaves the working tree in place after a successful run.
	KeepWorking  bool
	ShowProgress bool
}

// Pipeline sequences the stock-to-rooted repackaging steps. All stages run
// strictly in order: every stage's output is the next stage's input, so
// there is no parallelism to exploit here.
type Pipeline struct {
	cfg        Config
	log        *zap.Logger
	squash     *SquashTools
	container  *Container
	downloader *Downloader
}

func NewPipeline(cfg Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		log:        log,
		squash:     NewSquashTools(log),
		container:  NewContainer(log),
		downloader: NewDownloader(log, cfg.ShowProgress),
	}
}

// Run executes the full pipeline and returns the path of the rooted
// firmware image. On failure the working tree is left in place for
// inspection; it is removed only after the final image exists on disk.
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	cfg := p.cfg
	if err := ValidateVersion(cfg.SourceVersion); err != nil {
		return "", err
	}
	rootedVersion := RootedVersion(cfg.SourceVersion, cfg.VersionPrefix)

	containerPassword, err := ContainerPassword(cfg.Board.Name)
	if err != nil {
		return "", fmt.Errorf("unable to derive container password: %w", err)
	}
	shadowHash, err := ShadowHash(cfg.RootPassword)
	if err != nil {
		return "", fmt.Errorf("unable to hash root password: %w", err)
	}

	if err := p.squash.Check(); err != nil {
		return "", err
	}
	if err := p.container.Check(); err != nil {
		return "", err
	}

	ws, err := NewWorkspace(cfg.BaseDir)
	if err != nil {
		return "", fmt.Errorf("unable to create workspace: %w", err)
	}
	p.log.Info("starting pipeline run",
		zap.String("board", cfg.Board.Name),
		zap.String("sourceVersion", cfg.SourceVersion),
		zap.String("rootedVersion", rootedVersion),
		zap.String("workspace", ws.Root),
	)

	stockBase := ImageBasename(cfg.Board.Name, cfg.SourceVersion)
	rootedBase := ImageBasename(cfg.Board.Name, rootedVersion)

	// Stage 1: make sure the stock image is cached locally.
	stockImage := filepath.Join(ws.FirmwareDir, stockBase+".img")
	if _, err := os.Stat(stockImage); err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		p.log.Info("stock firmware image not cached, downloading", zap.String("image", stockImage))
		downloaded, err := p.downloader.Fetch(ctx, cfg.Board, cfg.SourceVersion, ws.FirmwareDir)
		if err != nil {
			return "", err
		}
		if downloaded != stockImage {
			if err := os.Rename(downloaded, stockImage); err != nil {
				return "", err
			}
		}
	}

	// Stage 2: unpack the stock container and lay out the rooted release.
	if err := p.container.Extract(ctx, stockImage, ws.Root, containerPassword); err != nil {
		return "", err
	}
	stockFiles := ws.Path(stockBase, OTADirName(cfg.SourceVersion))
	rootedFiles := ws.Path(rootedBase, OTADirName(rootedVersion))
	if err := os.MkdirAll(rootedFiles, 0755); err != nil {
		return "", err
	}
	// The updater only checks that the ok marker exists; a single newline
	// is what the stock releases ship.
	okMarker := filepath.Join(rootedFiles, OTADirName(rootedVersion)+".ok")
	if err := os.WriteFile(okMarker, []byte("\n"), 0644); err != nil {
		return "", err
	}

	manifest, err := ota.ReadManifestFile(filepath.Join(stockFiles, manifestFile))
	if err != nil {
		return "", err
	}
	if manifest.Find(rootfsType) == nil {
		return "", fmt.Errorf("%w: stock manifest has no %q partition", ota.ErrFormat, rootfsType)
	}

	moved, err := MigrateStockFiles(stockFiles, rootedFiles, p.log)
	if err != nil {
		return "", err
	}
	p.log.Info("migrated unchanged stock files", zap.Int("files", moved))

	// Stage 3: rebuild the root filesystem tree.
	if err := ota.Assemble(stockFiles, filepath.Join(stockFiles, rootfsImage), ota.DeletePartsAfterAssemble(true)); err != nil {
		return "", fmt.Errorf("unable to assemble stock rootfs: %w", err)
	}
	if err := p.squash.Unpack(ctx, filepath.Join(stockFiles, rootfsImage), ws.Root); err != nil {
		return "", err
	}
	if err := os.Remove(filepath.Join(stockFiles, rootfsImage)); err != nil {
		return "", err
	}

	customizer := rootfs.NewCustomizer(afero.NewOsFs(), p.log)
	err = customizer.Customize(ws.Path(squashfsRootDir), cfg.AssetsDir, cfg.TemplatesDir, rootfs.Options{
		RootPasswordHash: shadowHash,
		BoardName:        cfg.Board.Name,
		Version:          rootedVersion,
	})
	if err != nil {
		return "", err
	}

	// Stage 4: reseal, split, and describe the new rootfs.
	if err := p.squash.Pack(ctx, squashfsRootDir, rootfsImage, ws.Root); err != nil {
		return "", err
	}
	if err := os.RemoveAll(ws.Path(squashfsRootDir)); err != nil {
		return "", err
	}

	newImage := ws.Path(rootfsImage)
	fi, err := os.Stat(newImage)
	if err != nil {
		return "", err
	}
	digest, err := ota.SumFile(newImage)
	if err != nil {
		return "", err
	}
	p.log.Info("built customized rootfs image",
		zap.String("size", unitconv.FormatPrefix(float64(fi.Size()), unitconv.IEC, 1)+"B"),
		zap.String("md5", digest.String()),
	)

	manifest.Version = rootedVersion
	if err := manifest.UpdateImage(rootfsType, fi.Size(), digest); err != nil {
		return "", err
	}

	chain, err := ota.Split(newImage, rootedFiles, ota.DeleteSourceAfterSplit(true))
	if err != nil {
		return "", fmt.Errorf("unable to split rootfs: %w", err)
	}
	p.log.Info("split rootfs into chunks", zap.Int("chunks", len(chain)))

	// Manifests are written last, after every chunk they reference exists,
	// so an aborted run never leaves a manifest pointing at a partial set.
	if err := manifest.WriteFile(filepath.Join(rootedFiles, manifestFile)); err != nil {
		return "", err
	}
	if err := ota.WriteConfigFile(ws.Path(rootedBase, configFile), rootedVersion); err != nil {
		return "", err
	}

	// Stage 5: seal the rooted container. ws.FirmwareDir is absolute, so
	// the archive path stays valid from inside the working directory.
	rootedImage := filepath.Join(ws.FirmwareDir, rootedBase+".img")
	if err := p.container.Create(ctx, rootedImage, rootedBase, ws.Root, containerPassword); err != nil {
		return "", err
	}

	if !cfg.KeepWorking {
		if err := ws.Remove(); err != nil {
			return "", fmt.Errorf("unable to remove workspace: %w", err)
		}
	}
	p.log.Info("pipeline complete", zap.String("image", rootedImage))
	return rootedImage, nil
}
