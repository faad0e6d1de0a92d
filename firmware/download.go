package firmware

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dsnet/golib/unitconv"
	"github.com/jedib0t/go-pretty/v6/progress"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Downloader fetches stock firmware images by scraping the vendor's
// download page for a board's OTA link and streaming the image to disk.
type Downloader struct {
	Client *http.Client
	log    *zap.Logger
	// ShowProgress renders a terminal progress bar while downloading.
	ShowProgress bool
}

func NewDownloader(log *zap.Logger, showProgress bool) *Downloader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Downloader{Client: http.DefaultClient, log: log, ShowProgress: showProgress}
}

// Fetch downloads the firmware image for board at version into destDir and
// returns the path of the downloaded file.
func (d *Downloader) Fetch(ctx context.Context, board Board, version, destDir string) (string, error) {
	link, err := d.findLink(ctx, board, version)
	if err != nil {
		return "", err
	}
	d.log.Info("found firmware download link", zap.String("url", link))
	return d.download(ctx, link, destDir)
}

// findLink scrapes the board's download page for anchors whose href
// contains both the board's link marker and the requested version. Exactly
// one match is required; anything else means the page layout changed or the
// version does not exist.
func (d *Downloader) findLink(ctx context.Context, board Board, version string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, board.DownloadPage, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("unable to fetch download page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download page returned %s", resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("unable to parse download page: %w", err)
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if strings.Contains(attr.Val, board.LinkMarker) && strings.Contains(attr.Val, version) {
					links = append(links, attr.Val)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if len(links) != 1 {
		return "", fmt.Errorf("found %d download links for %s version %s, expected exactly 1", len(links), board.Name, version)
	}
	return links[0], nil
}

func (d *Downloader) download(ctx context.Context, link, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("unable to download firmware: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("firmware download returned %s", resp.Status)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}
	name := downloadFilename(resp, link)
	dest := filepath.Join(destDir, name)
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}

	d.log.Info("downloading firmware image",
		zap.String("file", name),
		zap.String("size", unitconv.FormatPrefix(float64(resp.ContentLength), unitconv.IEC, 1)+"B"),
	)

	var body io.Reader = resp.Body
	var finish func()
	if d.ShowProgress {
		body, finish = trackProgress(resp.Body, name, resp.ContentLength)
	}
	_, err = io.Copy(out, body)
	if finish != nil {
		finish()
	}
	if err != nil {
		out.Close()
		return "", fmt.Errorf("download of %s interrupted: %w", name, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dest, nil
}

// downloadFilename prefers the server-provided Content-Disposition name and
// falls back to the last URL path element.
func downloadFilename(resp *http.Response, link string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return filepath.Base(name)
			}
		}
	}
	if u, err := url.Parse(link); err == nil {
		return path.Base(u.Path)
	}
	return path.Base(link)
}

// trackProgress wraps r so reads advance a terminal progress tracker. The
// returned finish func stops the renderer.
func trackProgress(r io.Reader, message string, total int64) (io.Reader, func()) {
	pw := progress.NewWriter()
	pw.SetUpdateFrequency(100 * time.Millisecond)
	tracker := &progress.Tracker{Message: message, Total: total, Units: progress.UnitsBytes}
	pw.AppendTracker(tracker)
	go pw.Render()

	return &trackedReader{r: r, t: tracker}, func() {
		tracker.MarkAsDone()
		pw.Stop()
	}
}

type trackedReader struct {
	r io.Reader
	t *progress.Tracker
}

func (tr *trackedReader) Read(p []byte) (int, error) {
	n, err := tr.r.Read(p)
	tr.t.Increment(int64(n))
	return n, err
}
