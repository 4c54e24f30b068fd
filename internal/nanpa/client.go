// Package nanpa discovers and downloads the CO code assignment archives
// published on the NANPA reports page.
package nanpa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"nanpa/internal"
	"nanpa/internal/config"
)

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
	log        *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.HTTPRateLimitRPS),
		log:        log,
	}
}

// ZipLinks scrapes the index page for links ending in .zip, resolved
// against the index URL, de-duplicated in page order.
func (c *Client) ZipLinks(ctx context.Context) ([]string, error) {
	if err := c.cfg.Require("NANPA_INDEX_URL", c.cfg.IndexURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(c.cfg.IndexURL)
	if err != nil {
		return nil, err
	}

	c.log.Info("scraping index for zip links", zap.String("url", c.cfg.IndexURL))
	resp, body, err := c.do(ctx, http.MethodGet, c.cfg.IndexURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("index page status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	links := []string{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		ref, err := url.Parse(href)
		if err != nil || !strings.HasSuffix(strings.ToLower(ref.Path), ".zip") {
			return
		}
		abs := base.ResolveReference(ref).String()
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	if len(links) == 0 {
		c.log.Warn("no .zip links found on the page; the page structure may have changed")
	} else {
		c.log.Info("found zip links", zap.Int("count", len(links)))
	}
	return links, nil
}

// Probe issues a HEAD request and reports the archive's Last-Modified and
// Content-Length headers.
func (c *Client) Probe(ctx context.Context, archiveURL string) (internal.RemoteArchive, error) {
	out := internal.RemoteArchive{URL: archiveURL}
	resp, _, err := c.do(ctx, http.MethodHead, archiveURL)
	if err != nil {
		return out, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, fmt.Errorf("head %s: status %d", archiveURL, resp.StatusCode)
	}
	out.LastModified = resp.Header.Get("Last-Modified")
	if n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); err == nil {
		out.Size = n
	} else if resp.ContentLength > 0 {
		out.Size = resp.ContentLength
	}
	return out, nil
}

// FetchLatest downloads every listed archive into zipDir, skipping ones
// whose local size already matches the remote size. Per-archive failures
// are logged and do not stop the others.
func (c *Client) FetchLatest(ctx context.Context, zipDir string) ([]string, error) {
	if err := os.MkdirAll(zipDir, 0o755); err != nil {
		return nil, err
	}
	links, err := c.ZipLinks(ctx)
	if err != nil {
		return nil, err
	}

	downloaded := []string{}
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return downloaded, err
		}
		dest := filepath.Join(zipDir, archiveName(link))

		var remoteSize int64
		if remote, err := c.Probe(ctx, link); err == nil {
			remoteSize = remote.Size
		}
		if info, err := os.Stat(dest); err == nil && remoteSize > 0 && info.Size() == remoteSize {
			c.log.Info("skipped (already latest)", zap.String("archive", filepath.Base(dest)))
			continue
		}

		c.log.Info("downloading", zap.String("url", link))
		if err := c.download(ctx, link, dest); err != nil {
			c.log.Warn("download failed", zap.String("url", link), zap.Error(err))
			continue
		}
		downloaded = append(downloaded, dest)
	}
	return downloaded, nil
}

func (c *Client) download(ctx context.Context, link, dest string) error {
	resp, body, err := c.do(ctx, http.MethodGet, link)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	tmp := dest + ".part"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}

// do performs one request with retry and backoff on transport errors and
// retryable statuses. Non-retryable responses are returned to the caller.
func (c *Client) do(ctx context.Context, method, target string) (*http.Response, []byte, error) {
	attempts := c.cfg.HTTPMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return nil, nil, err
		}
		req.Header.Set("User-Agent", c.cfg.HTTPUserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if !c.backoff(ctx, attempt, attempts) {
				break
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if !c.backoff(ctx, attempt, attempts) {
				break
			}
			continue
		}

		if isRetryableStatus(resp.StatusCode) && attempt < attempts {
			lastErr = fmt.Errorf("nanpa status %d", resp.StatusCode)
			if !c.backoff(ctx, attempt, attempts) {
				break
			}
			continue
		}
		return resp, body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("nanpa request failed")
	}
	return nil, nil, fmt.Errorf("%s %s: %w", method, target, lastErr)
}

// backoff sleeps before the next attempt; false means stop retrying.
func (c *Client) backoff(ctx context.Context, attempt, attempts int) bool {
	if attempt >= attempts {
		return false
	}
	d := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func archiveName(link string) string {
	if u, err := url.Parse(link); err == nil {
		if name := path.Base(u.Path); name != "" && name != "/" && name != "." {
			return name
		}
	}
	return path.Base(link)
}
