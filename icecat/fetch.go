package icecat

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"icecat-sync/config"
	"icecat-sync/models"
	"icecat-sync/storage"
	"icecat-sync/utils"
)

// Precondition failures of the fetcher. Callers treat both as explicit
// results, not as errors to unwind a batch.
var (
	ErrAlreadyCached = errors.New("detail document already cached")
	ErrMissingPath   = errors.New("metadata record has no path")
)

// Fetcher downloads per-item detail documents and product images from the
// catalog host. Documents are transcoded to UTF-8 before they hit the cache:
// the feed embeds byte sequences that are invalid in its declared encoding,
// and those are coerced, never rejected.
type Fetcher struct {
	cfg    *config.Config
	logger *utils.Logger
	cache  *storage.DocumentCache
	client *http.Client
	retry  *utils.RetryConfig
}

// NewFetcher creates a Fetcher with a bounded-timeout HTTP client.
func NewFetcher(cfg *config.Config, logger *utils.Logger, cache *storage.DocumentCache) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		logger: logger,
		cache:  cache,
		client: &http.Client{Timeout: cfg.HTTPTimeout()},
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
			Logger:      logger,
		},
	}
}

// FetchDetail downloads the record's detail document into the cache.
// With overwrite false an existing cache entry fails fast with
// ErrAlreadyCached and no network call is made.
func (f *Fetcher) FetchDetail(rec *models.MetadataRecord, overwrite bool) error {
	if f.cache.Exists(rec.CatalogItemID) && !overwrite {
		f.logger.Debug("[fetch] XML Metadatum %s exists (no overwrite)", rec.ProdID)
		return ErrAlreadyCached
	}

	if rec.Path == "" {
		f.logger.Error("[fetch] Path missing for %s", rec.ProdID)
		return ErrMissingPath
	}

	url := strings.TrimRight(f.cfg.IcecatBaseURL, "/") + "/" + strings.TrimLeft(rec.Path, "/")

	var body []byte
	err := f.retry.Do("fetch-detail-"+rec.CatalogItemID, func() error {
		var err error
		body, err = f.get(url)
		return err
	})
	if err != nil {
		f.logger.Error("[fetch] Download error: %s: %v", url, err)
		return err
	}

	return f.cache.Write(rec.CatalogItemID, CoerceUTF8(body))
}

// FetchBatch downloads the detail documents of all given records through
// the worker pool and folds the per-record results into outcomes. Already
// cached documents are outcomes too, marked skipped.
func (f *Fetcher) FetchBatch(records []*models.MetadataRecord, overwrite bool) []models.Outcome {
	pool := utils.NewWorkerPool(f.cfg.MaxConcurrency, f.cfg.RateLimitMs)
	outcomes := make([]models.Outcome, len(records))

	for i, rec := range records {
		i, rec := i, rec
		pool.Submit(func() {
			outcome := models.Outcome{Stage: "fetch", Key: rec.CatalogItemID}
			switch err := f.FetchDetail(rec, overwrite); {
			case errors.Is(err, ErrAlreadyCached):
				outcome.Skipped = true
			case err != nil:
				outcome.Err = err
			}
			outcomes[i] = outcome
		})
	}
	pool.Wait()

	return outcomes
}

// FetchImage downloads the image at the given absolute URL and pairs the
// bytes with the file name taken from the last path segment.
func (f *Fetcher) FetchImage(url string) (*models.ImageFile, error) {
	data, err := f.get(url)
	if err != nil {
		return nil, err
	}

	segments := strings.Split(strings.TrimRight(url, "/"), "/")
	name := segments[len(segments)-1]

	return &models.ImageFile{Name: name, Data: data}, nil
}

func (f *Fetcher) get(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.cfg.IcecatUser != "" {
		req.SetBasicAuth(f.cfg.IcecatUser, f.cfg.IcecatPassword)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

var encodingDecl = regexp.MustCompile(`encoding="[^"]+"`)

// CoerceUTF8 makes document bytes valid UTF-8. Invalid sequences are decoded
// as Latin-1, which cannot fail, instead of erroring out the download. The
// XML prolog's encoding declaration is rewritten so it matches the bytes
// actually stored.
func CoerceUTF8(b []byte) []byte {
	if !utf8.Valid(b) {
		if out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), b); err == nil {
			b = out
		}
	}

	end := len(b)
	if end > 200 {
		end = 200
	}
	i := strings.Index(string(b[:end]), "?>")
	if i <= 0 {
		return b
	}

	head := encodingDecl.ReplaceAll(append([]byte(nil), b[:i]...), []byte(`encoding="UTF-8"`))
	out := make([]byte, 0, len(head)+len(b)-i)
	out = append(out, head...)
	out = append(out, b[i:]...)
	return out
}
