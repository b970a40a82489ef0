// Package metadata looks books up in a remote volumes catalog by ISBN.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/safar/go-bookshop/internal/apperr"
	"github.com/safar/go-bookshop/internal/config"
	"github.com/sirupsen/logrus"
)

// Volume is the descriptive data the catalog returns for a book. Any
// field may be empty.
type Volume struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail"`
}

// AuthorLine joins the authors for display.
func (v Volume) AuthorLine() string {
	return strings.Join(v.Authors, ", ")
}

// CoverURL is the thumbnail upgraded to https.
func (v Volume) CoverURL() string {
	if strings.HasPrefix(v.Thumbnail, "http://") {
		return "https://" + strings.TrimPrefix(v.Thumbnail, "http://")
	}
	return v.Thumbnail
}

type volumesResponse struct {
	Items []struct {
		VolumeInfo *struct {
			Title       string   `json:"title"`
			Authors     []string `json:"authors"`
			Description string   `json:"description"`
			ImageLinks  *struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

var errNoMatch = errors.New("no matching volume")

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

func NewClient(cfg config.MetadataConfig, logger logrus.FieldLogger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.WithField("component", "metadata"),
	}
}

// Lookup returns the first volume matching isbn. Every failure, including
// no match, collapses to (nil, false); it is logged and never returned.
func (c *Client) Lookup(ctx context.Context, isbn string) (*Volume, bool) {
	volume, err := c.Fetch(ctx, isbn)
	if err != nil {
		c.log.WithError(err).WithField("isbn", isbn).Debug("metadata lookup returned no data")
		return nil, false
	}
	return volume, true
}

// Fetch is Lookup with the failure reason kept. Errors are of kind
// ExternalUnavailable, or NotFound when the catalog has no match.
func (c *Client) Fetch(ctx context.Context, isbn string) (*Volume, error) {
	const op = "metadata.fetch"

	endpoint := c.baseURL + "/volumes?" + url.Values{"q": {"isbn:" + isbn}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.E(op, apperr.KindExternalUnavailable, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.E(op, apperr.KindExternalUnavailable, fmt.Errorf("request volumes: %w", err))
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"isbn":   isbn,
		"status": resp.StatusCode,
		"took":   time.Since(start),
	}).Debug("metadata lookup")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, apperr.E(op, apperr.KindExternalUnavailable, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperr.E(op, apperr.KindExternalUnavailable, fmt.Errorf("decode volumes: %w", err))
	}

	if len(body.Items) == 0 || body.Items[0].VolumeInfo == nil {
		return nil, apperr.E(op, apperr.KindNotFound, errNoMatch)
	}

	info := body.Items[0].VolumeInfo
	volume := &Volume{
		Title:       info.Title,
		Authors:     info.Authors,
		Description: info.Description,
	}
	if info.ImageLinks != nil {
		volume.Thumbnail = info.ImageLinks.Thumbnail
	}

	return volume, nil
}
