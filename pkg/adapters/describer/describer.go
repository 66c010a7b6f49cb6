// Package describer finds a short description for links saved without one.
package describer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linkshala/linkshala-api/pkg/core/domain"
	"github.com/linkshala/linkshala-api/pkg/ports"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

const (
	// Only the head of a page is needed.
	maxBodyBytes   = 512 << 10
	maxDescription = 300
	userAgent      = "LinkShalaBot/1.0 (+https://linkshala.dev)"
)

// metaKeys are tried in order; the first non-empty content wins.
var metaKeys = []string{"description", "og:description", "twitter:description"}

// PageDescriber reads the description meta tags of the linked page and
// falls back to a sentence built from the link's title and category.
type PageDescriber struct {
	client *http.Client
}

func NewPageDescriber(timeout time.Duration) *PageDescriber {
	return &PageDescriber{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

func (d *PageDescriber) Describe(ctx context.Context, link *domain.Link) (string, error) {
	desc, err := d.fetch(ctx, link.URL)
	if err != nil {
		log.Debug().Err(err).Str("id", link.ID).Str("url", link.URL).Msg("Page description unavailable, using fallback")
	}
	if desc == "" {
		desc = Fallback(link)
	}
	return desc, nil
}

func (d *PageDescriber) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", fmt.Errorf("unexpected content type %q", ct)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return Extract(doc), nil
}

// Extract returns the best meta description in doc, or "".
func Extract(doc *html.Node) string {
	found := make(map[string]string, len(metaKeys))
	collectMeta(doc, found)

	for _, key := range metaKeys {
		if v := clean(found[key]); v != "" {
			return v
		}
	}
	return ""
}

func collectMeta(n *html.Node, found map[string]string) {
	if n.Type == html.ElementNode && n.Data == "meta" {
		var key, content string
		for _, a := range n.Attr {
			switch strings.ToLower(a.Key) {
			case "name", "property":
				key = strings.ToLower(strings.TrimSpace(a.Val))
			case "content":
				content = a.Val
			}
		}
		if _, seen := found[key]; key != "" && !seen {
			found[key] = content
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectMeta(c, found)
	}
}

func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxDescription {
		s = strings.TrimSpace(string(r[:maxDescription-3])) + "..."
	}
	return s
}

// Fallback is the static description used when the page offers none.
func Fallback(link *domain.Link) string {
	category := link.Category
	if category == "" {
		category = domain.DefaultCategorySlug
	}
	return fmt.Sprintf("%s: a curated resource in the %s collection.", link.Title, strings.ReplaceAll(category, "-", " "))
}

var _ ports.Describer = (*PageDescriber)(nil)
