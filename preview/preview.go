package preview

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

const fetchTimeout = 10 * time.Second

// LinkPreview carries the metadata scraped from a shared content url. It is
// used to prefill the post composer so the author doesn't need to retype the
// title of the article being shared.
type LinkPreview struct {
	Title       string
	Description string
	ImageUrl    string
}

type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: fetchTimeout}}
}

// Fetch downloads the page and extracts its title, description and preview
// image. Open Graph tags win over plain html tags when both are present.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*LinkPreview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "fail to build preview request")
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fail to fetch url for preview")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fail to fetch url for preview, status: %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "fail to parse html for preview")
	}

	preview := &LinkPreview{
		Title:       metaContent(doc, "og:title"),
		Description: metaContent(doc, "og:description"),
		ImageUrl:    metaContent(doc, "og:image"),
	}

	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if preview.Description == "" {
		preview.Description = nameMetaContent(doc, "description")
	}

	return preview, nil
}

func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find("meta[property='" + property + "']").First().Attr("content")
	return strings.TrimSpace(content)
}

func nameMetaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find("meta[name='" + name + "']").First().Attr("content")
	return strings.TrimSpace(content)
}
