package mezzo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher retrieves schedule and programme detail pages as parsed
// document trees.
type PageFetcher interface {
	// SchedulePage fetches the schedule listing for one day.
	SchedulePage(ctx context.Context, day time.Time) (*goquery.Document, error)
	// DetailPage fetches a single programme's detail page.
	DetailPage(ctx context.Context, url string) (*goquery.Document, error)
}

// SchedulePage fetches the schedule listing for the given day using the
// date=yyyy-MM-dd query parameter.
func (c *Client) SchedulePage(ctx context.Context, day time.Time) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.ScheduleURL, nil)
	if err != nil {
		return nil, err
	}

	params := req.URL.Query()
	params.Add("date", day.Format("2006-01-02"))
	req.URL.RawQuery = params.Encode()

	c.setCommonHeaders(req)

	return c.fetchDocument(req)
}

// DetailPage fetches a programme detail page by its absolute URL.
func (c *Client) DetailPage(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	c.setCommonHeaders(req)

	return c.fetchDocument(req)
}

func (c *Client) fetchDocument(req *http.Request) (*goquery.Document, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyFetchErr(req.URL.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	// Keep the final URL so relative detail links can be resolved.
	doc.Url = resp.Request.URL

	return doc, nil
}
