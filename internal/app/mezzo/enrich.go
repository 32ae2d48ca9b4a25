package mezzo

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// downloadDescription fetches a programme's detail page and assembles its
// long-form description. Every failure degrades to an absent description.
func (g *Grabber) downloadDescription(ctx context.Context, url string) string {
	doc, err := g.fetcher.DetailPage(ctx, url)
	if err != nil {
		g.logger.Warn("Failed to fetch the detail page. The description is skipped.",
			zap.String("url", url), zap.Error(err))
		return ""
	}
	return detailDescription(doc)
}

// detailDescription builds the description block of a detail page: the
// authors joined with " | ", a blank separator line and the cleaned
// paragraph text with markup removed and empty lines dropped.
func detailDescription(doc *goquery.Document) string {
	content := doc.Find(".programme-mosaic__content.editorial").First()
	if content.Length() == 0 {
		return ""
	}

	var desc []string

	authors := content.Find(".list-authors").First()
	if authors.Length() > 0 {
		var line []string
		authors.Children().Each(func(_ int, li *goquery.Selection) {
			if s := normalizeSpace(li.Text()); s != "" {
				line = append(line, s)
			}
		})
		if len(line) > 0 {
			desc = append(desc, strings.Join(line, " | "))
		}
	}
	if len(desc) > 0 {
		desc = append(desc, "")
	}

	content.Find("p").Each(func(_ int, p *goquery.Selection) {
		raw, err := p.Html()
		if err != nil {
			return
		}
		raw = strings.ReplaceAll(raw, "<br/>", "<br>")
		for _, line := range strings.Split(raw, "<br>") {
			line = strings.ReplaceAll(line, "&nbsp;", " ")
			line = strings.ReplaceAll(line, "\u00a0", " ")
			if clean := stripMarkup(line); clean != "" {
				desc = append(desc, clean)
			}
		}
	})

	if len(desc) == 0 {
		return ""
	}
	return strings.Join(desc, "\r\n")
}

// stripMarkup drops every tag of an HTML fragment, keeping the text.
func stripMarkup(s string) string {
	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return normalizeSpace(s)
	}

	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(fullText(n))
		sb.WriteByte(' ')
	}
	return normalizeSpace(sb.String())
}
