package mezzo

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Entry is one "programme starts at T" observation recovered from a single
// schedule list item. The day and channel id are assigned by the compiler.
type Entry struct {
	Start     time.Time // clock time only, the date part carries no meaning
	Title     string
	Desc      string // empty when the item has no inline description
	DetailURL string // absolute detail page URL, may be empty
}

// timeLayout matches the H:mm stamps of the schedule page.
const timeLayout = "15:04"

// extractEntry recovers a schedule entry from one list item subtree.
// Items without a parseable time or a title yield no entry.
func extractEntry(li *html.Node, base *url.URL) (Entry, bool) {
	start, ok := findTime(li)
	if !ok {
		return Entry{}, false
	}
	title, ok := findTitle(li)
	if !ok {
		return Entry{}, false
	}

	entry := Entry{Start: start, Title: title}
	if desc, ok := findIntermezzo(li); ok {
		entry.Desc = desc
	}
	entry.DetailURL = findDetailURL(li, base)
	return entry, true
}

// findTime locates the first span descendant whose trimmed text parses as a
// clock time. A span holding anything else is skipped without descending
// into it, and the search continues.
func findTime(root *html.Node) (time.Time, bool) {
	stack := make([]*html.Node, 0, 8)
	pushElementChildren(&stack, root)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Data == "span" {
			if t, err := time.Parse(timeLayout, strings.TrimSpace(fullText(n))); err == nil {
				return t, true
			}
			continue
		}
		pushElementChildren(&stack, n)
	}
	return time.Time{}, false
}

// findTitle locates the first descendant carrying the title class marker.
// The node's directly-owned text is preferred; the full subtree text is the
// fallback. An empty candidate keeps the search going.
func findTitle(root *html.Node) (string, bool) {
	stack := make([]*html.Node, 0, 8)
	pushElementChildren(&stack, root)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if className(n) == "title--3" {
			title := ownText(n)
			if title == "" {
				title = fullText(n)
			}
			if title != "" {
				return title, true
			}
		}
		pushElementChildren(&stack, n)
	}
	return "", false
}

// findIntermezzo locates the first descendant list marked list-intermezzo
// and joins the full text of its items with " | ". Later lists are ignored.
func findIntermezzo(root *html.Node) (string, bool) {
	stack := make([]*html.Node, 0, 8)
	pushElementChildren(&stack, root)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if className(n) == "list-intermezzo" {
			var lines []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode {
					continue
				}
				if line := fullText(c); line != "" {
					lines = append(lines, line)
				}
			}
			if len(lines) > 0 {
				return strings.Join(lines, " | "), true
			}
			continue
		}
		pushElementChildren(&stack, n)
	}
	return "", false
}

// findDetailURL returns the absolute URL of the first hyperlink-bearing
// descendant, or an empty string when there is none or it cannot be
// resolved against the page URL.
func findDetailURL(root *html.Node, base *url.URL) string {
	stack := make([]*html.Node, 0, 8)
	pushElementChildren(&stack, root)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Data == "a" {
			href := attrVal(n, "href")
			if href == "" {
				pushElementChildren(&stack, n)
				continue
			}
			ref, err := url.Parse(href)
			if err != nil {
				return ""
			}
			if base != nil {
				ref = base.ResolveReference(ref)
			}
			if !ref.IsAbs() {
				return ""
			}
			return ref.String()
		}
		pushElementChildren(&stack, n)
	}
	return ""
}

// pushElementChildren pushes the element children of n in reverse document
// order so popping the stack yields a pre-order walk.
func pushElementChildren(stack *[]*html.Node, n *html.Node) {
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			*stack = append(*stack, c)
		}
	}
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func className(n *html.Node) string {
	return strings.TrimSpace(attrVal(n, "class"))
}

// ownText returns the whitespace-normalized text of the direct text-node
// children of n, excluding descendant text.
func ownText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			sb.WriteByte(' ')
		}
	}
	return normalizeSpace(sb.String())
}

// fullText returns the whitespace-normalized text of the whole subtree.
func fullText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return normalizeSpace(sb.String())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
