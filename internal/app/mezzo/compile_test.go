package mezzo

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sonnayasomnambula/mezzoparser/internal/app/config"

	"github.com/PuerkitoBio/goquery"
)

// fakeFetcher feeds canned HTML pages through the pipeline.
type fakeFetcher struct {
	pages       map[string]string // yyyy-MM-dd -> schedule page HTML
	details     map[string]string // url -> detail page HTML
	detailErr   error             // forced error for every detail fetch
	detailCalls []string
}

func (f *fakeFetcher) SchedulePage(_ context.Context, day time.Time) (*goquery.Document, error) {
	page, ok := f.pages[day.Format("2006-01-02")]
	if !ok {
		return nil, &StatusError{URL: "https://example.com/en/tv-schedule", StatusCode: http.StatusNotFound}
	}
	return parsePage(page)
}

func (f *fakeFetcher) DetailPage(_ context.Context, u string) (*goquery.Document, error) {
	f.detailCalls = append(f.detailCalls, u)
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	page, ok := f.details[u]
	if !ok {
		return nil, &StatusError{URL: u, StatusCode: http.StatusNotFound}
	}
	return parsePage(page)
}

func parsePage(page string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, err
	}
	doc.Url = &url.URL{Scheme: "https", Host: "example.com", Path: "/en/tv-schedule"}
	return doc, nil
}

// fakeNotifier records every signal of a run.
type fakeNotifier struct {
	started  int
	progress []float64
	document string
	err      error
	finished int
}

func (n *fakeNotifier) Started() { n.started++ }

func (n *fakeNotifier) Progress(_ time.Time, _ time.Time, fraction float64) {
	n.progress = append(n.progress, fraction)
}

func (n *fakeNotifier) Finished(document string, err error) {
	n.finished++
	n.document = document
	n.err = err
}

func testConfig(t *testing.T, days int, enrich bool) *config.Config {
	t.Helper()
	conf := &config.Config{
		ScheduleURL:         "https://example.com/en/tv-schedule",
		Days:                days,
		DownloadDescription: enrich,
	}
	if err := conf.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
	return conf
}

// tvDoc mirrors the emitted document for round-trip checks.
type tvDoc struct {
	XMLName           xml.Name `xml:"tv"`
	GeneratorInfoName string   `xml:"generator-info-name,attr"`
	Channels          []struct {
		ID          string `xml:"id,attr"`
		DisplayName string `xml:"display-name"`
	} `xml:"channel"`
	Programmes []tvProgramme `xml:"programme"`
}

type tvProgramme struct {
	Start   string  `xml:"start,attr"`
	Stop    string  `xml:"stop,attr"`
	Channel string  `xml:"channel,attr"`
	Title   string  `xml:"title"`
	Desc    *string `xml:"desc"`
}

func parseGuide(t *testing.T, document string) *tvDoc {
	t.Helper()
	var tv tvDoc
	if err := xml.Unmarshal([]byte(document), &tv); err != nil {
		t.Fatalf("the emitted document is not valid XML: %v", err)
	}
	return &tv
}

var testFrom = time.Date(2026, 3, 2, 0, 0, 0, 0, time.FixedZone("UTC+0300", 3*3600))

func grabGuide(t *testing.T, fetcher *fakeFetcher, conf *config.Config, n Notifier) string {
	t.Helper()
	if n == nil {
		n = NopNotifier{}
	}
	document, err := NewGrabber(fetcher, conf).Grab(context.Background(), testFrom, n)
	if err != nil {
		t.Fatalf("grab: %v", err)
	}
	return document
}

const twoEntryPage = `<html><body>
<ul class="list-programme">
  <li><span>9:00</span><div class="title--3">A</div></li>
  <li><span>10:30</span><div class="title--3">B</div></li>
</ul>
</body></html>`

func TestGrabClosesIntervals(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"2026-03-02": twoEntryPage}}
	tv := parseGuide(t, grabGuide(t, fetcher, testConfig(t, 1, false), nil))

	if len(tv.Programmes) != 2 {
		t.Fatalf("expected 2 programmes, got %d", len(tv.Programmes))
	}

	a := tv.Programmes[0]
	if a.Title != "A" || a.Start != "20260302090000 +0300" || a.Stop != "20260302103000 +0300" {
		t.Errorf("programme A: %+v", a)
	}
	b := tv.Programmes[1]
	if b.Title != "B" || b.Start != "20260302103000 +0300" || b.Stop != "20260302235900 +0300" {
		t.Errorf("programme B: %+v", b)
	}
	for _, p := range tv.Programmes {
		if p.Channel != ChannelMezzoHD {
			t.Errorf("expected channel %s, got %s", ChannelMezzoHD, p.Channel)
		}
	}
}

func TestGrabChannelPreamble(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"2026-03-02": twoEntryPage}}
	tv := parseGuide(t, grabGuide(t, fetcher, testConfig(t, 1, false), nil))

	if len(tv.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(tv.Channels))
	}
	if tv.Channels[0].ID != ChannelMezzo || tv.Channels[0].DisplayName != "Mezzo" {
		t.Errorf("first channel: %+v", tv.Channels[0])
	}
	if tv.Channels[1].ID != ChannelMezzoHD || tv.Channels[1].DisplayName != "Mezzo Live HD" {
		t.Errorf("second channel: %+v", tv.Channels[1])
	}
	if tv.GeneratorInfoName == "" {
		t.Error("expected a generator-info-name attribute")
	}
}

func TestGrabSkipsItemWithoutTitle(t *testing.T) {
	page := `<html><body>
<ul class="list-programme">
  <li><span>9:00</span><div class="title--3">A</div></li>
  <li><span>9:45</span></li>
  <li><span>10:30</span><div class="title--3">B</div></li>
</ul>
</body></html>`
	fetcher := &fakeFetcher{pages: map[string]string{"2026-03-02": page}}
	tv := parseGuide(t, grabGuide(t, fetcher, testConfig(t, 1, false), nil))

	if len(tv.Programmes) != 2 {
		t.Fatalf("expected 2 programmes, got %d", len(tv.Programmes))
	}
	// The 9:45 item must not close A early.
	if tv.Programmes[0].Stop != "20260302103000 +0300" {
		t.Errorf("programme A stop: %s", tv.Programmes[0].Stop)
	}
}

func TestGrabAssignsSectionChannels(t *testing.T) {
	page := `<html><body>
<ul class="list-programme">
  <li><span>9:00</span><div class="title--3">HD Morning</div></li>
</ul>
<ul class="list-programme">
  <li><span>12:00</span><div class="title--3">SD Noon</div></li>
</ul>
<ul class="list-programme">
  <li><span>15:00</span><div class="title--3">Extra</div></li>
</ul>
</body></html>`
	fetcher := &fakeFetcher{pages: map[string]string{"2026-03-02": page}}
	tv := parseGuide(t, grabGuide(t, fetcher, testConfig(t, 1, false), nil))

	if len(tv.Programmes) != 3 {
		t.Fatalf("expected 3 programmes, got %d", len(tv.Programmes))
	}
	want := map[string]string{
		"HD Morning": ChannelMezzoHD,
		"SD Noon":    ChannelMezzo,
		"Extra":      "0",
	}
	for _, p := range tv.Programmes {
		if p.Channel != want[p.Title] {
			t.Errorf("programme %q: expected channel %q, got %q", p.Title, want[p.Title], p.Channel)
		}
	}
}

func TestGrabSkipsFailedDay(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"2026-03-03": twoEntryPage}}
	tv := parseGuide(t, grabGuide(t, fetcher, testConfig(t, 2, false), nil))

	if len(tv.Programmes) != 2 {
		t.Fatalf("expected 2 programmes from the second day, got %d", len(tv.Programmes))
	}
	if tv.Programmes[0].Start != "20260303090000 +0300" {
		t.Errorf("programme start: %s", tv.Programmes[0].Start)
	}
}

func TestGrabInlineDescription(t *testing.T) {
	page := `<html><body>
<ul class="list-programme">
  <li>
    <span>9:00</span><div class="title--3">A</div>
    <a href="/en/programme/1">more</a>
    <ul class="list-intermezzo"><li>Bach</li><li>Cantatas</li></ul>
  </li>
</ul>
</body></html>`
	fetcher := &fakeFetcher{pages: map[string]string{"2026-03-02": page}}
	tv := parseGuide(t, grabGuide(t, fetcher, testConfig(t, 1, true), nil))

	if len(tv.Programmes) != 1 {
		t.Fatalf("expected 1 programme, got %d", len(tv.Programmes))
	}
	if tv.Programmes[0].Desc == nil || *tv.Programmes[0].Desc != "Bach | Cantatas" {
		t.Errorf("unexpected desc: %v", tv.Programmes[0].Desc)
	}
	// The inline description makes the detail fetch unnecessary.
	if len(fetcher.detailCalls) != 0 {
		t.Errorf("expected no detail fetches, got %v", fetcher.detailCalls)
	}
}

const linkedEntryPage = `<html><body>
<ul class="list-programme">
  <li><span>9:00</span><div class="title--3">A</div><a href="/en/programme/1">more</a></li>
</ul>
</body></html>`

func TestGrabEnrichmentDisabled(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"2026-03-02": linkedEntryPage}}
	tv := parseGuide(t, grabGuide(t, fetcher, testConfig(t, 1, false), nil))

	if len(fetcher.detailCalls) != 0 {
		t.Errorf("expected no detail fetches, got %v", fetcher.detailCalls)
	}
	if tv.Programmes[0].Desc != nil {
		t.Errorf("expected the desc element to be omitted, got %q", *tv.Programmes[0].Desc)
	}
}

func TestGrabEnrichment(t *testing.T) {
	detail := `<html><body>
<div class="programme-mosaic__content editorial">
  <ul class="list-authors"><li>Herbert von Karajan</li><li>Berliner Philharmoniker</li></ul>
  <p>First&nbsp;paragraph.<br>Second line.</p>
</div>
</body></html>`
	fetcher := &fakeFetcher{
		pages:   map[string]string{"2026-03-02": linkedEntryPage},
		details: map[string]string{"https://example.com/en/programme/1": detail},
	}
	tv := parseGuide(t, grabGuide(t, fetcher, testConfig(t, 1, true), nil))

	if len(fetcher.detailCalls) != 1 {
		t.Fatalf("expected 1 detail fetch, got %v", fetcher.detailCalls)
	}
	want := "Herbert von Karajan | Berliner Philharmoniker\r\n\r\nFirst paragraph.\r\nSecond line."
	if tv.Programmes[0].Desc == nil || *tv.Programmes[0].Desc != want {
		t.Errorf("unexpected desc: %v", tv.Programmes[0].Desc)
	}
}

func TestGrabEnrichmentHTTPErrorDegrades(t *testing.T) {
	fetcher := &fakeFetcher{
		pages:     map[string]string{"2026-03-02": linkedEntryPage},
		detailErr: &StatusError{URL: "https://example.com/en/programme/1", StatusCode: http.StatusInternalServerError},
	}
	tv := parseGuide(t, grabGuide(t, fetcher, testConfig(t, 1, true), nil))

	if len(tv.Programmes) != 1 {
		t.Fatalf("expected 1 programme, got %d", len(tv.Programmes))
	}
	if tv.Programmes[0].Desc != nil {
		t.Errorf("expected no desc, got %q", *tv.Programmes[0].Desc)
	}
}

func TestGrabIntervalCoverage(t *testing.T) {
	page := `<html><body>
<ul class="list-programme">
  <li><span>6:00</span><div class="title--3">A</div></li>
  <li><span>8:15</span><div class="title--3">B</div></li>
  <li><span>13:40</span><div class="title--3">C</div></li>
  <li><span>22:05</span><div class="title--3">D</div></li>
</ul>
</body></html>`
	fetcher := &fakeFetcher{pages: map[string]string{"2026-03-02": page}}
	tv := parseGuide(t, grabGuide(t, fetcher, testConfig(t, 1, false), nil))

	if len(tv.Programmes) != 4 {
		t.Fatalf("expected 4 programmes, got %d", len(tv.Programmes))
	}
	for i, p := range tv.Programmes {
		if p.Stop <= p.Start {
			t.Errorf("programme %q: stop %s is not after start %s", p.Title, p.Stop, p.Start)
		}
		if i > 0 && p.Start != tv.Programmes[i-1].Stop {
			t.Errorf("gap before %q: previous stop %s, start %s", p.Title, tv.Programmes[i-1].Stop, p.Start)
		}
	}
	if last := tv.Programmes[len(tv.Programmes)-1]; last.Stop != "20260302235900 +0300" {
		t.Errorf("last stop: %s", last.Stop)
	}
}

func TestGrabIdempotent(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"2026-03-02": twoEntryPage}}
	conf := testConfig(t, 1, false)

	first := grabGuide(t, fetcher, conf, nil)
	second := grabGuide(t, fetcher, conf, nil)
	if first != second {
		t.Error("two runs over the same input must serialize byte-identically")
	}
}

func TestGrabNotifierSignals(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"2026-03-02": twoEntryPage}}
	n := &fakeNotifier{}
	document := grabGuide(t, fetcher, testConfig(t, 1, false), n)

	if n.started != 1 {
		t.Errorf("expected 1 started signal, got %d", n.started)
	}
	if len(n.progress) != 2 {
		t.Errorf("expected 2 progress signals, got %d", len(n.progress))
	}
	for _, fraction := range n.progress {
		if fraction < 0 || fraction >= 1 {
			t.Errorf("fraction out of range: %f", fraction)
		}
	}
	if n.finished != 1 {
		t.Errorf("expected 1 finished signal, got %d", n.finished)
	}
	if n.err != nil {
		t.Errorf("unexpected terminal failure: %v", n.err)
	}
	if n.document != document {
		t.Error("the finished signal must carry the final document")
	}
}

func TestGrabDropsZeroLengthProgramme(t *testing.T) {
	page := `<html><body>
<ul class="list-programme">
  <li><span>9:00</span><div class="title--3">A</div></li>
  <li><span>9:00</span><div class="title--3">B</div></li>
</ul>
</body></html>`
	fetcher := &fakeFetcher{pages: map[string]string{"2026-03-02": page}}
	tv := parseGuide(t, grabGuide(t, fetcher, testConfig(t, 1, false), nil))

	for _, p := range tv.Programmes {
		if p.Stop <= p.Start {
			t.Errorf("programme %q: stop %s is not after start %s", p.Title, p.Stop, p.Start)
		}
	}
}

func TestDetailDescriptionWithoutContent(t *testing.T) {
	doc, err := parsePage(`<html><body><div class="other">nothing here</div></body></html>`)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if got := detailDescription(doc); got != "" {
		t.Errorf("expected an empty description, got %q", got)
	}
}

func TestDetailDescriptionParagraphsOnly(t *testing.T) {
	doc, err := parsePage(`<html><body>
<div class="programme-mosaic__content editorial">
  <p>Only<br><br>paragraphs <b>here</b>.</p>
</div>
</body></html>`)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	want := "Only\r\nparagraphs here."
	if got := detailDescription(doc); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{URL: "https://example.com/x", StatusCode: 503}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "https://example.com/x") {
		t.Errorf("unexpected message: %s", err.Error())
	}
	var statusErr *StatusError
	if !errors.As(error(err), &statusErr) {
		t.Error("errors.As must match StatusError")
	}
}
