package mezzo

import (
	"context"
	"strconv"
	"time"

	"github.com/sonnayasomnambula/mezzoparser/internal/app/config"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// sectionKey identifies the interval state of one channel within one day.
type sectionKey struct {
	channelID string
	day       string // yyyy-MM-dd
}

// Grabber drives the extraction-and-compilation pipeline over a PageFetcher
// and serializes the result into one XMLTV document.
type Grabber struct {
	fetcher PageFetcher
	conf    *config.Config

	logger *zap.Logger
}

func NewGrabber(fetcher PageFetcher, conf *config.Config) *Grabber {
	return &Grabber{
		fetcher: fetcher,
		conf:    conf,
		logger:  zap.L(),
	}
}

// Grab fetches the configured day window starting at from, compiles every
// channel section into bounded programme records and returns the finished
// XMLTV document. A failed schedule page aborts only that day; a failed
// serialization aborts the run with no document.
func (g *Grabber) Grab(ctx context.Context, from time.Time, n Notifier) (string, error) {
	w := NewXMLTVWriter(g.conf.Offset)

	// One Idle/Open state machine per (channel, day). An absent key means
	// Idle, a present value is the pending entry awaiting its stop time.
	pending := make(map[sectionKey]Programme)

	n.Started()

	total := 0
	for i := 0; i < g.conf.Days; i++ {
		day := from.AddDate(0, 0, i)

		doc, err := g.fetcher.SchedulePage(ctx, day)
		if err != nil {
			g.logger.Warn("Failed to fetch the schedule page. The day is skipped.",
				zap.String("day", day.Format("2006-01-02")), zap.Error(err))
			continue
		}

		g.logger.Sugar().Infof("Parse schedule for %s", day.Format("2006-01-02"))
		total += g.compileDay(ctx, doc, day, pending, w, n)
	}

	document, err := w.Close()
	if err != nil {
		n.Finished("", err)
		return "", err
	}

	g.logger.Sugar().Infof("A total of %d programmes have been compiled.", total)
	n.Finished(document, nil)
	return document, nil
}

// compileDay walks the programme sections of one day's page in document
// order, assigns channel ids from the fixed priority list and feeds every
// list item through the interval state machine. Returns the number of
// programmes emitted.
func (g *Grabber) compileDay(ctx context.Context, doc *goquery.Document, day time.Time, pending map[sectionKey]Programme, w *XMLTVWriter, n Notifier) int {
	emitted := 0
	synthetic := 0

	doc.Find(".list-programme").Each(func(si int, section *goquery.Selection) {
		var channelID string
		if si < len(sectionChannelIDs) {
			channelID = sectionChannelIDs[si]
		} else {
			channelID = strconv.Itoa(synthetic)
			synthetic++
		}
		key := sectionKey{channelID: channelID, day: day.Format("2006-01-02")}

		items := section.Children()
		count := items.Length()
		items.Each(func(ii int, item *goquery.Selection) {
			if !item.Is("li") {
				return
			}

			entry, ok := extractEntry(item.Get(0), doc.Url)
			if !ok {
				// Not an error: decorative items carry no time or title.
				g.logger.Debug("List item without a time or title. Skip it.",
					zap.String("channel", channelID), zap.String("day", key.day))
				return
			}

			if entry.Desc == "" && g.conf.DownloadDescription && entry.DetailURL != "" {
				entry.Desc = g.downloadDescription(ctx, entry.DetailURL)
			}

			start := at(day, entry.Start, g.conf.Location)
			n.Progress(day, start, float64(ii)/float64(count))

			if open, isOpen := pending[key]; isOpen {
				if g.close(w, open, start) {
					emitted++
				}
			}
			pending[key] = Programme{
				Channel: channelID,
				Start:   start,
				Title:   entry.Title,
				Desc:    entry.Desc,
			}
		})

		// End of the channel section: the last entry stops at the fixed
		// end-of-day boundary.
		if open, isOpen := pending[key]; isOpen {
			if g.close(w, open, endOfDay(day, g.conf.Location)) {
				emitted++
			}
			delete(pending, key)
		}
	})

	return emitted
}

// close bounds an open entry at stop and writes the programme. Records that
// would not satisfy stop > start are dropped.
func (g *Grabber) close(w *XMLTVWriter, open Programme, stop time.Time) bool {
	if !stop.After(open.Start) {
		g.logger.Warn("Programme with a non-positive duration. Drop it.",
			zap.String("title", open.Title), zap.Time("start", open.Start))
		return false
	}
	open.Stop = stop
	if err := w.WriteProgramme(open); err != nil {
		g.logger.Error("Failed to write the programme.", zap.Error(err))
		return false
	}
	return true
}

// at pins a clock time to the given day in the configured fixed offset.
func at(day time.Time, clock time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
}

// endOfDay is the stop boundary of the last programme of a day.
func endOfDay(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 0, 0, loc)
}
