package mezzo

import (
	"bytes"
	"encoding/xml"
	"errors"
	"time"
)

const (
	xmltvGenInfoName = "mezzoparser"
	xmltvLang        = "ru"
)

var ErrWriterClosed = errors.New("the xmltv writer is already closed")

// Programme is one fully-bounded guide record. Stop is always after Start.
type Programme struct {
	Channel string
	Start   time.Time
	Stop    time.Time
	Title   string
	Desc    string // empty means the desc element is omitted
}

// guideChannels is the fixed channel preamble of every document.
var guideChannels = []struct {
	id          string
	displayName string
}{
	{ChannelMezzo, "Mezzo"},
	{ChannelMezzoHD, "Mezzo Live HD"},
}

// XMLTVWriter serializes one guide document as an append-only forward
// stream. Elements are emitted in call order and cannot be revisited.
type XMLTVWriter struct {
	buf    bytes.Buffer
	offset string // fixed UTC offset appended to every timestamp
	err    error  // first write failure, sticky
	closed bool
}

// NewXMLTVWriter opens a writer and emits the document prolog, the doctype
// declaration, the tv root element and the fixed channel blocks.
func NewXMLTVWriter(offset string) *XMLTVWriter {
	w := &XMLTVWriter{offset: offset}

	w.buf.WriteString(xml.Header)
	w.buf.WriteString("<!DOCTYPE tv SYSTEM \"xmltv.dtd\">\n")
	w.buf.WriteString(`<tv generator-info-name="` + xmltvGenInfoName + "\">\n")
	for _, ch := range guideChannels {
		w.buf.WriteString(`  <channel id="`)
		w.escape(ch.id)
		w.buf.WriteString("\">\n")
		w.buf.WriteString(`    <display-name lang="` + xmltvLang + `">`)
		w.escape(ch.displayName)
		w.buf.WriteString("</display-name>\n")
		w.buf.WriteString("  </channel>\n")
	}
	return w
}

// WriteProgramme appends one programme element.
func (w *XMLTVWriter) WriteProgramme(p Programme) error {
	if w.closed {
		return ErrWriterClosed
	}

	w.buf.WriteString(`  <programme start="` + w.timeString(p.Start) +
		`" stop="` + w.timeString(p.Stop) + `" channel="`)
	w.escape(p.Channel)
	w.buf.WriteString("\">\n")

	w.buf.WriteString(`    <title lang="` + xmltvLang + `">`)
	w.escape(p.Title)
	w.buf.WriteString("</title>\n")

	if p.Desc != "" {
		w.buf.WriteString(`    <desc lang="` + xmltvLang + `">`)
		w.escape(p.Desc)
		w.buf.WriteString("</desc>\n")
	}

	w.buf.WriteString("  </programme>\n")
	return w.err
}

// Close finalizes and returns the complete document.
func (w *XMLTVWriter) Close() (string, error) {
	if !w.closed {
		w.buf.WriteString("</tv>\n")
		w.closed = true
	}
	if w.err != nil {
		return "", w.err
	}
	return w.buf.String(), nil
}

func (w *XMLTVWriter) escape(s string) {
	if err := xml.EscapeText(&w.buf, []byte(s)); err != nil && w.err == nil {
		w.err = err
	}
}

func (w *XMLTVWriter) timeString(t time.Time) string {
	return t.Format("20060102150405") + " " + w.offset
}
