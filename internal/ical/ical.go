// Package ical renders all-day iCalendar (RFC 5545) documents with a
// fixed property layout: one VEVENT per holiday, date-only DTSTART and
// exclusive DTEND, deterministic 8-hex-character UIDs, CRLF line
// endings, and 75-octet line folding.
package ical

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"
)

// Config carries the document-level constants. It is passed explicitly
// so the package holds no process-wide state.
type Config struct {
	// ProdID is emitted as the PRODID calendar property.
	ProdID string
	// URL is emitted as the URL property of every event.
	URL string
}

// Event is a single whole-day calendar entry. End is exclusive: for a
// one-day event it is Start plus one day.
type Event struct {
	Summary string
	Start   time.Time
	End     time.Time
}

// Calendar is one document: a display name plus its events, rendered in
// the given order.
type Calendar struct {
	Name   string
	Events []Event
}

const (
	dateLayout  = "20060102"
	stampLayout = "20060102T150405Z"

	// RFC 5545 §3.1: content lines should not exceed 75 octets.
	foldLimit = 75
)

// UID derives the stable event identifier: the first 8 lowercase hex
// characters of SHA-256(summary + YYYYMMDD of the start date).
func UID(summary string, start time.Time) string {
	sum := sha256.Sum256([]byte(summary + start.Format(dateLayout)))
	return hex.EncodeToString(sum[:4])
}

// FoldLine folds a content line to at most 75 octets per physical line.
// Continuation lines carry a leading space and therefore hold at most
// 74 octets of content. The split is byte-oriented; bytes that no
// longer form a valid UTF-8 sequence inside a chunk are dropped rather
// than reassembled across the fold.
func FoldLine(line string) string {
	encoded := []byte(line)
	if len(encoded) <= foldLimit {
		return line
	}

	var chunks []string
	pos := 0
	limit := foldLimit
	for pos < len(encoded) {
		end := pos + limit
		if end > len(encoded) {
			end = len(encoded)
		}
		chunks = append(chunks, dropInvalidUTF8(encoded[pos:end]))
		pos = end
		limit = foldLimit - 1
	}
	return strings.Join(chunks, "\r\n ")
}

// dropInvalidUTF8 decodes b as UTF-8, skipping any bytes that do not
// form a valid sequence (typically multi-byte runes cut by a fold).
func dropInvalidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var out strings.Builder
	out.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			b = b[1:]
			continue
		}
		out.Write(b[:size])
		b = b[size:]
	}
	return out.String()
}

// renderEvent emits the lines of one VEVENT block. All three timestamp
// properties carry the same run-wide generation instant.
func renderEvent(ev Event, cfg Config, stamp string) []string {
	return []string{
		"BEGIN:VEVENT",
		"DTSTART;VALUE=DATE:" + ev.Start.Format(dateLayout),
		"DTEND;VALUE=DATE:" + ev.End.Format(dateLayout),
		"SUMMARY:" + ev.Summary,
		FoldLine("UID:" + UID(ev.Summary, ev.Start)),
		"URL:" + cfg.URL,
		"CREATED:" + stamp,
		"LAST-MODIFIED:" + stamp,
		"DTSTAMP:" + stamp,
		"TRANSP:TRANSPARENT",
		"END:VEVENT",
	}
}

// Render serializes the calendar to its full document text: header,
// one VEVENT block per event, footer. Lines are CRLF-joined and the
// document ends with a trailing CRLF.
func (c Calendar) Render(cfg Config, timestamp time.Time) string {
	stamp := timestamp.UTC().Format(stampLayout)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + cfg.ProdID,
	}
	for _, ev := range c.Events {
		lines = append(lines, renderEvent(ev, cfg, stamp)...)
	}
	lines = append(lines,
		"NAME:"+c.Name,
		"X-WR-CALNAME:"+c.Name,
		"METHOD:PUBLISH",
		"END:VCALENDAR",
	)

	return strings.Join(lines, "\r\n") + "\r\n"
}
