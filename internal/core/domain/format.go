package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const (
	dateLayout     = "Jan 2, 2006, 03:04 PM"
	dateTimeLayout = "Jan 2, 2006, 03:04:05 PM"
)

// timestampLayouts are tried in order; the inventory service may omit the zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp accepts RFC 3339 and zone-less ISO timestamps, the latter read as UTC.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("parse timestamp %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Local().Format(dateLayout)
}

func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Local().Format(dateTimeLayout)
}

// GenerateSKU derives a SKU from a product name: the first six letters of a single word,
// or the first two of each word, upper-cased, followed by a three digit suffix.
func GenerateSKU(name string, suffix func() int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ') {
			return r
		}
		return -1
	}, name)
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return ""
	}

	var prefix string
	if len(words) == 1 {
		prefix = truncate(words[0], 6)
	} else {
		var b strings.Builder
		for _, w := range words {
			b.WriteString(truncate(w, 2))
		}
		prefix = b.String()
	}
	return fmt.Sprintf("%s%03d", strings.ToUpper(prefix), suffix()%1000)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
