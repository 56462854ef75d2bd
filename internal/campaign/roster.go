package campaign

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nyaruka/phonenumbers"
)

// Entry is one callee from an uploaded roster file.
type Entry struct {
	Name     string
	Phone    string
	Language string
}

var ErrEmptyRoster = errors.New("roster contains no entries")

// ParseRoster reads a CSV roster with a header row. Recognised columns are
// Phone (required), Name and Language, matched case-insensitively. Phone
// numbers are normalised to E.164.
func ParseRoster(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyRoster
	}
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}

	phoneCol, nameCol, langCol := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "phone", "phone_number", "phonenumber":
			phoneCol = i
		case "name":
			nameCol = i
		case "language", "lang":
			langCol = i
		}
	}
	if phoneCol == -1 {
		return nil, errors.New("roster header has no Phone column")
	}

	var entries []Entry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster row %d: %w", line, err)
		}

		raw := strings.TrimSpace(field(row, phoneCol))
		if raw == "" {
			continue
		}
		phone, err := NormalizePhone(raw)
		if err != nil {
			return nil, fmt.Errorf("roster row %d: %w", line, err)
		}

		name := strings.TrimSpace(field(row, nameCol))
		if name == "" {
			name = "Unknown"
		}
		lang := strings.ToLower(strings.TrimSpace(field(row, langCol)))
		if lang == "" {
			lang = DefaultLanguage
		}

		entries = append(entries, Entry{Name: name, Phone: phone, Language: lang})
	}
	if len(entries) == 0 {
		return nil, ErrEmptyRoster
	}
	return entries, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// NormalizePhone converts a raw roster number into E.164 form. Numbers
// without a leading plus are assumed to already carry their country code.
func NormalizePhone(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "+") {
		s = "+" + s
	}
	num, err := phonenumbers.Parse(s, "")
	if err != nil {
		return "", fmt.Errorf("parse phone %q: %w", raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number %q", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// RosterIndex holds the most recently dispatched roster for reverse lookup
// by phone number. It is shared between the dispatcher, which writes it at
// campaign start, and the webhook handler, which reads it while events for
// that campaign arrive.
type RosterIndex struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewRosterIndex() *RosterIndex {
	return &RosterIndex{}
}

func (ri *RosterIndex) Set(entries []Entry) {
	ri.mu.Lock()
	ri.entries = append([]Entry(nil), entries...)
	ri.mu.Unlock()
}

// Lookup finds the roster entry for a phone number. Provider events may
// carry the number with or without the leading plus, so comparison works on
// digits only, with a suffix match as fallback for differing country-code
// prefixes.
func (ri *RosterIndex) Lookup(phone string) (Entry, bool) {
	want := digits(phone)
	if want == "" {
		return Entry{}, false
	}

	ri.mu.RLock()
	defer ri.mu.RUnlock()

	for _, e := range ri.entries {
		if digits(e.Phone) == want {
			return e, true
		}
	}
	for _, e := range ri.entries {
		have := digits(e.Phone)
		if len(want) >= 10 && len(have) >= 10 && (strings.HasSuffix(have, want) || strings.HasSuffix(want, have)) {
			return e, true
		}
	}
	return Entry{}, false
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
