package race

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalization puts user-supplied text into NFC with surrounding whitespace
// trimmed. Stored bodies are hashed into versions, so two spellings of the
// same name must serialize to the same bytes.

func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Normalize canonicalizes the championship's text fields in place.
func (c *Championship) Normalize() {
	c.Name = normalizeText(c.Name)
}

// Normalize canonicalizes the track's text fields in place.
func (t *Track) Normalize() {
	t.Name = normalizeText(t.Name)
	t.City = normalizeText(t.City)
	t.Country = normalizeText(t.Country)
}

// Normalize canonicalizes the driver's text fields in place. Empty name
// tokens are dropped.
func (d *Driver) Normalize() {
	tokens := d.Name[:0]
	for _, tok := range d.Name {
		if tok = normalizeText(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	d.Name = tokens
	d.Abbreviation = strings.ToUpper(normalizeText(d.Abbreviation))
	d.Number = normalizeText(d.Number)
}

// Normalize canonicalizes the event's text fields in place.
func (e *Event) Normalize() {
	e.Name = normalizeText(e.Name)
}

// Normalize canonicalizes the session's text fields in place.
func (s *Session) Normalize() {
	s.Name = normalizeText(s.Name)
}
