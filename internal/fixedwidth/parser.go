package fixedwidth

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/epeers/debtimport/internal/models"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultEncoding is the charset the files are published in.
const DefaultEncoding = "ISO-8859-1"

var encodings = map[string]encoding.Encoding{
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"cp850":        charmap.CodePage850,
	"utf-8":        nil,
	"utf8":         nil,
}

// LookupEncoding resolves a charset name. UTF-8 resolves to nil, meaning the
// field bytes are used as they are.
func LookupEncoding(name string) (encoding.Encoding, error) {
	enc, ok := encodings[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported source encoding %q", name)
	}
	return enc, nil
}

// Parser turns raw lines into records. It holds no state between lines and
// is safe for concurrent use.
type Parser struct {
	layout Layout
	enc    encoding.Encoding
}

// NewParser creates a Parser. Offsets are byte offsets, so enc must be a
// single-byte charset (or nil for plain ASCII/UTF-8 input).
func NewParser(layout Layout, enc encoding.Encoding) *Parser {
	return &Parser{layout: layout, enc: enc}
}

// Layout returns the layout the parser slices with.
func (p *Parser) Layout() Layout {
	return p.layout
}

// ParseLine extracts the fields of one line. It returns false for blank
// lines, for lines whose trimmed length is shorter than the debtor id offset,
// and for lines whose entity code, report date, id type or debtor id is
// blank.
func (p *Parser) ParseLine(line string) (models.RawRecord, bool) {
	raw := []byte(line)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return models.RawRecord{}, false
	}
	if len(trimmed) < p.layout.DebtorID.Start {
		return models.RawRecord{}, false
	}

	rec := models.RawRecord{
		EntityCode: p.field(p.layout.EntityCode, raw),
		ReportDate: p.field(p.layout.ReportDate, raw),
		IDType:     p.field(p.layout.IDType, raw),
		DebtorID:   p.field(p.layout.DebtorID, raw),
		Activity:   p.field(p.layout.Activity, raw),
		RiskRating: p.field(p.layout.RiskRating, raw),
		LoanAmount: p.field(p.layout.LoanAmount, raw),
	}

	if rec.EntityCode == "" || rec.ReportDate == "" || rec.IDType == "" || rec.DebtorID == "" {
		return models.RawRecord{}, false
	}
	return rec, true
}

func (p *Parser) field(f Field, line []byte) string {
	b := f.slice(line)
	if len(b) == 0 {
		return ""
	}
	if p.enc != nil {
		// single-byte charmaps decode every byte, so this cannot fail
		if decoded, err := p.enc.NewDecoder().Bytes(b); err == nil {
			b = decoded
		}
	}
	return strings.TrimSpace(string(b))
}

// Load builds a Parser from a layout file (empty for the default layout) and
// a charset name.
func Load(layoutPath, encodingName string) (*Parser, error) {
	layout, err := LoadLayout(layoutPath)
	if err != nil {
		return nil, err
	}
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return NewParser(layout, enc), nil
}
