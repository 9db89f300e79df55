// Package fixedwidth splits the legacy debtor exposure file into fields.
//
// Every line is positional: a field is a byte range, padded with blanks. The
// offsets are held in a Layout so an operator can adjust them from a YAML
// file without rebuilding.
package fixedwidth

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field names accepted in a layout file.
const (
	FieldEntityCode = "entity_code"
	FieldReportDate = "report_date"
	FieldIDType     = "id_type"
	FieldDebtorID   = "debtor_id"
	FieldActivity   = "activity"
	FieldRiskRating = "risk_rating"
	FieldLoanAmount = "loan_amount"
)

var ErrInvalidLayout = errors.New("invalid record layout")

// Field is a byte range inside a line. Start is 0-indexed.
type Field struct {
	Name   string `yaml:"name"`
	Start  int    `yaml:"start"`
	Length int    `yaml:"length"`
}

// End returns the exclusive end offset.
func (f Field) End() int {
	return f.Start + f.Length
}

// slice returns the bytes of the field, clamped to the line length.
// A line that ends before the field yields an empty slice.
func (f Field) slice(line []byte) []byte {
	if f.Start >= len(line) {
		return nil
	}
	end := f.End()
	if end > len(line) {
		end = len(line)
	}
	return line[f.Start:end]
}

// Layout holds the position of every field of a record.
type Layout struct {
	EntityCode Field
	ReportDate Field
	IDType     Field
	DebtorID   Field
	Activity   Field
	RiskRating Field
	LoanAmount Field
}

// DefaultLayout returns the layout of the debtor exposure file as it is
// published: 42 meaningful bytes, anything after that is ignored.
func DefaultLayout() Layout {
	return Layout{
		EntityCode: Field{Name: FieldEntityCode, Start: 0, Length: 5},
		ReportDate: Field{Name: FieldReportDate, Start: 5, Length: 6},
		IDType:     Field{Name: FieldIDType, Start: 11, Length: 2},
		DebtorID:   Field{Name: FieldDebtorID, Start: 13, Length: 11},
		Activity:   Field{Name: FieldActivity, Start: 24, Length: 3},
		RiskRating: Field{Name: FieldRiskRating, Start: 27, Length: 2},
		LoanAmount: Field{Name: FieldLoanAmount, Start: 29, Length: 13},
	}
}

// Width returns the end offset of the right-most field.
func (l Layout) Width() int {
	width := 0
	for _, f := range l.fields() {
		if f.End() > width {
			width = f.End()
		}
	}
	return width
}

func (l Layout) fields() []Field {
	return []Field{l.EntityCode, l.ReportDate, l.IDType, l.DebtorID, l.Activity, l.RiskRating, l.LoanAmount}
}

// Validate checks that every field has a usable range.
func (l Layout) Validate() error {
	for _, f := range l.fields() {
		if f.Name == "" {
			return fmt.Errorf("%w: missing field", ErrInvalidLayout)
		}
		if f.Start < 0 {
			return fmt.Errorf("%w: field %s has negative start %d", ErrInvalidLayout, f.Name, f.Start)
		}
		if f.Length <= 0 {
			return fmt.Errorf("%w: field %s has non-positive length %d", ErrInvalidLayout, f.Name, f.Length)
		}
	}
	return nil
}

type layoutFile struct {
	Fields []Field `yaml:"fields"`
}

// ParseLayout reads a layout from YAML:
//
//	fields:
//	  - {name: entity_code, start: 0, length: 5}
//	  - {name: report_date, start: 5, length: 6}
//	  ...
//
// All seven fields must be listed exactly once.
func ParseLayout(data []byte) (Layout, error) {
	var lf layoutFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return Layout{}, fmt.Errorf("failed to decode layout: %w", err)
	}

	var l Layout
	slots := map[string]*Field{
		FieldEntityCode: &l.EntityCode,
		FieldReportDate: &l.ReportDate,
		FieldIDType:     &l.IDType,
		FieldDebtorID:   &l.DebtorID,
		FieldActivity:   &l.Activity,
		FieldRiskRating: &l.RiskRating,
		FieldLoanAmount: &l.LoanAmount,
	}
	for _, f := range lf.Fields {
		slot, ok := slots[f.Name]
		if !ok {
			return Layout{}, fmt.Errorf("%w: unknown field %q", ErrInvalidLayout, f.Name)
		}
		if slot.Name != "" {
			return Layout{}, fmt.Errorf("%w: field %q listed twice", ErrInvalidLayout, f.Name)
		}
		*slot = f
	}
	for name, slot := range slots {
		if slot.Name == "" {
			return Layout{}, fmt.Errorf("%w: field %q is missing", ErrInvalidLayout, name)
		}
	}

	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// LoadLayout reads a YAML layout file. An empty path returns DefaultLayout.
func LoadLayout(path string) (Layout, error) {
	if path == "" {
		return DefaultLayout(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout file: %w", err)
	}
	return ParseLayout(data)
}
