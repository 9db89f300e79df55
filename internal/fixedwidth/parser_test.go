package fixedwidth

import (
	"strings"
	"testing"

	"github.com/epeers/debtimport/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const (
	sampleLine1 = "0000720170611200057178180001 60,6     ,0     7,5       ,0     ,0     ,0     60,6    ,0     ,0     7,5        ,0     0000000   "
	sampleLine3 = "0000820170611200059069477021 4,3       ,0     ,8     ,0     ,0     ,0     4,3      ,0     ,0     ,8     ,0     0000000   "
)

func newTestParser() *Parser {
	return NewParser(DefaultLayout(), charmap.ISO8859_1)
}

func TestParseLine_SampleLine(t *testing.T) {
	rec, ok := newTestParser().ParseLine(sampleLine1)
	require.True(t, ok)

	assert.Equal(t, models.RawRecord{
		EntityCode: "00007",
		ReportDate: "201706",
		IDType:     "11",
		DebtorID:   "20005717818",
		Activity:   "000",
		RiskRating: "1",
		LoanAmount: "60,6     ,0",
	}, rec)
}

func TestParseLine_IgnoresContentPastLayout(t *testing.T) {
	p := newTestParser()
	short, ok := p.ParseLine(sampleLine3[:42])
	require.True(t, ok)
	full, ok := p.ParseLine(sampleLine3)
	require.True(t, ok)
	assert.Equal(t, short, full)
	assert.Equal(t, "20005906947", full.DebtorID)
	assert.Equal(t, "4,3       ,0", full.LoanAmount)
}

func TestParseLine_Rejected(t *testing.T) {
	testCases := []struct {
		name string
		line string
	}{
		{name: "empty", line: ""},
		{name: "spaces", line: "        "},
		{name: "tabs and spaces", line: " \t \t "},
		{name: "twelve chars", line: "000072017061"},
		{name: "thirteen chars", line: "0000720170611"},
		{name: "blank entity code", line: "     20170611200057178180001 60,6"},
		{name: "blank report date", line: "00007      11200057178180001 60,6"},
		{name: "blank id type", line: "00007201706  200057178180001 60,6"},
		{name: "blank debtor id", line: "0000720170611           0001 60,6"},
	}

	p := newTestParser()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := p.ParseLine(tc.line)
			assert.False(t, ok, "line %q should be rejected", tc.line)
		})
	}
}

func TestParseLine_ThirteenCharsIndented(t *testing.T) {
	// the trimmed length reaches the debtor id offset and the raw debtor id
	// slice is not blank, so the misaligned line is still accepted
	rec, ok := newTestParser().ParseLine("  0000720170611")
	require.True(t, ok)
	assert.Equal(t, "000", rec.EntityCode)
	assert.Equal(t, "072017", rec.ReportDate)
	assert.Equal(t, "06", rec.IDType)
	assert.Equal(t, "11", rec.DebtorID)

	_, ok = newTestParser().ParseLine(" 000072017061")
	assert.False(t, ok, "twelve chars after trimming")
}

func TestParseLine_ShortLinesNeverPanic(t *testing.T) {
	p := newTestParser()
	for i := 0; i <= len(sampleLine1); i++ {
		assert.NotPanics(t, func() { p.ParseLine(sampleLine1[:i]) })
	}
}

func TestParseLine_TruncatedOptionalFields(t *testing.T) {
	// debtor id present, activity/rating/amount cut off
	rec, ok := newTestParser().ParseLine("000072017061120005717818")
	require.True(t, ok)
	assert.Equal(t, "20005717818", rec.DebtorID)
	assert.Empty(t, rec.Activity)
	assert.Empty(t, rec.RiskRating)
	assert.Empty(t, rec.LoanAmount)
}

func TestParseLine_Pure(t *testing.T) {
	p := newTestParser()
	first, ok1 := p.ParseLine(sampleLine1)
	second, ok2 := p.ParseLine(sampleLine1)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)

	// numeric fields stay as text even when they are not numbers
	rec, ok := p.ParseLine("000072017061120005717818000XXabc")
	require.True(t, ok)
	assert.Equal(t, "XX", rec.RiskRating)
	assert.Equal(t, "abc", rec.LoanAmount)
}

func TestParseLine_Latin1KeepsByteOffsets(t *testing.T) {
	// 0xD1 is 'Ñ' in ISO-8859-1 and occupies one byte of the activity field
	raw := "0000720170611200057178180\xD1A1 60,6"
	rec, ok := newTestParser().ParseLine(raw)
	require.True(t, ok)
	assert.Equal(t, "0ÑA", rec.Activity)
	assert.Equal(t, "1", rec.RiskRating)
	assert.Equal(t, "60,6", rec.LoanAmount)
}

func TestLookupEncoding(t *testing.T) {
	enc, err := LookupEncoding("ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, charmap.ISO8859_1, enc)

	enc, err = LookupEncoding(" utf-8 ")
	require.NoError(t, err)
	assert.Nil(t, enc)

	_, err = LookupEncoding("ebcdic")
	assert.Error(t, err)
}

func TestParseLine_UTF8PassThrough(t *testing.T) {
	p := NewParser(DefaultLayout(), nil)
	rec, ok := p.ParseLine(strings.TrimRight(sampleLine1, " "))
	require.True(t, ok)
	assert.Equal(t, "00007", rec.EntityCode)
}

func TestLoad(t *testing.T) {
	p, err := Load("", "latin1")
	require.NoError(t, err)
	assert.Equal(t, DefaultLayout(), p.Layout())

	_, err = Load("", "ebcdic")
	assert.Error(t, err)

	_, err = Load("/nonexistent/layout.yaml", DefaultEncoding)
	assert.Error(t, err)
}
