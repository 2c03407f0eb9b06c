package pipeline

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	apperrors "github.com/glycotrace/glycotrace/pkg/errors"
	"github.com/glycotrace/glycotrace/pkg/types/common"

	"github.com/glycotrace/glycotrace/internal/domain/compound"
)

// Required input columns, matched case-insensitively against the CSV header.
// Extra columns are ignored.
const (
	colName   = "name"
	colRT     = "rt"
	colVolume = "volume"
	colLogP   = "log p"
	colAnchor = "anchor"
)

// IngestResult is the outcome of reading one compound table.
type IngestResult struct {
	// Records holds the surviving compounds in input order; this slice is the
	// run's record arena and later stages refer to it by index.
	Records []compound.Record
	// Drops records every rejected row with its cause.
	Drops []common.DroppedRow
	// TotalRows counts data rows seen, dropped or not.
	TotalRows int
}

// Ingest reads a compound table in CSV form.  Malformed rows are dropped and
// logged, not fatal; the batch only fails when the required header is
// missing, the table is empty, or the dropped fraction exceeds
// maxDropFraction.
func Ingest(r io.Reader, maxDropFraction float64) (*IngestResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, apperrors.NewCode(apperrors.ErrCodeEmptyTable).WithDetail("no header row")
	}
	if err != nil {
		return nil, apperrors.NewCode(apperrors.ErrCodeTableReadFailed).WithCause(err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	res := &IngestResult{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewCode(apperrors.ErrCodeTableReadFailed).WithCause(err)
		}
		res.TotalRows++
		rec, drop := parseRow(row, cols, res.TotalRows)
		if drop != nil {
			res.Drops = append(res.Drops, *drop)
			continue
		}
		res.Records = append(res.Records, *rec)
	}

	if res.TotalRows == 0 {
		return nil, apperrors.NewCode(apperrors.ErrCodeEmptyTable)
	}
	if frac := float64(len(res.Drops)) / float64(res.TotalRows); frac > maxDropFraction {
		return nil, apperrors.NewCode(apperrors.ErrCodeDropRateExceeded).
			WithDetailf("dropped %d of %d rows (%.0f%%)", len(res.Drops), res.TotalRows, frac*100)
	}
	return res, nil
}

// columnIndex maps each required column to its position in the header.
type columnIndex struct {
	name, rt, volume, logP, anchor int
}

func resolveColumns(header []string) (columnIndex, error) {
	found := map[string]int{}
	for i, h := range header {
		found[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idx := columnIndex{}
	for _, c := range []struct {
		key string
		dst *int
	}{
		{colName, &idx.name},
		{colRT, &idx.rt},
		{colVolume, &idx.volume},
		{colLogP, &idx.logP},
		{colAnchor, &idx.anchor},
	} {
		pos, ok := found[c.key]
		if !ok {
			return idx, apperrors.NewCode(apperrors.ErrCodeMissingColumn).WithDetail(c.key)
		}
		*c.dst = pos
	}
	return idx, nil
}

func parseRow(row []string, cols columnIndex, rowNum int) (*compound.Record, *common.DroppedRow) {
	maxIdx := cols.name
	for _, i := range []int{cols.rt, cols.volume, cols.logP, cols.anchor} {
		if i > maxIdx {
			maxIdx = i
		}
	}
	if len(row) <= maxIdx {
		return nil, &common.DroppedRow{
			Row:  rowNum,
			Kind: common.DropMissingField,
			Detail: "row has " + strconv.Itoa(len(row)) + " fields, need " +
				strconv.Itoa(maxIdx+1),
		}
	}

	name := strings.TrimSpace(row[cols.name])
	rec, err := compound.ParseName(name)
	if err != nil {
		return nil, &common.DroppedRow{
			Row:    rowNum,
			Name:   name,
			Kind:   common.DropMalformedName,
			Detail: err.Error(),
		}
	}

	for _, f := range []struct {
		label string
		raw   string
		dst   *float64
	}{
		{"rt", row[cols.rt], &rec.RT},
		{"volume", row[cols.volume], &rec.Volume},
		{"log p", row[cols.logP], &rec.LogP},
	} {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			return nil, &common.DroppedRow{
				Row: rowNum, Name: name, Kind: common.DropMissingField, Detail: f.label,
			}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &common.DroppedRow{
				Row: rowNum, Name: name, Kind: common.DropNonNumericField,
				Detail: f.label + "=" + raw,
			}
		}
		*f.dst = v
	}

	anchor, ok := parseAnchorFlag(row[cols.anchor])
	if !ok {
		return nil, &common.DroppedRow{
			Row: rowNum, Name: name, Kind: common.DropBadAnchorFlag,
			Detail: strings.TrimSpace(row[cols.anchor]),
		}
	}
	rec.IsAnchor = anchor
	return rec, nil
}

func parseAnchorFlag(raw string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "t", "true", "1":
		return true, true
	case "f", "false", "0":
		return false, true
	}
	return false, false
}
