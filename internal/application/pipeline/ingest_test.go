package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glycotrace/glycotrace/pkg/errors"
	"github.com/glycotrace/glycotrace/pkg/types/common"
)

func TestIngestHappyPath(t *testing.T) {
	// Header casing varies and an extra column is present; both are fine.
	csv := strings.Join([]string{
		"name,RT,Volume,LOG P,anchor,Comment",
		"GM1(36:1;O2),9.6,1000,2.8,T,primary",
		"GD1(38:2;O3),9.61,800,1.2,false,",
	}, "\n")

	res, err := Ingest(strings.NewReader(csv), 0.5)
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalRows)
	assert.Empty(t, res.Drops)
	require.Len(t, res.Records, 2)

	first := res.Records[0]
	assert.Equal(t, "GM1(36:1;O2)", first.Name)
	assert.Equal(t, "GM1", first.Prefix)
	assert.InDelta(t, 9.6, first.RT, 1e-12)
	assert.InDelta(t, 1000, first.Volume, 1e-12)
	assert.InDelta(t, 2.8, first.LogP, 1e-12)
	assert.True(t, first.IsAnchor)
	assert.False(t, res.Records[1].IsAnchor)
}

func TestIngestDropsBadRowsWithReasons(t *testing.T) {
	csv := strings.Join([]string{
		"Name,RT,Volume,Log P,Anchor",
		"GM1(36:1;O2),9.6,1000,2.8,T",
		"not-a-compound,9.7,100,1.0,T",
		"GM2(36:1;O2),abc,100,1.0,T",
		"GM3(36:1;O2),9.8,100,1.0,maybe",
		"GD1(38:2;O3),9.61",
	}, "\n")

	res, err := Ingest(strings.NewReader(csv), 0.9)
	require.NoError(t, err)

	assert.Equal(t, 5, res.TotalRows)
	require.Len(t, res.Records, 1)
	require.Len(t, res.Drops, 4)

	kinds := map[common.DropKind]int{}
	for _, d := range res.Drops {
		kinds[d.Kind]++
		assert.NotZero(t, d.Row)
	}
	assert.Equal(t, 1, kinds[common.DropMalformedName])
	assert.Equal(t, 1, kinds[common.DropNonNumericField])
	assert.Equal(t, 1, kinds[common.DropBadAnchorFlag])
	assert.Equal(t, 1, kinds[common.DropMissingField])
}

func TestIngestFailures(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		maxDrop  float64
		wantCode errors.ErrorCode
	}{
		{
			name:     "missing required column",
			csv:      "Name,RT,Volume,Anchor\nGM1(36:1;O2),9.6,1000,T",
			maxDrop:  0.5,
			wantCode: errors.ErrCodeMissingColumn,
		},
		{
			name:     "header only",
			csv:      "Name,RT,Volume,Log P,Anchor",
			maxDrop:  0.5,
			wantCode: errors.ErrCodeEmptyTable,
		},
		{
			name:     "empty input",
			csv:      "",
			maxDrop:  0.5,
			wantCode: errors.ErrCodeEmptyTable,
		},
		{
			name: "drop rate exceeded",
			csv: strings.Join([]string{
				"Name,RT,Volume,Log P,Anchor",
				"GM1(36:1;O2),9.6,1000,2.8,T",
				"junk,1,1,1,T",
				"more junk,2,2,2,F",
			}, "\n"),
			maxDrop:  0.5,
			wantCode: errors.ErrCodeDropRateExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Ingest(strings.NewReader(tt.csv), tt.maxDrop)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestParseAnchorFlag(t *testing.T) {
	for _, raw := range []string{"T", "t", "true", "TRUE", "1"} {
		v, ok := parseAnchorFlag(raw)
		assert.True(t, ok, raw)
		assert.True(t, v, raw)
	}
	for _, raw := range []string{"F", "f", "false", " 0 "} {
		v, ok := parseAnchorFlag(raw)
		assert.True(t, ok, raw)
		assert.False(t, v, raw)
	}
	for _, raw := range []string{"", "yes", "2"} {
		_, ok := parseAnchorFlag(raw)
		assert.False(t, ok, raw)
	}
}
