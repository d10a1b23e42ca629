package days

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParse(t *testing.T) {
	d, err := Parse("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, New(2024, time.June, 1), d)
	assert.Equal(t, time.UTC, d.Time().Location())

	for _, bad := range []string{"", "2024-13-01", "06/01/2024", "2024-06-01T00:00:00Z"} {
		_, err := Parse(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestOf_TruncatesToUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2024, time.June, 2, 1, 30, 0, 0, loc)

	assert.Equal(t, New(2024, time.June, 1), Of(ts))
}

func TestRange_NightsAndDays(t *testing.T) {
	r := NewRange(New(2024, time.June, 1), New(2024, time.June, 6))

	assert.True(t, r.Valid())
	assert.Equal(t, 5, r.Nights())

	ds := r.Days()
	require.Len(t, ds, 5)
	assert.Equal(t, "2024-06-01", ds[0].String())
	assert.Equal(t, "2024-06-05", ds[4].String())
	assert.False(t, r.Contains(New(2024, time.June, 6)))
}

func TestRange_AcrossMonthBoundary(t *testing.T) {
	r := NewRange(New(2024, time.February, 27), New(2024, time.March, 2))

	assert.Equal(t, 4, r.Nights())
	assert.Equal(t, "2024-02-29", r.Days()[2].String())
}

func TestRange_Invalid(t *testing.T) {
	same := NewRange(New(2024, time.June, 1), New(2024, time.June, 1))
	assert.False(t, same.Valid())
	assert.Empty(t, same.Days())

	backwards := NewRange(New(2024, time.June, 5), New(2024, time.June, 1))
	assert.False(t, backwards.Valid())
	assert.Equal(t, -4, backwards.Nights())

	assert.False(t, Range{}.Valid())
}

func TestRange_Overlaps(t *testing.T) {
	first := NewRange(New(2024, time.June, 1), New(2024, time.June, 6))

	tests := []struct {
		name  string
		other Range
		want  bool
	}{
		{"overlapping tail", NewRange(New(2024, time.June, 3), New(2024, time.June, 8)), true},
		{"back to back", NewRange(New(2024, time.June, 6), New(2024, time.June, 11)), false},
		{"ends at start", NewRange(New(2024, time.May, 27), New(2024, time.June, 1)), false},
		{"contained", NewRange(New(2024, time.June, 2), New(2024, time.June, 3)), true},
		{"covering", NewRange(New(2024, time.May, 1), New(2024, time.July, 1)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, first.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(first))
		})
	}
}

func TestDifference(t *testing.T) {
	a := NewRange(New(2024, time.June, 1), New(2024, time.June, 6)).Days()
	b := NewRange(New(2024, time.June, 3), New(2024, time.June, 8)).Days()

	only := Difference(a, b)
	require.Len(t, only, 2)
	assert.Equal(t, "2024-06-01", only[0].String())
	assert.Equal(t, "2024-06-02", only[1].String())
}

func TestDay_JSON(t *testing.T) {
	var payload struct {
		CheckIn Day `json:"check_in"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"check_in":"2024-06-01"}`), &payload))
	assert.Equal(t, New(2024, time.June, 1), payload.CheckIn)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"check_in":"2024-06-01"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"check_in":"June 1"}`), &payload))
}

func TestDay_BSON(t *testing.T) {
	type doc struct {
		Date Day `bson:"date"`
	}
	in := doc{Date: New(2024, time.June, 1)}

	data, err := bson.Marshal(in)
	require.NoError(t, err)

	raw := bson.Raw(data)
	assert.Equal(t, bson.TypeDateTime, raw.Lookup("date").Type)

	var out doc
	require.NoError(t, bson.Unmarshal(data, &out))
	assert.Equal(t, in.Date, out.Date)
}
