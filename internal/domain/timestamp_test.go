package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampCanonicalForm(t *testing.T) {
	ts := At(time.Date(2024, 3, 15, 10, 30, 45, 123456789, time.UTC))
	assert.Equal(t, "2024-03-15T10:30:45.123Z", ts.String())
}

func TestTimestampNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	ts := At(time.Date(2024, 3, 15, 7, 0, 0, 0, loc))
	assert.Equal(t, "2024-03-15T10:00:00.000Z", ts.String())
}

func TestTimestampParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"canonical", "2024-03-15T10:30:45.123Z", "2024-03-15T10:30:45.123Z", true},
		{"rfc3339 no millis", "2024-03-15T10:30:45Z", "2024-03-15T10:30:45.000Z", true},
		{"rfc3339 offset", "2024-03-15T07:30:45-03:00", "2024-03-15T10:30:45.000Z", true},
		{"empty means unset", "", "", true},
		{"garbage", "not-a-time", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := Parse(tt.input)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ts.String())
		})
	}
}

func TestTimestampLexicalOrderMatchesChronological(t *testing.T) {
	// The store compares stored timestamps as text, so string order must
	// agree with time order across digit-width boundaries.
	a := At(time.Date(2024, 9, 30, 23, 59, 59, 999e6, time.UTC))
	b := At(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC))

	require.True(t, b.After(a))
	assert.Less(t, a.String(), b.String())
}

func TestTimestampZeroValue(t *testing.T) {
	var ts Timestamp
	assert.True(t, ts.IsZero())
	assert.Equal(t, "", ts.String())

	v, err := ts.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestTimestampScan(t *testing.T) {
	var ts Timestamp

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	require.NoError(t, ts.Scan("2024-03-15T10:30:45.123Z"))
	assert.Equal(t, "2024-03-15T10:30:45.123Z", ts.String())

	require.NoError(t, ts.Scan([]byte("2024-03-15T10:30:45.123Z")))
	assert.Equal(t, "2024-03-15T10:30:45.123Z", ts.String())

	require.NoError(t, ts.Scan(time.Date(2024, 3, 15, 10, 30, 45, 123e6, time.UTC)))
	assert.Equal(t, "2024-03-15T10:30:45.123Z", ts.String())

	assert.Error(t, ts.Scan(42))
}

func TestTimestampJSON(t *testing.T) {
	type doc struct {
		At Timestamp `json:"at"`
	}

	data, err := json.Marshal(doc{At: At(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2024-03-15T10:00:00.000Z"}`, string(data))

	data, err = json.Marshal(doc{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":null}`, string(data))

	var got doc
	require.NoError(t, json.Unmarshal([]byte(`{"at":null}`), &got))
	assert.True(t, got.At.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`{"at":"2024-03-15T10:00:00.000Z"}`), &got))
	assert.Equal(t, "2024-03-15T10:00:00.000Z", got.At.String())
}

func TestFlagScan(t *testing.T) {
	var f Flag

	require.NoError(t, f.Scan(int64(1)))
	assert.True(t, bool(f))

	require.NoError(t, f.Scan(int64(0)))
	assert.False(t, bool(f))

	require.NoError(t, f.Scan(true))
	assert.True(t, bool(f))

	require.NoError(t, f.Scan(nil))
	assert.False(t, bool(f))

	v, err := Flag(true).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}
