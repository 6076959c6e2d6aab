package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocalTime(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "06:00", want: Clock{6, 0}},
		{in: "6:05", want: Clock{6, 5}},
		{in: " 23:59 ", want: Clock{23, 59}},
		{in: "00:00", want: Clock{0, 0}},
		{in: "25:99", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "12:00:00", wantErr: true},
		{in: "+1:00", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocalTime(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockString(t *testing.T) {
	assert.Equal(t, "06:05", Clock{6, 5}.String())
	assert.Equal(t, "23:00", Clock{23, 0}.String())
}

func TestJobName(t *testing.T) {
	assert.Equal(t, "42:ru:11:00:central", JobName(42, Entry{Time: "11:00", Type: KindRU, Location: "central"}))
	assert.Equal(t, "-100:news:07:00:", JobName(-100, Entry{Time: "07:00", Type: KindNews}))
	assert.Equal(t, "42:", ChatPrefix(42))
}

func TestEntryValidate(t *testing.T) {
	assert.NoError(t, Entry{Time: "07:00", Type: KindNews}.Validate())
	assert.NoError(t, Entry{Time: "07:00", Type: KindWeather}.Validate())
	assert.ErrorIs(t, Entry{Time: "25:99", Type: KindNews}.Validate(), ErrInvalidTime)
	assert.ErrorIs(t, Entry{Time: "07:00", Type: "lottery"}.Validate(), ErrUnknownKind)
	assert.Error(t, Entry{Time: "07:00", Type: KindRU}.Validate())
	assert.Error(t, Entry{Time: "07:00", Type: KindRSS}.Validate())
}

func TestEntryJSONOmitsEmptyLocation(t *testing.T) {
	raw, err := json.Marshal(Entry{Time: "07:00", Type: KindNews})
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":"07:00","type":"news"}`, string(raw))

	var e Entry
	require.NoError(t, json.Unmarshal([]byte(`{"time":"08:00","type":"ru","location":"central"}`), &e))
	assert.Equal(t, Entry{Time: "08:00", Type: KindRU, Location: "central"}, e)
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
		assert.NotEqual(t, string(k), k.Title(), "every kind has a display title")
	}
	_, err := ParseKind("lottery")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
