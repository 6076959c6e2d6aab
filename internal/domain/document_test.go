package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentKeepsKeyAndListOrder(t *testing.T) {
	raw := `{"900":[{"time":"18:00","type":"bicho"},{"time":"06:00","type":"news"}],` +
		`"100":[{"time":"07:00","type":"ru","location":"central"}],` +
		`"-5":[]}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, []string{"900", "100", "-5"}, doc.Chats())
	assert.Equal(t, []Entry{
		{Time: "18:00", Type: KindBicho},
		{Time: "06:00", Type: KindNews},
	}, doc.Entries("900"))
	assert.Equal(t, 3, doc.Len())

	out, err := json.Marshal(&doc)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestDocumentNullIsEmpty(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`null`), &doc))
	assert.Equal(t, 0, doc.Len())
	assert.Empty(t, doc.Chats())
}

func TestDocumentRejectsMalformed(t *testing.T) {
	for _, raw := range []string{`[]`, `{"1": 5}`, `{"1": [{"time": 7}]}`, `{"1": [`} {
		var doc Document
		assert.Error(t, json.Unmarshal([]byte(raw), &doc), raw)
	}
}

func TestDocumentRemoveAt(t *testing.T) {
	doc := NewDocument()
	doc.Append("1", Entry{Time: "06:00", Type: KindNews})
	doc.Append("1", Entry{Time: "07:00", Type: KindExchange})
	doc.Append("2", Entry{Time: "08:00", Type: KindBicho})

	removed, err := doc.RemoveAt("1", 0)
	require.NoError(t, err)
	assert.Equal(t, Entry{Time: "06:00", Type: KindNews}, removed)
	assert.Equal(t, []Entry{{Time: "07:00", Type: KindExchange}}, doc.Entries("1"))

	_, err = doc.RemoveAt("1", 99)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = doc.RemoveAt("1", -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = doc.RemoveAt("3", 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = doc.RemoveAt("1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, doc.Chats(), "empty chats are dropped")
}

func TestDocumentClear(t *testing.T) {
	doc := NewDocument()
	doc.Append("1", Entry{Time: "06:00", Type: KindNews})
	doc.Append("2", Entry{Time: "08:00", Type: KindBicho})
	doc.Append("1", Entry{Time: "09:00", Type: KindHoroscope})

	removed := doc.Clear("1")
	assert.Len(t, removed, 2)
	assert.Equal(t, []string{"2"}, doc.Chats())
	assert.Empty(t, doc.Clear("404"))
}

func TestDocumentEntriesIsACopy(t *testing.T) {
	doc := NewDocument()
	doc.Append("1", Entry{Time: "06:00", Type: KindNews})
	es := doc.Entries("1")
	es[0].Time = "23:00"
	assert.Equal(t, "06:00", doc.Entries("1")[0].Time)
}
