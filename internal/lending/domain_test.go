package lending

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBookFormValidate(t *testing.T) {
	tests := []struct {
		name string
		form BookForm
		want error
	}{
		{"complete", BookForm{Title: "Dune", Condition: "good"}, nil},
		{"missing title", BookForm{Condition: "good"}, ErrMissingFields},
		{"blank title", BookForm{Title: "   ", Condition: "good"}, ErrMissingFields},
		{"missing condition", BookForm{Title: "Dune"}, ErrMissingFields},
		{"author and genre optional", BookForm{Title: "Dune", Condition: "worn", Author: "", Genre: ""}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.form.Validate())
		})
	}
}

func TestBookFormNormalizeThumbnail(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		blank := rapid.StringMatching(`[ \t]*`).Draw(t, "blank")
		form := BookForm{Title: "t", Condition: "c", Thumbnail: blank}.Normalize()
		if form.Thumbnail != DefaultThumbnail {
			t.Fatalf("thumbnail %q, want %q", form.Thumbnail, DefaultThumbnail)
		}
	})

	kept := BookForm{Thumbnail: "cover.jpg"}.Normalize()
	assert.Equal(t, "cover.jpg", kept.Thumbnail)
}

func TestBookFormFieldsOrder(t *testing.T) {
	f := BookForm{Title: "a", Author: "b", Genre: "c", Condition: "d", Thumbnail: "e"}
	assert.Equal(t, [][2]string{
		{"title", "a"}, {"author", "b"}, {"genre", "c"}, {"condition", "d"}, {"thumbnail", "e"},
	}, f.Fields())
}

func TestTimestampNaiveKeepsWallClock(t *testing.T) {
	var m ChatMessage
	require.NoError(t, json.Unmarshal([]byte(`{"sender":"ann","message":"hi","created_at":"2024-03-01T14:05:09.123456"}`), &m))

	require.True(t, m.CreatedAt.Naive)
	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, "14:05", m.CreatedAt.In(tokyo).Format("15:04"))
}

func TestTimestampWithZoneConverts(t *testing.T) {
	ts, err := ParseTimestamp("2024-03-01T14:05:00Z")
	require.NoError(t, err)
	assert.False(t, ts.Naive)

	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, "23:05", ts.In(tokyo).Format("15:04"))
}

func TestTimestampEmptyAndNull(t *testing.T) {
	for _, raw := range []string{`null`, `""`} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts))
		assert.True(t, ts.IsZero(), raw)
	}

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.True(t, ts.IsZero())
	assert.True(t, ts.Invalid())
	assert.Equal(t, "yesterday", ts.Raw)
}

func TestChatDecodesDespiteBadTimestamp(t *testing.T) {
	var messages []ChatMessage
	body := `[{"id":1,"sender":"ann","message":"hi","created_at":"2024-03-01T14:05:09"},
		{"id":2,"sender":"bob","message":"yo","created_at":"2024-03-01T14:05:09+0000"}]`
	require.NoError(t, json.Unmarshal([]byte(body), &messages))

	require.Len(t, messages, 2)
	assert.False(t, messages[0].CreatedAt.Invalid())
	assert.True(t, messages[1].CreatedAt.Invalid())
	assert.Equal(t, "yo", messages[1].Message)
}

func TestTimestampRoundTripsNaive(t *testing.T) {
	ts, err := ParseTimestamp("2024-03-01 08:30:00")
	require.NoError(t, err)

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-03-01T08:30:00"`, string(data))
}
