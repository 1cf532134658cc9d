package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionID = "chat-42"

func TestParseUpdate(t *testing.T) {
	t.Run("document", func(t *testing.T) {
		data := []byte(`{"id":"upd-1","session_id":"chat-42","kind":"document","file_name":"wind.csv","document":"aGVsbG8="}`)
		upd, err := ParseUpdate(RawEvent{Value: data})

		require.NoError(t, err)
		assert.Equal(t, UpdateDocument, upd.Kind)
		assert.Equal(t, "wind.csv", upd.FileName)
		assert.Equal(t, []byte("hello"), upd.Document)
	})

	t.Run("command with mention", func(t *testing.T) {
		data := []byte(`{"id":"upd-2","session_id":"chat-42","kind":"command","command":" /Build_Windrose@meteo_bot now"}`)
		upd, err := ParseUpdate(RawEvent{Value: data})

		require.NoError(t, err)
		assert.Equal(t, "/build_windrose", upd.Command)
	})

	t.Run("session from key", func(t *testing.T) {
		data := []byte(`{"id":"upd-3","kind":"command","command":"/start"}`)
		upd, err := ParseUpdate(RawEvent{Key: []byte(testSessionID), Value: data})

		require.NoError(t, err)
		assert.Equal(t, testSessionID, upd.SessionID)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := ParseUpdate(RawEvent{Value: []byte(`{"id":"upd-4","kind":"command"}`)})
		assert.ErrorContains(t, err, "session")
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := ParseUpdate(RawEvent{Value: []byte(`{"session_id":"1","kind":"sticker"}`)})
		assert.ErrorContains(t, err, "sticker")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseUpdate(RawEvent{Value: []byte("{invalid json")})
		assert.Error(t, err)
	})
}

func TestNewReply_Deterministic(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.January, 31, 21, 0, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	upd := Update{ID: "upd-1", SessionID: testSessionID, Kind: UpdateCommand}
	a := NewReply(upd, 0, ReplyText)
	b := NewReply(upd, 0, ReplyText)
	c := NewReply(upd, 1, ReplyText)

	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.True(t, strings.HasPrefix(a.ID, "text-"))
	assert.Equal(t, fakeClock.Now(), a.ProcessedAt)
	assert.Equal(t, "upd-1", a.InReplyTo)
}

func TestSerializeReply(t *testing.T) {
	now := time.Date(2024, time.January, 31, 21, 0, 0, 0, time.UTC)
	reply := Reply{
		ID:          "photo-1",
		SessionID:   testSessionID,
		Kind:        ReplyPhoto,
		Photo:       []byte{0x89, 'P', 'N', 'G'},
		Caption:     "Диаграмма направлений ветра",
		ProcessedAt: now,
	}

	out, err := SerializeReply(reply)
	require.NoError(t, err)
	assert.Equal(t, []byte(testSessionID), out.Key)
	assert.Equal(t, "photo", out.Headers["reply_kind"])
	assert.Equal(t, now.Format(time.RFC3339), out.Headers["processed_at"])

	var roundtrip Reply
	require.NoError(t, json.Unmarshal(out.Value, &roundtrip))
	if diff := cmp.Diff(reply, roundtrip); diff != "" {
		t.Fatalf("roundtrip mismatch (-want +got):\n%s", diff)
	}
}
