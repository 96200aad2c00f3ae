package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"streamchat/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestSettings_DefaultAndRoundTrip(t *testing.T) {
	_, rdb := setupRedis(t)
	s := NewStorageService(nil, rdb)

	got, err := s.GetSettings("s1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultChatSettings(), got)

	want := models.ChatSettings{IsChatEnabled: false, MaxMessageLength: 120, RateLimit: 3, IsPrivateMode: true}
	require.NoError(t, s.SaveSettings("s1", want))

	got, err = s.GetSettings("s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	other, err := s.GetSettings("s2")
	require.NoError(t, err)
	assert.True(t, other.IsChatEnabled)
}

func TestSettings_CorruptValueFallsBackToDefaults(t *testing.T) {
	mr, rdb := setupRedis(t)
	s := NewStorageService(nil, rdb)
	require.NoError(t, mr.Set("chat:settings:s1", "{not json"))

	got, err := s.GetSettings("s1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultChatSettings(), got)
}

func TestPinned_SetAndClear(t *testing.T) {
	mr, rdb := setupRedis(t)
	s := NewStorageService(nil, rdb)

	pinned, err := s.GetPinned("s1")
	require.NoError(t, err)
	assert.Nil(t, pinned)

	msg := &models.ChatMessage{ID: "m1", UserID: "u1", Message: "welcome"}
	require.NoError(t, s.SetPinned("s1", msg))
	assert.True(t, mr.Exists("chat:pinned:s1"))

	pinned, err = s.GetPinned("s1")
	require.NoError(t, err)
	require.NotNil(t, pinned)
	assert.Equal(t, "welcome", pinned.Message)

	require.NoError(t, s.SetPinned("s1", nil))
	assert.False(t, mr.Exists("chat:pinned:s1"))
}

func TestPublishRoomEvent_ReachesSubscriber(t *testing.T) {
	_, rdb := setupRedis(t)
	s := NewStorageService(nil, rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := s.SubscribeRoomEvents(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	data, _ := json.Marshal(models.MessageDeletedPayload{MessageID: "m1", StreamID: "s1"})
	require.NoError(t, s.PublishRoomEvent(models.RoomEvent{StreamID: "s1", Event: models.EventMessageDeleted, Data: data}))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, RoomEventsChannel, msg.Channel)
		var ev models.RoomEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, "s1", ev.StreamID)
		assert.Equal(t, models.EventMessageDeleted, ev.Event)
		assert.JSONEq(t, `{"messageId":"m1","streamId":"s1"}`, string(ev.Data))
	case <-time.After(time.Second):
		t.Fatal("room event not delivered")
	}
}

func TestRedisKV(t *testing.T) {
	mr, rdb := setupRedis(t)
	kv := NewRedisKV(rdb, "streamchat:")
	ctx := context.Background()

	_, err := kv.Get(ctx, "authToken")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "authToken", "tok-1"))
	assert.True(t, mr.Exists("streamchat:authToken"))

	v, err := kv.Get(ctx, "authToken")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", v)

	require.NoError(t, kv.Delete(ctx, "authToken"))
	_, err = kv.Get(ctx, "authToken")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisKV_TTL(t *testing.T) {
	mr, rdb := setupRedis(t)
	kv := NewRedisKV(rdb, "")
	kv.TTL = time.Minute
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v"))
	mr.FastForward(2 * time.Minute)

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStreams_SaveAndGet(t *testing.T) {
	_, rdb := setupRedis(t)
	s := NewStorageService(nil, rdb)

	_, err := s.GetStream("s1")
	assert.ErrorIs(t, err, ErrStreamNotFound)

	started := "2026-10-16T12:01:00Z"
	rec := &models.StreamRecord{ID: "s1", Title: "Launch", TPStatus: "STREAMING", ActualStartTime: &started}
	require.NoError(t, s.SaveStream(rec))

	got, err := s.GetStream("s1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	assert.Error(t, s.SaveStream(&models.StreamRecord{}))
}
