package resolver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

func setupStore(t *testing.T) *discussion.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := discussion.NewClient(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func seedDiscussion(t *testing.T, store *discussion.Client, id, ref string) {
	t.Helper()
	now := time.Now().UnixMilli()
	require.NoError(t, store.CreateDiscussion(context.Background(), &discussion.Discussion{
		ID:          id,
		ProjectPath: "/srv/app",
		TriggerType: discussion.TriggerPRReview,
		TriggerRef:  ref,
		Status:      discussion.StatusActive,
		CreatedAtMs: now,
		UpdatedAtMs: now,
	}))
}

func TestResolveDiscussionID(t *testing.T) {
	ctx := context.Background()

	t.Run("full UUID passes through when it exists", func(t *testing.T) {
		store := setupStore(t)
		id := "11111111-2222-3333-4444-555555555555"
		seedDiscussion(t, store, id, "1")

		got, err := ResolveDiscussionID(ctx, store, id)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("full UUID that does not exist is an error", func(t *testing.T) {
		store := setupStore(t)
		_, err := ResolveDiscussionID(ctx, store, "11111111-2222-3333-4444-555555555555")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("short prefix resolves a unique match", func(t *testing.T) {
		store := setupStore(t)
		id := "aaaaaaaa-1111-2222-3333-444444444444"
		seedDiscussion(t, store, id, "2")
		seedDiscussion(t, store, "bbbbbbbb-1111-2222-3333-444444444444", "3")

		got, err := ResolveDiscussionID(ctx, store, "aaaaaa")
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("too-short prefix is rejected", func(t *testing.T) {
		store := setupStore(t)
		_, err := ResolveDiscussionID(ctx, store, "abc")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 6 characters")
	})

	t.Run("no match yields NotFoundError", func(t *testing.T) {
		store := setupStore(t)
		_, err := ResolveDiscussionID(ctx, store, "cccccc")
		assert.True(t, IsNotFoundError(err))
	})

	t.Run("multiple matches yield AmbiguousError", func(t *testing.T) {
		store := setupStore(t)
		seedDiscussion(t, store, "dddddddd-1111-2222-3333-444444444444", "4")
		seedDiscussion(t, store, "dddddddd-5555-6666-7777-888888888888", "5")

		_, err := ResolveDiscussionID(ctx, store, "dddddd")
		require.True(t, IsAmbiguousError(err))

		amb := err.(*AmbiguousError)
		msg := FormatAmbiguousError(amb)
		assert.Contains(t, msg, "matches 2 discussions")
		assert.True(t, strings.Contains(msg, "dddddddd-1111"))
	})
}
