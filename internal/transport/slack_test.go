package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

func TestPostAsPersona(t *testing.T) {
	t.Run("posts with persona identity and thread", func(t *testing.T) {
		var got postMessageRequest
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			fmt.Fprint(w, `{"ok":true,"channel":"C1","ts":"1700000000.000100"}`)
		}))
		defer srv.Close()

		c, err := NewSlackClient("xoxb-test", zerolog.Nop(), WithAPIBase(srv.URL))
		require.NoError(t, err)

		p := &discussion.Persona{ID: "p1", Name: "Marcus", Role: "senior security reviewer"}
		ts, err := c.PostAsPersona(context.Background(), "C1", "1690000000.000001", "looks risky", p)
		require.NoError(t, err)

		assert.Equal(t, "1700000000.000100", ts)
		assert.Equal(t, "Bearer xoxb-test", auth)
		assert.Equal(t, "C1", got.Channel)
		assert.Equal(t, "looks risky", got.Text)
		assert.Equal(t, "1690000000.000001", got.ThreadTS)
		assert.Equal(t, "Marcus", got.Username)
		assert.Equal(t, ":shield:", got.IconEmoji)
	})

	t.Run("unthreaded post omits thread_ts", func(t *testing.T) {
		var raw map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
			fmt.Fprint(w, `{"ok":true,"channel":"C1","ts":"1700000000.000200"}`)
		}))
		defer srv.Close()

		c, err := NewSlackClient("xoxb-test", zerolog.Nop(), WithAPIBase(srv.URL))
		require.NoError(t, err)

		_, err = c.PostAsPersona(context.Background(), "C1", "", "opening", nil)
		require.NoError(t, err)
		assert.NotContains(t, raw, "thread_ts")
	})

	t.Run("ok false surfaces the API error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":false,"error":"channel_not_found"}`)
		}))
		defer srv.Close()

		c, err := NewSlackClient("xoxb-test", zerolog.Nop(), WithAPIBase(srv.URL))
		require.NoError(t, err)

		_, err = c.PostAsPersona(context.Background(), "C-nope", "", "hello", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "channel_not_found")
	})

	t.Run("empty token is rejected at construction", func(t *testing.T) {
		_, err := NewSlackClient("", zerolog.Nop())
		assert.Error(t, err)
	})
}
