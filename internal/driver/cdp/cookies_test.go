// internal/driver/cdp/cookies_test.go
package cdp

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCookie(t *testing.T) {
	t.Run("persistent cookie", func(t *testing.T) {
		got := toCookie(&network.Cookie{
			Name:     "sid",
			Value:    "abc",
			Domain:   ".example.com",
			Path:     "/",
			Expires:  1700000000.5,
			HTTPOnly: true,
			Secure:   true,
			SameSite: network.CookieSameSiteLax,
		})

		assert.Equal(t, "sid", got.Name)
		assert.Equal(t, "abc", got.Value)
		assert.Equal(t, ".example.com", got.Domain)
		assert.True(t, got.HTTPOnly)
		assert.True(t, got.Secure)
		assert.Equal(t, "Lax", got.SameSite)
		assert.Equal(t, time.Unix(1700000000, 500000000).UTC(), got.Expires)
		assert.Equal(t, "sid=abc", got.String())
	})

	t.Run("session cookie", func(t *testing.T) {
		got := toCookie(&network.Cookie{Name: "tmp", Value: "1", Expires: -1, Session: true})
		assert.True(t, got.Expires.IsZero())
	})
}

func TestDeleteActions(t *testing.T) {
	visible := []*network.Cookie{
		{Name: "sid", Domain: ".example.com", Path: "/"},
		{Name: "pref", Domain: "example.com", Path: "/app"},
		{Name: "sid", Domain: "auth.example.com", Path: "/login"},
	}

	t.Run("all cookies of the page, each in its own scope", func(t *testing.T) {
		actions := deleteActions(visible, func(*network.Cookie) bool { return true })
		require.Len(t, actions, 3)
		for i, a := range actions {
			p, ok := a.(*network.DeleteCookiesParams)
			require.True(t, ok)
			assert.Equal(t, visible[i].Name, p.Name)
			assert.Equal(t, visible[i].Domain, p.Domain)
			assert.Equal(t, visible[i].Path, p.Path)
		}
	})

	t.Run("by name", func(t *testing.T) {
		actions := deleteActions(visible, func(c *network.Cookie) bool { return c.Name == "sid" })
		assert.Len(t, actions, 2)
	})

	t.Run("nothing visible", func(t *testing.T) {
		assert.Empty(t, deleteActions(nil, func(*network.Cookie) bool { return true }))
	})
}
