package verification

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"4045550100", "+14045550100", true},
		{"(404) 555-0100", "+14045550100", true},
		{"+44 20 7946 0958", "+442079460958", true},
		{"+0123", "", false},
		{"404-555-01OO", "", false},
		{"", "", false},
		{"12+34", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.raw, "+1")
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidPhone, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got)
	}
}

func TestRedisVerifier(t *testing.T) {
	t.Run("Should accept the issued code once", func(t *testing.T) {
		mr, client := newRedis(t)
		v := NewRedisVerifier(client, time.Minute, zap.NewNop())
		ctx := context.Background()
		require.NoError(t, v.SendCode(ctx, "+14045550100"))

		code, err := mr.Get("verify:code:+14045550100")
		require.NoError(t, err)
		assert.Len(t, code, 6)

		ok, err := v.CheckCode(ctx, "+14045550100", code)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = v.CheckCode(ctx, "+14045550100", code)
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("Should reject a wrong code without consuming", func(t *testing.T) {
		mr, client := newRedis(t)
		v := NewRedisVerifier(client, time.Minute, zap.NewNop())
		ctx := context.Background()
		require.NoError(t, mr.Set("verify:code:+14045550100", "123456"))

		ok, err := v.CheckCode(ctx, "+14045550100", "654321")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, mr.Exists("verify:code:+14045550100"))
	})
	t.Run("Should expire codes", func(t *testing.T) {
		mr, client := newRedis(t)
		v := NewRedisVerifier(client, time.Minute, zap.NewNop())
		ctx := context.Background()
		require.NoError(t, v.SendCode(ctx, "+14045550100"))
		code, err := mr.Get("verify:code:+14045550100")
		require.NoError(t, err)
		mr.FastForward(2 * time.Minute)

		ok, err := v.CheckCode(ctx, "+14045550100", code)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestLimiter(t *testing.T) {
	t.Run("Should enforce the cooldown", func(t *testing.T) {
		mr, client := newRedis(t)
		l := NewLimiter(client, time.Hour, 5, 30*time.Second)
		ctx := context.Background()
		require.NoError(t, l.Allow(ctx, "+1"))

		err := l.Allow(ctx, "+1")
		var rl *RateLimitError
		require.True(t, errors.As(err, &rl))
		assert.False(t, rl.Blocked)

		mr.FastForward(31 * time.Second)
		assert.NoError(t, l.Allow(ctx, "+1"))
	})
	t.Run("Should block after the window budget", func(t *testing.T) {
		mr, client := newRedis(t)
		l := NewLimiter(client, time.Hour, 2, time.Second)
		ctx := context.Background()
		for i := 0; i < 2; i++ {
			require.NoError(t, l.Allow(ctx, "+1"))
			mr.FastForward(2 * time.Second)
		}
		err := l.Allow(ctx, "+1")
		var rl *RateLimitError
		require.True(t, errors.As(err, &rl))
		assert.True(t, rl.Blocked)
		assert.Equal(t, 3*time.Hour, rl.RetryAfter)
		assert.Contains(t, rl.Error(), "too many")

		mr.FastForward(2 * time.Second)
		err = l.Allow(ctx, "+1")
		require.True(t, errors.As(err, &rl))
		assert.True(t, rl.Blocked)
	})
	t.Run("Should track phones independently", func(t *testing.T) {
		_, client := newRedis(t)
		l := NewLimiter(client, time.Hour, 5, time.Minute)
		ctx := context.Background()
		require.NoError(t, l.Allow(ctx, "+1"))
		assert.NoError(t, l.Allow(ctx, "+2"))
	})
}

func TestTwilioVerifier(t *testing.T) {
	newServer := func(t *testing.T, handler http.HandlerFunc) *TwilioVerifier {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		return NewTwilioVerifier(TwilioConfig{BaseURL: srv.URL, AccountSID: "AC1", AuthToken: "tok", ServiceSID: "VA1"})
	}

	t.Run("Should start an sms verification", func(t *testing.T) {
		v := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/Services/VA1/Verifications", r.URL.Path)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "AC1", user)
			assert.Equal(t, "tok", pass)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "+14045550100", r.PostForm.Get("To"))
			assert.Equal(t, "sms", r.PostForm.Get("Channel"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"sid":"VE1","status":"pending"}`))
		})
		assert.NoError(t, v.SendCode(context.Background(), "+14045550100"))
	})
	t.Run("Should surface provider errors on send", func(t *testing.T) {
		v := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":60200,"message":"Invalid parameter","status":400}`))
		})
		err := v.SendCode(context.Background(), "+1")
		assert.ErrorContains(t, err, "Invalid parameter")
	})
	t.Run("Should approve matching codes", func(t *testing.T) {
		v := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/Services/VA1/VerificationCheck", r.URL.Path)
			require.NoError(t, r.ParseForm())
			status := "pending"
			if r.PostForm.Get("Code") == "123456" {
				status = "approved"
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"sid":"VE1","status":"` + status + `"}`))
		})
		ok, err := v.CheckCode(context.Background(), "+14045550100", "123456")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = v.CheckCode(context.Background(), "+14045550100", "000000")
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("Should treat a missing verification as a mismatch", func(t *testing.T) {
		v := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":20404,"message":"not found","status":404}`))
		})
		ok, err := v.CheckCode(context.Background(), "+14045550100", "123456")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
