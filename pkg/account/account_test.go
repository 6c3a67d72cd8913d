package account

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-training/account-linker/pkg/backend"
	"github.com/go-training/account-linker/pkg/core"
	"github.com/go-training/account-linker/pkg/session"
	"github.com/go-training/account-linker/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBackend struct {
	*httptest.Server
	hits atomic.Int32
}

// expired reports whether r carries the "expired" credential, as a bearer
// token or as the session cookie.
func expired(r *http.Request) bool {
	if r.Header.Get("Authorization") == "Bearer expired" {
		return true
	}
	ck, err := r.Cookie(session.DefaultCookieName)
	return err == nil && ck.Value == "expired"
}

// newTestBackend serves the social endpoints. twitter is linked, linkedin
// is not, youtube fails, and any request with the "expired" credential is
// rejected.
func newTestBackend(t *testing.T) (*testBackend, *backend.Client) {
	t.Helper()
	tb := &testBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/social/account/{platform}", func(w http.ResponseWriter, r *http.Request) {
		tb.hits.Add(1)
		if expired(r) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Token expired"}`))
			return
		}
		switch r.PathValue("platform") {
		case "twitter":
			_, _ = w.Write([]byte(`{"platform":"twitter","profileName":"gopher","followersCount":1200,"lastSynced":"2024-05-01T10:00:00Z"}`))
		case "youtube":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"YouTube API unavailable"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Account not found"}`))
		}
	})
	mux.HandleFunc("POST /api/social/sync/{platform}", func(w http.ResponseWriter, r *http.Request) {
		tb.hits.Add(1)
		if expired(r) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Token expired"}`))
			return
		}
		if r.PathValue("platform") == "linkedin" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"message":"Sync started"}`))
	})
	tb.Server = httptest.NewServer(mux)
	t.Cleanup(tb.Close)

	client, err := backend.NewClient(tb.URL + "/api")
	require.NoError(t, err)
	return tb, client
}

func loggedIn(t *testing.T, token string) *session.Bearer {
	t.Helper()
	s := session.NewBearer(store.NewMemoryStore())
	require.NoError(t, s.SetToken(context.Background(), token))
	return s
}

func TestClient_FetchSnapshot(t *testing.T) {
	_, b := newTestBackend(t)
	c := NewClient(b, loggedIn(t, "valid"))

	snap, err := c.FetchSnapshot(context.Background(), "twitter")
	require.NoError(t, err)
	assert.Equal(t, &core.AccountSnapshot{
		Platform:       "twitter",
		ProfileName:    "gopher",
		FollowersCount: 1200,
		LastSyncedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}, snap)
}

func TestClient_Classification(t *testing.T) {
	tests := []struct {
		platform string
		token    string
		want     error
		status   string
	}{
		{platform: "linkedin", token: "valid", want: ErrNotConnected, status: StatusNotConnected},
		{platform: "twitter", token: "expired", want: ErrUnauthenticated, status: StatusUnauthenticated},
		{platform: "youtube", token: "valid", status: StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			_, b := newTestBackend(t)
			c := NewClient(b, loggedIn(t, tt.token))

			_, err := c.FetchSnapshot(context.Background(), tt.platform)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, tt.status, Classify(err))
		})
	}
}

func TestClient_TransientError(t *testing.T) {
	_, b := newTestBackend(t)
	c := NewClient(b, loggedIn(t, "valid"))

	_, err := c.FetchSnapshot(context.Background(), "youtube")

	var tErr *TransientFetchError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, http.StatusBadGateway, tErr.Status)
	assert.Equal(t, "YouTube API unavailable", tErr.Message)
}

func cookieLoggedIn(t *testing.T, b *backend.Client, value string) *session.Cookie {
	t.Helper()
	s := session.NewCookie(store.NewMemoryStore(), b, "")
	require.NoError(t, s.Capture(context.Background(), &backend.Response{
		StatusCode: http.StatusOK,
		Cookies:    []*http.Cookie{{Name: session.DefaultCookieName, Value: value}},
	}))
	require.True(t, s.IsAuthenticated(context.Background()))
	return s
}

func TestClient_UnauthorizedForgetsSession(t *testing.T) {
	_, b := newTestBackend(t)

	calls := map[string]func(c *Client, ctx context.Context) error{
		"FetchSnapshot": func(c *Client, ctx context.Context) error {
			_, err := c.FetchSnapshot(ctx, "twitter")
			return err
		},
		"TriggerSync": func(c *Client, ctx context.Context) error {
			_, err := c.TriggerSync(ctx, "twitter")
			return err
		},
	}
	sessions := map[string]func(t *testing.T) session.Store{
		"bearer": func(t *testing.T) session.Store { return loggedIn(t, "expired") },
		"cookie": func(t *testing.T) session.Store { return cookieLoggedIn(t, b, "expired") },
	}

	for callName, call := range calls {
		for scheme, newSession := range sessions {
			t.Run(callName+"/"+scheme, func(t *testing.T) {
				ctx := context.Background()
				s := newSession(t)
				c := NewClient(b, s)

				err := call(c, ctx)
				assert.ErrorIs(t, err, ErrUnauthenticated)
				assert.Equal(t, StatusUnauthenticated, Classify(err))
				assert.False(t, s.IsAuthenticated(ctx))

				// The forgotten session short-circuits the next call.
				assert.ErrorIs(t, call(c, ctx), ErrLoginRequired)
			})
		}
	}
}

func TestClient_LoginRequiredMakesNoRequest(t *testing.T) {
	ctx := context.Background()
	tb, b := newTestBackend(t)
	c := NewClient(b, session.NewCookie(store.NewMemoryStore(), b, ""))

	_, err := c.FetchSnapshot(ctx, "twitter")
	assert.ErrorIs(t, err, ErrLoginRequired)

	_, err = c.TriggerSync(ctx, "twitter")
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Equal(t, "please login", err.Error())

	assert.Zero(t, tb.hits.Load())
}

func TestClient_TriggerSync(t *testing.T) {
	ctx := context.Background()
	_, b := newTestBackend(t)
	c := NewClient(b, loggedIn(t, "valid"))

	ack, err := c.TriggerSync(ctx, "Twitter")
	require.NoError(t, err)
	assert.Equal(t, "twitter", ack.Platform)
	assert.Equal(t, "Sync started", ack.Message)

	_, err = c.TriggerSync(ctx, "linkedin")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestBoard_Load(t *testing.T) {
	_, b := newTestBackend(t)
	c := NewClient(b, loggedIn(t, "valid"))
	board := NewBoard(store.NewMemoryStore(), "twitter", "linkedin", "youtube")

	_, err := board.Refresh(context.Background())
	require.NoError(t, err)
	ov, err := board.Load(context.Background(), c)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ov.Generation)
	require.Len(t, ov.Probes, 3)

	p, ok := ov.Probe("twitter")
	require.True(t, ok)
	assert.Equal(t, StatusConnected, p.Status)
	assert.Equal(t, "gopher", p.Snapshot.ProfileName)

	p, _ = ov.Probe("linkedin")
	assert.Equal(t, StatusNotConnected, p.Status)
	assert.Empty(t, p.Error)

	p, _ = ov.Probe("youtube")
	assert.Equal(t, StatusFailed, p.Status)
	assert.Contains(t, p.Error, "YouTube API unavailable")

	_, ok = ov.Probe("snapchat")
	assert.False(t, ok)
}

func TestBoard_LoginRequired(t *testing.T) {
	tb, b := newTestBackend(t)
	c := NewClient(b, session.NewBearer(store.NewMemoryStore()))

	ov, err := NewBoard(store.NewMemoryStore(), "twitter", "facebook").Load(context.Background(), c)
	require.NoError(t, err)
	for _, p := range ov.Probes {
		assert.Equal(t, StatusLoginRequired, p.Status)
	}
	assert.Zero(t, tb.hits.Load())
}

func TestBoard_Generation(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	board := NewBoard(mem, core.PlatformTwitter)

	gen, err := board.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, gen)
	assert.Zero(t, mem.Len(), "reading does not create state")

	gen, err = board.Refresh(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, gen)
	gen, err = board.Refresh(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, gen)

	// A board rebuilt over the same store sees the same generation.
	gen, err = NewBoard(mem, core.PlatformTwitter).Generation(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, gen)
	assert.Equal(t, []string{"twitter"}, board.Platforms())
}

func TestBoard_CorruptGeneration(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	require.NoError(t, mem.Put(ctx, generationKey, "nope"))

	_, err := NewBoard(mem).Refresh(ctx)
	assert.Error(t, err)
}

func TestBoard_CancelledContext(t *testing.T) {
	_, b := newTestBackend(t)
	c := NewClient(b, loggedIn(t, "valid"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBoard(store.NewMemoryStore(), "twitter").Load(ctx, c)
	assert.ErrorIs(t, err, context.Canceled)
}
