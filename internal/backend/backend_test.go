package backend_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/matchmate/internal/backend"
	"github.com/spigell/matchmate/internal/backend/backendtest"
	"github.com/spigell/matchmate/internal/filtering"
)

func alice() backend.Profile {
	return backend.Profile{
		Name:              "Alice",
		Age:               28,
		Sex:               "Female",
		Openness:          4,
		Conscientiousness: 3,
		Extraversion:      5,
		Agreeableness:     4,
		Neuroticism:       2,
		Hobbies:           []string{"Reading", "Music"},
		Smoking:           backend.HabitNo,
		Drinking:          backend.HabitNo,
		Password:          "secret",
	}
}

func newClient(t *testing.T, srv *backendtest.Server, token string) *backend.Client {
	t.Helper()
	c := backend.New(context.Background(), zap.NewNop(), token)
	c.APIURL = srv.URL
	return c
}

func TestRegisterAndLogin(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	c := newClient(t, srv, "")
	p := alice()

	require.NoError(t, c.Register(&p))

	token, err := c.Login(backend.Credentials{Name: "Alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, srv.Token, token.AccessToken)

	calls := srv.CallsTo("/register")
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Authorization, "anonymous client must not send a bearer header")
	assert.NotEmpty(t, calls[0].RequestID)
}

func TestRegisterRejectsInvalidProfileWithoutCall(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	c := newClient(t, srv, "")
	p := alice()
	p.Age = 150

	err := c.Register(&p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Age")
	assert.Empty(t, srv.Calls())
}

func TestLoginInvalidCredentialsSurfacesDetail(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	c := newClient(t, srv, "")
	_, err := c.Login(backend.Credentials{Name: "nobody", Password: "x"})
	require.Error(t, err)

	var apiErr *backend.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", backend.Message(err, "Login failed"))
}

func TestBearerTokenAttachedToEveryCall(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()
	srv.AddUser(alice())
	srv.SetMatches("Alice", []backend.MatchEntry{{Name: "Bob", Score: 91}})

	c := newClient(t, srv, "abc")

	_, err := c.GetProfile("Alice")
	require.NoError(t, err)
	_, err = c.GetMatches("Alice")
	require.NoError(t, err)
	_, err = c.CompareAndStore(backend.NewComparisonPayload(alice(), alice()))
	require.NoError(t, err)

	calls := srv.Calls()
	require.Len(t, calls, 3)
	for _, call := range calls {
		assert.Equal(t, "Bearer abc", call.Authorization, call.Path)
	}
}

func TestGetProfileDropsPassword(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()
	srv.AddUser(alice())

	c := newClient(t, srv, "abc")
	p, err := c.GetProfile("Alice")
	require.NoError(t, err)
	assert.Empty(t, p.Password)
	assert.Equal(t, []string{"Reading", "Music"}, p.Hobbies)
}

func TestGetProfileEscapesName(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()
	p := alice()
	p.Name = "Ann Lee"
	srv.AddUser(p)

	c := newClient(t, srv, "abc")
	got, err := c.GetProfile("Ann Lee")
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", got.Name)
	assert.Equal(t, "/profile/Ann%20Lee", srv.Calls()[0].Path)
}

func TestGetMatchesKeepsBackendOrder(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()
	srv.SetMatches("Alice", []backend.MatchEntry{
		{Name: "Carol", Score: 40},
		{Name: "Bob", Score: 95.5},
		{Name: "Dan", Score: 70},
	})

	c := newClient(t, srv, "abc")
	matches, err := c.GetMatches("Alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Carol", "Bob", "Dan"}, matches.Names())
	assert.InDelta(t, 95.5, matches.FindByName("Bob").Score, 1e-9)
}

func TestGetMatchesEmpty(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()
	srv.SetMatches("Alice", nil)

	c := newClient(t, srv, "abc")
	matches, err := c.GetMatches("Alice")
	require.NoError(t, err)
	assert.Equal(t, 0, matches.Len())
}

func TestCompareAndStoreStripsPasswords(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()
	srv.SetScore(0.85)

	c := newClient(t, srv, "abc")
	score, err := c.CompareAndStore(backend.ComparisonPayload{Profile1: alice(), Profile2: alice()})
	require.NoError(t, err)
	assert.InDelta(t, 0.85, score, 1e-9)

	body := srv.CallsTo("/compare-and-store")[0].Body
	assert.NotContains(t, string(body), "password")
}

func TestCompareAndStoreErrorDetail(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()
	srv.Fail("/compare-and-store", http.StatusBadGateway, `{"detail":"ml service unavailable"}`)

	c := newClient(t, srv, "abc")
	_, err := c.CompareAndStore(backend.NewComparisonPayload(alice(), alice()))
	require.Error(t, err)
	assert.Equal(t, "ml service unavailable", backend.Message(err, "Comparison failed"))
}

func TestMessageFallsBackOnTransportError(t *testing.T) {
	c := backend.New(context.Background(), nil, "")
	c.APIURL = "http://127.0.0.1:1"

	_, err := c.GetMatches("Alice")
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch matches", backend.Message(err, "Failed to fetch matches"))
}

func TestLegacyMessageField(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	c := newClient(t, srv, "abc")
	_, err := c.GetMyProfile()
	require.Error(t, err)
	assert.Equal(t, "profile not found", backend.Message(err, "Profile API error"))

	saved, err := c.CreateProfile(&backend.ProfileDetails{Age: 30, Gender: "male", Smoking: backend.HabitNo})
	require.NoError(t, err)
	assert.Equal(t, 30, saved.Age)

	saved, err = c.UpdateProfile(&backend.ProfileDetails{Age: 31, Gender: "male"})
	require.NoError(t, err)
	assert.Equal(t, 31, saved.Age)

	got, err := c.GetMyProfile()
	require.NoError(t, err)
	assert.Equal(t, 31, got.Age)
}

func TestSignup(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	c := newClient(t, srv, "")
	resp, err := c.Signup(backend.SignupRequest{Name: "Alice", Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, srv.Token, resp.Token)
	assert.Equal(t, "a@example.com", resp.User.Email)

	_, err = c.Signup(backend.SignupRequest{Name: "Alice"})
	require.Error(t, err)
}

func TestGzipResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_ = json.NewEncoder(zw).Encode([]backend.MatchEntry{{Name: "Bob", Score: 80}})
		_ = zw.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(buf.Bytes())
	}))
	defer ts.Close()

	c := backend.New(context.Background(), zap.NewNop(), "abc")
	c.APIURL = ts.URL

	matches, err := c.GetMatches("Alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, matches.Names())
}

func TestMatchesExcludePreservesOrder(t *testing.T) {
	m := &backend.Matches{Items: []*backend.MatchEntry{
		{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"},
	}}

	removed := m.Exclude([]string{"b", "zzz"})
	assert.Equal(t, []string{"b"}, removed)
	assert.Equal(t, []string{"a", "c", "d"}, m.Names())
}

func TestGetMatchesDropsNullItems(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[null, {"name":"bob","score":70}, null, {"name":"alice","score":90}]`))
	}))
	defer ts.Close()

	core, observed := observer.New(zapcore.WarnLevel)
	c := backend.New(context.Background(), zap.New(core), "abc")
	c.APIURL = ts.URL

	matches, err := c.GetMatches("alice")
	require.NoError(t, err)
	assert.Equal(t, 2, matches.Len())
	assert.Equal(t, []string{"bob", "alice"}, matches.Names())

	logs := observed.FilterMessage("dropped empty match entries").All()
	require.Len(t, logs, 1)
	assert.EqualValues(t, 2, logs[0].ContextMap()["dropped"])

	filtered, err := filtering.Run(context.Background(), &filtering.Config{}, filtering.Deps{Username: "alice"}, filtering.Defaults(), matches)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, filtered.Names())
}

func TestMatchesToleratesNilEntries(t *testing.T) {
	m := &backend.Matches{Items: []*backend.MatchEntry{nil, {Name: "a"}, nil, {Name: "b"}}}

	assert.Equal(t, []string{"a", "b"}, m.Names())
	assert.Nil(t, m.FindByName(""))

	removed := m.Exclude([]string{"a"})
	assert.Equal(t, []string{"a"}, removed)
	assert.Equal(t, []*backend.MatchEntry{{Name: "b"}}, m.Items)
}
