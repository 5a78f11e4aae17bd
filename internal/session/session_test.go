package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func signed(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := &FileStore{Path: path}
	ctx := context.Background()

	empty, err := store.Load(ctx)
	if err != nil || empty.LoggedIn() {
		t.Fatalf("missing file must load as logged out, got %+v, %v", empty, err)
	}

	if err := store.Save(ctx, Session{Username: "alice", Token: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("session file must be private, got %v", info.Mode().Perm())
	}

	raw, _ := os.ReadFile(path)
	var values map[string]string
	if err := json.Unmarshal(raw, &values); err != nil {
		t.Fatalf("session file is not json: %v", err)
	}
	if values["access_token"] != "tok" || values["user"] != "alice" {
		t.Fatalf("unexpected stored keys: %v", values)
	}

	loaded, err := store.Load(ctx)
	if err != nil || loaded != (Session{Username: "alice", Token: "tok"}) {
		t.Fatalf("unexpected session %+v, %v", loaded, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear must be a no-op: %v", err)
	}
}

func TestServiceLoginLogoutSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := &FileStore{Path: filepath.Join(t.TempDir(), "session.json")}
	token := signed(t, "alice", time.Now().Add(4*time.Hour))

	svc := NewService(store, zap.NewNop())
	if err := svc.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := svc.Require(); err != ErrNotLoggedIn {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}

	if err := svc.Login(ctx, "alice", token); err != nil {
		t.Fatalf("login: %v", err)
	}

	restarted := NewService(store, zap.NewNop())
	if err := restarted.Init(ctx); err != nil {
		t.Fatalf("init after restart: %v", err)
	}
	current, err := restarted.Require()
	if err != nil {
		t.Fatalf("session must survive a restart: %v", err)
	}
	if current.Username != "alice" || current.Subject() != "alice" {
		t.Fatalf("unexpected session %+v", current)
	}

	if err := restarted.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if restarted.Current().LoggedIn() {
		t.Fatalf("logout must clear the session")
	}

	again := NewService(store, nil)
	_ = again.Init(ctx)
	if again.Current().LoggedIn() {
		t.Fatalf("logout must clear the durable store")
	}
}

func TestServiceDropsExpiredSession(t *testing.T) {
	ctx := context.Background()
	store := &FileStore{Path: filepath.Join(t.TempDir(), "session.json")}
	expired := signed(t, "bob", time.Now().Add(-time.Minute))
	if err := store.Save(ctx, Session{Username: "bob", Token: expired}); err != nil {
		t.Fatalf("save: %v", err)
	}

	core, observed := observer.New(zapcore.InfoLevel)
	svc := NewService(store, zap.New(core))
	if err := svc.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if svc.Current().LoggedIn() {
		t.Fatalf("expired session must not be restored")
	}
	if observed.FilterMessage("stored session expired").Len() != 1 {
		t.Fatalf("expected expiry to be logged")
	}
	if _, err := os.Stat(store.Path); !os.IsNotExist(err) {
		t.Fatalf("expired session must be removed from disk")
	}
}

func TestServiceKeepsOpaqueToken(t *testing.T) {
	ctx := context.Background()
	store := &FileStore{Path: filepath.Join(t.TempDir(), "session.json")}
	_ = store.Save(ctx, Session{Username: "carol", Token: "not-a-jwt"})

	svc := NewService(store, nil)
	if err := svc.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !svc.Current().LoggedIn() {
		t.Fatalf("tokens without readable claims are kept as is")
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&FileStore{Path: filepath.Join(t.TempDir(), "session.json")}, nil)

	var seen []Session
	cancel := svc.Subscribe(func(s Session) { seen = append(seen, s) })

	_ = svc.Login(ctx, "alice", "tok")
	_ = svc.Logout(ctx)
	cancel()
	_ = svc.Login(ctx, "bob", "tok")

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if seen[0].Username != "alice" || seen[1].LoggedIn() {
		t.Fatalf("unexpected notifications %+v", seen)
	}
}

func TestLoginValidation(t *testing.T) {
	svc := NewService(&FileStore{Path: filepath.Join(t.TempDir(), "session.json")}, nil)
	if err := svc.Login(context.Background(), " ", "tok"); err == nil {
		t.Fatalf("expected error for empty username")
	}
}

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, err := Session{Token: signed(t, "a", exp)}.ExpiresAt()
	if err != nil || !got.Equal(exp) {
		t.Fatalf("expected %v, got %v (%v)", exp, got, err)
	}

	got, err = Session{Token: signed(t, "a", time.Time{})}.ExpiresAt()
	if err != nil || !got.IsZero() {
		t.Fatalf("token without exp must return zero time, got %v (%v)", got, err)
	}

	if _, err := (Session{}).ExpiresAt(); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer client.Close()

	store := NewRedisStore(client, "")
	if store.key(KeyToken) != "matchmate:session:access_token" {
		t.Fatalf("unexpected key %q", store.key(KeyToken))
	}

	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected error from unreachable redis")
	}
}
