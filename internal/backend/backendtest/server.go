// Package backendtest provides an in-memory stand-in for the matchmaking backend.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/spigell/matchmate/internal/backend"
)

// Call is a request recorded by the server.
type Call struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          []byte
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	calls    []Call
	users    map[string]backend.Profile
	matches  map[string][]backend.MatchEntry
	details  *backend.ProfileDetails
	score    float64
	failures map[string]failure

	// Token is issued on every successful login.
	Token string
}

type failure struct {
	status int
	body   string
}

func New() *Server {
	s := &Server{
		users:    make(map[string]backend.Profile),
		matches:  make(map[string][]backend.MatchEntry),
		failures: make(map[string]failure),
		Token:    "test-token",
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/register", s.register)
	r.Post("/auth/login", s.login)
	r.Post("/auth/signup", s.signup)
	r.Get("/profile", s.getDetails)
	r.Post("/profile", s.putDetails)
	r.Put("/profile", s.putDetails)
	r.Get("/profile/{name}", s.getProfile)
	r.Get("/matches/{name}", s.getMatches)
	r.Post("/compare-and-store", s.compare)

	s.Server = httptest.NewServer(r)
	return s
}

// AddUser stores a profile as if it had been registered.
func (s *Server) AddUser(p backend.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[p.Name] = p
}

func (s *Server) SetMatches(name string, entries []backend.MatchEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[name] = entries
}

// SetScore sets the fraction returned by /compare-and-store.
func (s *Server) SetScore(score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.score = score
}

// Fail makes every request to path answer with status and the raw body.
func (s *Server) Fail(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, body: body}
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns recorded calls whose path equals path.
func (s *Server) CallsTo(path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:        r.Method,
			Path:          r.URL.EscapedPath(),
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Body:          body,
		})
		f, failing := s.failures[r.URL.Path]
		s.mu.Unlock()

		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var p backend.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[p.Name]; exists {
		writeDetail(w, http.StatusBadRequest, "User already exists")
		return
	}
	s.users[p.Name] = p
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds backend.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[creds.Name]
	if !ok || user.Password != creds.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, backend.Token{AccessToken: s.Token, TokenType: "bearer"})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req backend.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	var resp backend.SignupResponse
	resp.User.Name = req.Name
	resp.User.Email = req.Email
	resp.Token = s.Token
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[name]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	// Mirrors the backend leaking the stored hash.
	user.Password = "$2b$12$hash"
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) getDetails(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.details == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "profile not found"})
		return
	}
	writeJSON(w, http.StatusOK, s.details)
}

func (s *Server) putDetails(w http.ResponseWriter, r *http.Request) {
	var details backend.ProfileDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.details = &details
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) getMatches(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeDetail(w, http.StatusForbidden, "Not authenticated")
		return
	}

	name := chi.URLParam(r, "name")

	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.matches[name]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if entries == nil {
		entries = []backend.MatchEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	var payload backend.ComparisonPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"score":   s.score,
		"message": "Comparison stored successfully.",
	})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
