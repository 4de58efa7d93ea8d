// Package airtabletest runs an in-process stand-in for Airtable's OAuth and
// REST endpoints.
package airtabletest

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	ClientID    = "test-client"
	RedirectURI = "http://localhost:8000/auth/callback"
)

// TokenRequest is one call made to the token endpoint
type TokenRequest struct {
	Form      url.Values
	BasicUser string
}

// APIRequest is one call made to the REST API
type APIRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          []byte
}

// Server fakes Airtable. Codes are issued with IssueCode and checked against
// their PKCE challenge at the token endpoint.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	codes         map[string]string // code -> code_challenge
	refreshTokens map[string]bool
	accessTokens  map[string]bool
	issued        int
	records       int
	tokenRequests []TokenRequest
	apiRequests   []APIRequest
	tokenFailure  *failure
	apiFailure    *failure
	tokenDelay    time.Duration
	omitRefresh   bool

	// ExpiresIn is the lifetime given to issued access tokens
	ExpiresIn int
	// Bases is returned by GET /meta/bases
	Bases string
	// Tables is returned by GET /meta/bases/{baseID}/tables, keyed by base id
	Tables map[string]string
}

type failure struct {
	status int
	body   string
}

// NewServer starts a fake and closes it when the test ends
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		codes:         map[string]string{},
		refreshTokens: map[string]bool{},
		accessTokens:  map[string]bool{},
		ExpiresIn:     3600,
		Bases:         `{"bases":[{"id":"appA","name":"CRM","permissionLevel":"create"}]}`,
		Tables:        map[string]string{},
	}

	r := chi.NewRouter()
	r.Get("/oauth2/v1/authorize", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/oauth2/v1/token", s.token)
	r.Get("/v0/meta/bases", s.authorized(s.listBases))
	r.Get("/v0/meta/bases/{baseID}/tables", s.authorized(s.listTables))
	r.Post("/v0/{baseID}/{tableID}", s.authorized(s.createRecord))

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Setenv points the service configuration at this fake
func (s *Server) Setenv(t *testing.T) {
	t.Helper()
	t.Setenv("CLIENT_ID", ClientID)
	t.Setenv("CLIENT_SECRET", "")
	t.Setenv("REDIRECT_URI", RedirectURI)
	t.Setenv("SCOPE", "data.records:read data.records:write schema.bases:read")
	t.Setenv("AIRTABLE_URL", s.URL)
	t.Setenv("AIRTABLE_API_URL", s.URL+"/v0")
}

// IssueCode plays the user consenting on the authorize page. It returns the
// state and a code bound to the URL's code_challenge.
func (s *Server) IssueCode(t *testing.T, authorizeURL string) (state, code string) {
	t.Helper()
	u, err := url.Parse(authorizeURL)
	if err != nil {
		t.Fatalf("parse authorize url: %v", err)
	}
	q := u.Query()
	if q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
		t.Fatalf("authorize url without S256 challenge: %s", authorizeURL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	code = fmt.Sprintf("code-%d", len(s.codes)+1)
	s.codes[code] = q.Get("code_challenge")
	return q.Get("state"), code
}

// FailToken makes every later token request answer with status and body
func (s *Server) FailToken(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenFailure = &failure{status: status, body: body}
}

// FailAPI makes every later authorized API request answer with status and body
func (s *Server) FailAPI(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiFailure = &failure{status: status, body: body}
}

// DelayToken makes the token endpoint wait before answering
func (s *Server) DelayToken(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenDelay = d
}

// OmitRefreshToken leaves refresh_token out of refresh responses
func (s *Server) OmitRefreshToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitRefresh = true
}

func (s *Server) TokenRequests() []TokenRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TokenRequest(nil), s.tokenRequests...)
}

func (s *Server) APIRequests() []APIRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]APIRequest(nil), s.apiRequests...)
}

// CountTokenGrants counts token requests with the given grant_type
func (s *Server) CountTokenGrants(grantType string) int {
	n := 0
	for _, req := range s.TokenRequests() {
		if req.Form.Get("grant_type") == grantType {
			n++
		}
	}
	return n
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid_request"}`)
		return
	}
	basicUser, _, _ := r.BasicAuth()

	s.mu.Lock()
	s.tokenRequests = append(s.tokenRequests, TokenRequest{Form: r.PostForm, BasicUser: basicUser})
	delay, fail := s.tokenDelay, s.tokenFailure
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail != nil {
		writeJSON(w, fail.status, fail.body)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		challenge, ok := s.codes[r.PostForm.Get("code")]
		if !ok || challenge != s256(r.PostForm.Get("code_verifier")) {
			writeJSON(w, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"code or verifier rejected"}`)
			return
		}
		delete(s.codes, r.PostForm.Get("code"))
		writeJSON(w, http.StatusOK, s.issueLocked(true))
	case "refresh_token":
		if !s.refreshTokens[r.PostForm.Get("refresh_token")] {
			writeJSON(w, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"refresh token revoked"}`)
			return
		}
		writeJSON(w, http.StatusOK, s.issueLocked(!s.omitRefresh))
	default:
		writeJSON(w, http.StatusBadRequest, `{"error":"unsupported_grant_type"}`)
	}
}

func (s *Server) issueLocked(withRefresh bool) string {
	s.issued++
	access := fmt.Sprintf("access-%d", s.issued)
	s.accessTokens[access] = true

	body := fmt.Sprintf(`{"access_token":%q,"token_type":"Bearer","scope":"data.records:read data.records:write schema.bases:read","expires_in":%d}`, access, s.ExpiresIn)
	if withRefresh {
		refresh := fmt.Sprintf("refresh-%d", s.issued)
		s.refreshTokens[refresh] = true
		body, _ = sjson.Set(body, "refresh_token", refresh)
	}
	return body
}

func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		auth := r.Header.Get("Authorization")

		s.mu.Lock()
		s.apiRequests = append(s.apiRequests, APIRequest{
			Method:        r.Method,
			Path:          r.URL.EscapedPath(),
			Authorization: auth,
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		})
		valid := s.accessTokens[strings.TrimPrefix(auth, "Bearer ")]
		fail := s.apiFailure
		s.mu.Unlock()

		if !valid {
			writeJSON(w, http.StatusUnauthorized, `{"error":{"type":"AUTHENTICATION_REQUIRED","message":"Authentication required"}}`)
			return
		}
		if fail != nil {
			writeJSON(w, fail.status, fail.body)
			return
		}
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		next(w, r)
	}
}

func (s *Server) listBases(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Bases)
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	tables, ok := s.Tables[chi.URLParam(r, "baseID")]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, `{"error":"NOT_FOUND"}`)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	fields := gjson.GetBytes(body, "fields")
	if !fields.IsObject() {
		writeJSON(w, http.StatusUnprocessableEntity, `{"error":{"type":"INVALID_REQUEST_MISSING_FIELDS","message":"Could not find field \"fields\" in the request body"}}`)
		return
	}

	s.mu.Lock()
	s.records++
	id := fmt.Sprintf("rec%d", s.records)
	s.mu.Unlock()

	record := fmt.Sprintf(`{"id":%q,"createdTime":"2026-03-01T12:00:00.000Z"}`, id)
	record, _ = sjson.SetRaw(record, "fields", fields.Raw)
	writeJSON(w, http.StatusOK, record)
}

func s256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// SetTables sets the GET /meta/bases/{baseID}/tables response for baseID
func (s *Server) SetTables(baseID string, tables ...string) {
	body := `{"tables":[` + strings.Join(tables, ",") + `]}`
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tables[baseID] = body
}

// Table builds a table object for SetTables
func Table(id, name string, fields ...map[string]any) string {
	if fields == nil {
		fields = []map[string]any{}
	}
	raw, _ := json.Marshal(map[string]any{"id": id, "name": name, "fields": fields})
	return string(raw)
}

// Field builds a field object for Table, with optional raw options JSON
func Field(id, name, fieldType string, options ...string) map[string]any {
	f := map[string]any{"id": id, "name": name, "type": fieldType}
	if len(options) > 0 {
		f["options"] = json.RawMessage(options[0])
	}
	return f
}
