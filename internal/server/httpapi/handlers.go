package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/facevault/internal/common"
	"github.com/dmitrijs2005/facevault/internal/logging"
	"github.com/dmitrijs2005/facevault/internal/server/health"
	"github.com/dmitrijs2005/facevault/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// Handler holds the HTTP handlers for every route.
type Handler struct {
	auth    AuthAPI
	vault   VaultAPI
	health  *health.Service
	log     logging.Logger
	maxBody int64
}

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	ImageBase64 string `json:"image_base64"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type loginRequest struct {
	Password    string `json:"password"`
	ImageBase64 string `json:"image_base64"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Matched     bool      `json:"matched"`
}

type meResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type verifyFaceRequest struct {
	ImageA string `json:"image_a_base64"`
	ImageB string `json:"image_b_base64"`
}

type verifyFaceResponse struct {
	Match bool `json:"match"`
}

type createEntryRequest struct {
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Fields   map[string]string `json:"fields"`
}

type entrySummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type entryDetail struct {
	entrySummary
	Fields     map[string]string `json:"fields"`
	Identifier string            `json:"identifier,omitempty"`
}

func toSummary(s *services.EntrySummary) entrySummary {
	return entrySummary{ID: s.ID, Name: s.Name, Category: string(s.Category), CreatedAt: s.CreatedAt}
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password, req.ImageBase64)
	if err != nil {
		writeError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{Message: "user registered", UserID: user.ID})
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.auth.Login(r.Context(), req.Password, req.ImageBase64)
	if err != nil {
		writeError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		ExpiresAt:   res.ExpiresAt.UTC(),
		Matched:     true,
	})
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	if err := h.auth.Logout(r.Context(), token); err != nil {
		writeError(r.Context(), h.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	user, err := h.auth.Me(r.Context(), token)
	if err != nil {
		writeError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{UserID: user.ID, Username: user.Username})
}

// VerifyFace handles POST /verify-face.
func (h *Handler) VerifyFace(w http.ResponseWriter, r *http.Request) {
	var req verifyFaceRequest
	if !h.decode(w, r, &req) {
		return
	}
	match, err := h.auth.VerifyFaces(r.Context(), req.ImageA, req.ImageB)
	if err != nil {
		writeError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyFaceResponse{Match: match})
}

// ListEntries handles GET /vault.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	items, err := h.vault.List(r.Context(), token)
	if err != nil {
		writeError(r.Context(), h.log, w, err)
		return
	}
	out := make([]entrySummary, 0, len(items))
	for _, it := range items {
		out = append(out, toSummary(it))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateEntry handles POST /vault.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	var req createEntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	sum, err := h.vault.Create(r.Context(), token, req.Name, req.Category, req.Fields)
	if err != nil {
		writeError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSummary(sum))
}

// RevealEntry handles GET /vault/{id}.
func (h *Handler) RevealEntry(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	d, err := h.vault.Reveal(r.Context(), token, chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, entryDetail{
		entrySummary: toSummary(&d.EntrySummary),
		Fields:       d.Fields,
		Identifier:   d.Identifier,
	})
}

// DeleteEntry handles DELETE /vault/{id}.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	if err := h.vault.Delete(r.Context(), token, chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), h.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /healthz. An unhealthy report is served as 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.health.CheckHealth(r.Context())
	code := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}

// decode reads a JSON body bounded by maxBody. On failure it writes the
// response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := r.Body
	if h.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(r.Context(), h.log, w, fmt.Errorf("%w: malformed JSON body", common.ErrorInvalidInput))
		return false
	}
	return true
}

// bearer extracts the access token from the Authorization header.
func (h *Handler) bearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get(common.AuthorizationHeaderName)
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, common.BearerScheme) || token == "" {
		writeError(r.Context(), h.log, w, fmt.Errorf("%w: missing bearer token", common.ErrorUnauthorized))
		return "", false
	}
	return token, true
}
