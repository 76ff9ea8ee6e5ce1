package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/onelink/captcha-server-go/internal/audit"
	"github.com/onelink/captcha-server-go/internal/httputil"
	"github.com/onelink/captcha-server-go/internal/service"
)

type CaptchaHandler struct {
	captchaService *service.CaptchaService
}

func NewCaptchaHandler(captchaService *service.CaptchaService) *CaptchaHandler {
	return &CaptchaHandler{
		captchaService: captchaService,
	}
}

func (h *CaptchaHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/session", h.CreateSession)
	r.Post("/generate/{sessionID}", h.GenerateCaptcha)
	r.Get("/image/{sessionID}", h.GetCaptchaImage)
	r.Get("/verify/{sessionID}/{userInput}", h.VerifyCaptcha)
	r.Get("/session/{sessionID}/status", h.GetSessionStatus)

	return r
}

// POST /captcha/session
func (h *CaptchaHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.captchaService.CreateSession(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to create session")
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventSessionCreate,
		SessionID: sessionID,
	})

	writeJSON(w, http.StatusOK, map[string]string{"session_id": sessionID})
}

// POST /captcha/generate/{sessionID}
func (h *CaptchaHandler) GenerateCaptcha(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Session id is required"})
		return
	}

	img, err := h.captchaService.GenerateChallenge(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventCaptchaGenerate,
		SessionID: sessionID,
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"captcha_image": base64.StdEncoding.EncodeToString(img),
	})
}

// GET /captcha/image/{sessionID}
func (h *CaptchaHandler) GetCaptchaImage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Session id is required"})
		return
	}

	img, err := h.captchaService.Image(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// GET /captcha/verify/{sessionID}/{userInput}
func (h *CaptchaHandler) VerifyCaptcha(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userInput := chi.URLParam(r, "userInput")
	if sessionID == "" || userInput == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Session id and input are required"})
		return
	}

	result, err := h.captchaService.Verify(r.Context(), sessionID, userInput)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:      audit.EventVerifyRejected,
			SessionID: sessionID,
			Details:   map[string]any{"reason": string(errCode(err))},
		})
		httputil.WriteError(w, err)
		return
	}

	eventType := audit.EventVerifyFailure
	if result.Status == "success" {
		eventType = audit.EventVerifySuccess
	}
	audit.LogFromRequest(r, audit.Event{
		Type:      eventType,
		SessionID: sessionID,
	})

	// A mismatch is a semantic result, not a transport failure: still 200.
	writeJSON(w, http.StatusOK, result)
}

// GET /captcha/session/{sessionID}/status
func (h *CaptchaHandler) GetSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Session id is required"})
		return
	}

	status := h.captchaService.Status(r.Context(), sessionID)
	writeJSON(w, http.StatusOK, status)
}
