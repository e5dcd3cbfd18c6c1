package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dativo-io/parley/internal/telephony"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active_calls":   s.registry.Active(),
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
	})
}

// handleVoice is the Twilio entry webhook. It answers with TwiML that
// connects the call's media stream to the speech pipeline.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	wsURL := s.websocketURL
	if wsURL == "" {
		scheme := "ws"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "wss"
		}
		host := r.Host
		if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
			host = fwd
		}
		wsURL = fmt.Sprintf("%s://%s/ws", scheme, host)
	}

	twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Connect>
    <Stream url="%s"></Stream>
  </Connect>
  <Pause length="40"/>
</Response>`, wsURL)
	writeTwiML(w, twiml)
}

// handleTransfer renders the transfer leg TwiML: an announcement, the dial
// attempt, and a spoken fallback when the dial does not connect. With no
// destination configured it renders the unavailable fallback instead.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("number")
	if number == "" {
		number = s.supportNumber
	}

	if number == "" {
		log.Error().Msg("transfer_requested_without_destination")
		writeTwiML(w, `<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say>I'm sorry, transfer is not available at this time.</Say>
  <Hangup/>
</Response>`)
		return
	}

	normalized := telephony.NormalizePhoneNumber(number)
	twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say voice="alice">Connecting you to one of our agents now. Please hold.</Say>
  <Dial timeout="30" record="false">
    <Number>%s</Number>
  </Dial>
  <Say voice="alice">I'm sorry, we couldn't connect you to an agent at this time. Please try again later.</Say>
  <Hangup/>
</Response>`, normalized)
	writeTwiML(w, twiml)
}

type callStartRequest struct {
	CallSID string `json:"call_sid"`
}

// handleCallStart registers a call and starts its monitor. A missing
// call_sid gets a generated one so local testing works without Twilio.
func (s *Server) handleCallStart(w http.ResponseWriter, r *http.Request) {
	// An empty body is fine; only malformed JSON is rejected.
	var req callStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	callSID := strings.TrimSpace(req.CallSID)
	if callSID == "" {
		callSID = "local-" + uuid.NewString()
	}

	if err := s.registry.Begin(callSID); err != nil {
		if errors.Is(err, ErrCallExists) {
			http.Error(w, "call already registered", http.StatusConflict)
			return
		}
		http.Error(w, "failed to register call", http.StatusInternalServerError)
		return
	}

	if s.companyName != "" {
		greeting := fmt.Sprintf(
			"Hello! This is %s customer support. I can help you check your case status or escalate your case. First, I'll need your case number. Please provide your case number.",
			s.companyName)
		_ = s.registry.QueueResponse(callSID, greeting)
	}

	writeJSON(w, http.StatusCreated, map[string]string{"call_sid": callSID})
}

type utteranceRequest struct {
	Text string `json:"text"`
}

// handleUtterance ingests one recognized user utterance from the
// speech-to-text collaborator.
func (s *Server) handleUtterance(w http.ResponseWriter, r *http.Request) {
	callSID := chi.URLParam(r, "call_sid")

	var req utteranceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	if err := s.registry.AddUtterance(callSID, req.Text); err != nil {
		http.Error(w, "call not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleResponses drains queued spoken responses for the text-to-speech
// collaborator.
func (s *Server) handleResponses(w http.ResponseWriter, r *http.Request) {
	callSID := chi.URLParam(r, "call_sid")

	responses, err := s.registry.DrainResponses(callSID)
	if err != nil {
		http.Error(w, "call not found", http.StatusNotFound)
		return
	}
	if responses == nil {
		responses = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"responses": responses})
}

// handleCallEnd cancels the call's monitor and releases its state.
func (s *Server) handleCallEnd(w http.ResponseWriter, r *http.Request) {
	callSID := chi.URLParam(r, "call_sid")

	if err := s.registry.End(callSID); err != nil {
		http.Error(w, "call not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeTwiML(w http.ResponseWriter, twiml string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(twiml))
}
