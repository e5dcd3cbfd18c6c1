// Package telephony holds the call-transfer collaborator. Transferring a
// live call is the one privileged side effect in the system; the only code
// path that reaches TransferCall runs through the decision pipeline's
// escalate action.
package telephony

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	parleyotel "github.com/dativo-io/parley/internal/otel"
)

var tracer = parleyotel.Tracer("github.com/dativo-io/parley/internal/telephony")

// TimeoutTransfer bounds the Twilio call-update request.
const TimeoutTransfer = 15 * time.Second

// Twilio redirects live calls through the Twilio REST API. The client holds
// no per-call state and is safe to share across concurrent call monitors.
type Twilio struct {
	accountSID string
	authToken  string
	httpClient *http.Client
	baseURL    string
}

// NewTwilio creates a client for the given account credentials.
func NewTwilio(accountSID, authToken string) *Twilio {
	return &Twilio{
		accountSID: accountSID,
		authToken:  authToken,
		httpClient: &http.Client{},
		baseURL:    "https://api.twilio.com",
	}
}

// NewTwilioWithBaseURL creates a client pointed at a custom base URL
// (e.g. an httptest mock server).
func NewTwilioWithBaseURL(accountSID, authToken, baseURL string) *Twilio {
	t := NewTwilio(accountSID, authToken)
	t.baseURL = baseURL
	return t
}

// TransferCall redirects the active call identified by callSID to
// destination by updating the call with dial TwiML. Returns true only when
// Twilio accepted the update. The update itself is what moves the call, so
// issuing it at most once per escalation decision keeps the transfer
// idempotent-safe.
func (t *Twilio) TransferCall(ctx context.Context, callSID, destination string) (bool, error) {
	ctx, span := tracer.Start(ctx, "telephony.transfer_call",
		trace.WithAttributes(attribute.String("call.sid", callSID)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, TimeoutTransfer)
	defer cancel()

	number := NormalizePhoneNumber(destination)
	form := url.Values{}
	form.Set("Twiml", fmt.Sprintf("<Response><Dial>%s</Dial></Response>", number))

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s.json", t.baseURL, t.accountSID, callSID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("creating twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("twilio api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("twilio api error %d: %s", resp.StatusCode, string(respBody))
	}

	log.Info().
		Str("call_sid", callSID).
		Str("destination", number).
		Msg("call_transferred")
	return true, nil
}

// NormalizePhoneNumber strips formatting characters, keeping digits and a
// leading plus so the number is safe to embed in TwiML.
func NormalizePhoneNumber(s string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
