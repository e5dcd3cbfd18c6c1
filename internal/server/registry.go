package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/dativo-io/parley/internal/monitor"
)

var (
	ErrCallNotFound = errors.New("call not found")
	ErrCallExists   = errors.New("call already registered")
)

// call bundles one active call's runtime: its transcript, its spoken-output
// queue, and the cancel handle for its monitor goroutine.
type call struct {
	sid        string
	transcript *liveTranscript
	responses  *responseQueue
	cancel     context.CancelFunc
	lastActive time.Time
}

// Registry owns all active calls. Each registered call gets its own monitor
// goroutine; calls are fully isolated from one another, sharing only the
// read-only pipeline. A cron janitor sweeps calls whose transport died
// without a clean DELETE (e.g. the caller just hung up mid-transfer).
type Registry struct {
	runner       monitor.Runner
	pollInterval time.Duration
	keywords     []string
	idleTTL      time.Duration

	mu    sync.Mutex
	calls map[string]*call

	janitor *cron.Cron
}

// NewRegistry creates a registry. keywords may be nil to use the monitor's
// built-in escalation keyword set.
func NewRegistry(runner monitor.Runner, pollInterval time.Duration, keywords []string, idleTTL time.Duration) *Registry {
	return &Registry{
		runner:       runner,
		pollInterval: pollInterval,
		keywords:     keywords,
		idleTTL:      idleTTL,
		calls:        make(map[string]*call),
	}
}

// StartJanitor begins the periodic idle-call sweep.
func (r *Registry) StartJanitor() error {
	r.janitor = cron.New()
	if _, err := r.janitor.AddFunc("@every 1m", func() {
		if n := r.Sweep(time.Now()); n > 0 {
			log.Info().Int("purged", n).Msg("idle_calls_purged")
		}
	}); err != nil {
		return fmt.Errorf("registering janitor schedule: %w", err)
	}
	r.janitor.Start()
	return nil
}

// Stop halts the janitor and ends every active call.
func (r *Registry) Stop() {
	if r.janitor != nil {
		ctx := r.janitor.Stop()
		<-ctx.Done()
	}

	r.mu.Lock()
	sids := make([]string, 0, len(r.calls))
	for sid := range r.calls {
		sids = append(sids, sid)
	}
	r.mu.Unlock()

	for _, sid := range sids {
		_ = r.End(sid)
	}
}

// Begin registers a call and starts its monitor goroutine.
func (r *Registry) Begin(callSID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.calls[callSID]; exists {
		return ErrCallExists
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &call{
		sid:        callSID,
		transcript: newLiveTranscript(),
		responses:  newResponseQueue(),
		cancel:     cancel,
		lastActive: time.Now(),
	}
	r.calls[callSID] = c

	opts := []monitor.Option{monitor.WithPollInterval(r.pollInterval)}
	if len(r.keywords) > 0 {
		opts = append(opts, monitor.WithEscalationKeywords(r.keywords))
	}
	m := monitor.New(c.transcript, c.responses, r.runner, callSID, opts...)
	go func() {
		_ = m.Run(ctx)
	}()

	log.Info().Str("call_sid", callSID).Msg("call_registered")
	return nil
}

// End cancels the call's monitor, closes its spoken-output channel, and
// forgets the call.
func (r *Registry) End(callSID string) error {
	r.mu.Lock()
	c, ok := r.calls[callSID]
	if ok {
		delete(r.calls, callSID)
	}
	r.mu.Unlock()

	if !ok {
		return ErrCallNotFound
	}
	c.cancel()
	c.responses.Close()
	log.Info().Str("call_sid", callSID).Msg("call_ended")
	return nil
}

// AddUtterance appends a recognized user utterance to the call's transcript.
func (r *Registry) AddUtterance(callSID, text string) error {
	c, err := r.touch(callSID)
	if err != nil {
		return err
	}
	c.transcript.Append(text)
	return nil
}

// QueueResponse puts text on the call's spoken-output channel directly,
// bypassing the pipeline. Used for the opening greeting.
func (r *Registry) QueueResponse(callSID, text string) error {
	c, err := r.touch(callSID)
	if err != nil {
		return err
	}
	return c.responses.Say(context.Background(), text)
}

// DrainResponses returns queued spoken responses for the call.
func (r *Registry) DrainResponses(callSID string) ([]string, error) {
	c, err := r.touch(callSID)
	if err != nil {
		return nil, err
	}
	return c.responses.Drain(), nil
}

// Active returns the number of registered calls.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Sweep ends every call idle longer than the TTL and returns how many were
// purged. Called by the janitor; exported for tests.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var stale []string
	for sid, c := range r.calls {
		if now.Sub(c.lastActive) > r.idleTTL {
			stale = append(stale, sid)
		}
	}
	r.mu.Unlock()

	for _, sid := range stale {
		log.Warn().Str("call_sid", sid).Msg("purging_idle_call")
		_ = r.End(sid)
	}
	return len(stale)
}

// touch finds the call and refreshes its activity timestamp.
func (r *Registry) touch(callSID string) (*call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[callSID]
	if !ok {
		return nil, ErrCallNotFound
	}
	c.lastActive = time.Now()
	return c, nil
}
