package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/John42506176Linux/voice-assist/internal/observability"
	"github.com/John42506176Linux/voice-assist/internal/resilience"
	"github.com/John42506176Linux/voice-assist/internal/store"
)

// Snapshot is one consistent read of the transcript store: every conversation
// with its utterances, as of Taken.
type Snapshot struct {
	Conversations []store.Conversation         `json:"conversations"`
	Utterances    map[string][]store.Utterance `json:"utterances"`
	Taken         time.Time                    `json:"taken"`
}

// SessionState tracks refresh bookkeeping for one dashboard session. It
// replaces the process-global last-refresh timestamp: each session owns its
// own instance and passes it to the renderer explicitly.
type SessionState struct {
	mu          sync.Mutex
	lastRefresh time.Time
	lastDigest  string
	current     Snapshot
}

// NewSessionState returns empty refresh state for a new session.
func NewSessionState() *SessionState {
	return &SessionState{}
}

// LastRefresh returns the time of the last applied snapshot.
func (s *SessionState) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}

// Current returns the most recently applied snapshot.
func (s *SessionState) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// apply records a snapshot and reports whether it differs from the previous
// one. The comparison is a content digest, not the timestamp, so an unchanged
// store does not re-render.
func (s *SessionState) apply(snap Snapshot) bool {
	digest := snapshotDigest(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRefresh = snap.Taken
	if digest == s.lastDigest {
		return false
	}
	s.lastDigest = digest
	s.current = snap
	return true
}

func snapshotDigest(snap Snapshot) string {
	// Taken changes every poll; digest only the data.
	payload, _ := json.Marshal(struct {
		C []store.Conversation
		U map[string][]store.Utterance
	}{snap.Conversations, snap.Utterances})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// RefreshStrategy decides when the poller wakes up. Implementations block in
// Next until the next refresh is due or the context ends.
type RefreshStrategy interface {
	Next(ctx context.Context) error
}

// IntervalStrategy refreshes on a fixed cadence.
type IntervalStrategy struct {
	Interval time.Duration
}

// Next waits one interval.
func (s *IntervalStrategy) Next(ctx context.Context) error {
	timer := time.NewTimer(s.Interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ManualStrategy refreshes only when Trigger is called.
type ManualStrategy struct {
	trigger chan struct{}
	once    sync.Once
}

func (s *ManualStrategy) init() {
	s.once.Do(func() { s.trigger = make(chan struct{}, 1) })
}

// Trigger requests one refresh. Coalesces with a pending trigger.
func (s *ManualStrategy) Trigger() {
	s.init()
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Next waits for the next trigger.
func (s *ManualStrategy) Next(ctx context.Context) error {
	s.init()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.trigger:
		return nil
	}
}

// Poller reads the two store queries on the strategy's cadence and hands
// changed snapshots to the sink. It never writes to the store.
type Poller struct {
	store    store.TranscriptStore
	strategy RefreshStrategy
	state    *SessionState
	retry    *resilience.RetryConfig
	sink     func(Snapshot)
	logger   zerolog.Logger
}

// NewPoller creates a poller that delivers changed snapshots to sink.
func NewPoller(st store.TranscriptStore, strategy RefreshStrategy, state *SessionState, retry *resilience.RetryConfig, sink func(Snapshot), logger zerolog.Logger) *Poller {
	return &Poller{
		store:    st,
		strategy: strategy,
		state:    state,
		retry:    retry,
		sink:     sink,
		logger:   logger,
	}
}

// Run polls until the context ends. Read failures are retried with backoff
// and then skipped; the next cycle starts fresh.
func (p *Poller) Run(ctx context.Context) {
	for {
		if err := p.strategy.Next(ctx); err != nil {
			return
		}

		if err := p.PollOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			p.logger.Warn().Err(err).Msg("Poll cycle failed, skipping")
		}
	}
}

// PollOnce performs one poll cycle: snapshot the store, apply it to the
// session state, and deliver it to the sink when it changed.
func (p *Poller) PollOnce(ctx context.Context) error {
	var snap Snapshot
	err := resilience.Retry(ctx, p.retry, func(ctx context.Context) error {
		var err error
		snap, err = p.snapshot(ctx)
		return err
	})
	observability.RecordDashboardPoll(err)
	if err != nil {
		return err
	}

	if p.state.apply(snap) && p.sink != nil {
		p.sink(snap)
	}
	return nil
}

func (p *Poller) snapshot(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	conversations, err := p.store.ListConversations(ctx)
	observability.RecordStoreOperation("list_conversations", start, err)
	if err != nil {
		return Snapshot{}, err
	}

	utterances := make(map[string][]store.Utterance, len(conversations))
	for _, c := range conversations {
		start = time.Now()
		rows, err := p.store.ListUtterances(ctx, c.RequestID)
		if errors.Is(err, store.ErrNotFound) {
			// The row was replaced or vanished between the two queries.
			err = nil
		}
		observability.RecordStoreOperation("list_utterances", start, err)
		if err != nil {
			return Snapshot{}, err
		}
		if len(rows) > 0 {
			utterances[c.RequestID] = rows
		}
	}

	return Snapshot{
		Conversations: conversations,
		Utterances:    utterances,
		Taken:         time.Now().UTC(),
	}, nil
}
