// Package stats tracks lock-light per-session counters and a derived,
// cached frames-per-second figure.
//
// All high-frequency counters are independent atomics with no cross-counter
// ordering: each is self-consistent, the set is not a transactional
// snapshot. That keeps the decode hot path entirely lock-free. FPS is not
// recomputed per frame; a periodic (~1 Hz) caller drives CurrentFPS, which
// rotates an internal snapshot at most about once per second. The phase and
// last-error strings are low-frequency diagnostic state behind an ordinary
// mutex.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// fpsMinInterval is the minimum elapsed time before CurrentFPS rotates its
// snapshot and recomputes; calls inside the window return the cached value.
const fpsMinInterval = 900 * time.Millisecond

// Snapshot is the periodic telemetry view of one session.
type Snapshot struct {
	SessionID string
	Phase     string
	LastError string
	Uptime    time.Duration

	BytesSent     uint64
	BytesReceived uint64
	PDUsSent      uint64
	PDUsReceived  uint64
	FramesDecoded uint64
	InputEvents   uint64

	RecoveredErrors uint64
	Reactivations   uint64

	FPS float64
}

// Session holds the counters for one remote session's lifetime: created at
// connect, discarded at disconnect.
type Session struct {
	sessionID string
	started   time.Time

	// Hot-path counters (atomic, no ordering between them).
	bytesSent       uint64
	bytesReceived   uint64
	pdusSent        uint64
	pdusReceived    uint64
	framesDecoded   uint64
	inputEvents     uint64
	recoveredErrors uint64
	reactivations   uint64

	// Diagnostic state (low frequency).
	mu        sync.Mutex
	phase     string
	lastError string

	// FPS snapshot rotation, guarded by fpsMu; touched ~1×/second.
	fpsMu        sync.Mutex
	fpsLastCount uint64
	fpsLastAt    time.Time
	fpsCached    float64

	// now is the clock; replaced in tests.
	now func() time.Time
}

// NewSession creates stats for a session, with the phase set to
// "connecting".
func NewSession(sessionID string) *Session {
	s := &Session{
		sessionID: sessionID,
		phase:     "connecting",
		now:       time.Now,
	}
	s.started = s.now()
	s.fpsLastAt = s.started
	return s
}

// Hot-path increments. Each is independent and safe from any goroutine.

func (s *Session) AddBytesSent(n uint64)     { atomic.AddUint64(&s.bytesSent, n) }
func (s *Session) AddBytesReceived(n uint64) { atomic.AddUint64(&s.bytesReceived, n) }
func (s *Session) AddPDUSent()               { atomic.AddUint64(&s.pdusSent, 1) }
func (s *Session) AddPDUReceived()           { atomic.AddUint64(&s.pdusReceived, 1) }
func (s *Session) AddFrameDecoded()          { atomic.AddUint64(&s.framesDecoded, 1) }
func (s *Session) AddInputEvent()            { atomic.AddUint64(&s.inputEvents, 1) }

// AddRecoveredError counts a decode or pixel-conversion failure that the
// session survived.
func (s *Session) AddRecoveredError() { atomic.AddUint64(&s.recoveredErrors, 1) }

// AddReactivation counts a desktop resize/reactivation cycle.
func (s *Session) AddReactivation() { atomic.AddUint64(&s.reactivations, 1) }

// SetPhase records the session's current textual phase.
func (s *Session) SetPhase(phase string) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
}

// SetLastError records the most recent error string for diagnostics.
func (s *Session) SetLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// CurrentFPS returns the derived frame rate.
//
// If at least ~0.9 seconds have elapsed since the stored snapshot, it
// computes delta-frames ÷ elapsed-seconds, rotates the snapshot and caches
// the result; otherwise it returns the cached value unchanged. Intended to
// be driven by a periodic (~1 Hz) telemetry caller, which bounds all
// lock-guarded FPS bookkeeping to roughly once per second regardless of the
// video frame rate.
func (s *Session) CurrentFPS() float64 {
	s.fpsMu.Lock()
	defer s.fpsMu.Unlock()

	now := s.now()
	elapsed := now.Sub(s.fpsLastAt)
	if elapsed < fpsMinInterval {
		return s.fpsCached
	}

	frames := atomic.LoadUint64(&s.framesDecoded)
	s.fpsCached = float64(frames-s.fpsLastCount) / elapsed.Seconds()
	s.fpsLastCount = frames
	s.fpsLastAt = now
	return s.fpsCached
}

// Snapshot assembles the telemetry view. Counters are read atomically but
// not as a transaction; values may be mutually skewed by in-flight
// increments.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	phase, lastError := s.phase, s.lastError
	s.mu.Unlock()

	return Snapshot{
		SessionID: s.sessionID,
		Phase:     phase,
		LastError: lastError,
		Uptime:    s.now().Sub(s.started),

		BytesSent:     atomic.LoadUint64(&s.bytesSent),
		BytesReceived: atomic.LoadUint64(&s.bytesReceived),
		PDUsSent:      atomic.LoadUint64(&s.pdusSent),
		PDUsReceived:  atomic.LoadUint64(&s.pdusReceived),
		FramesDecoded: atomic.LoadUint64(&s.framesDecoded),
		InputEvents:   atomic.LoadUint64(&s.inputEvents),

		RecoveredErrors: atomic.LoadUint64(&s.recoveredErrors),
		Reactivations:   atomic.LoadUint64(&s.reactivations),

		FPS: s.CurrentFPS(),
	}
}
