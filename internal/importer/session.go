package importer

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pos-backoffice/internal/domain"
	"pos-backoffice/pkg/logger"
)

// SessionState is the position of an import session in its workflow.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateFileLoaded SessionState = "file_loaded"
	StateMapping    SessionState = "mapping"
	StatePreview    SessionState = "preview"
	StateImporting  SessionState = "importing"
	StateSuccess    SessionState = "success"
	StateError      SessionState = "error"
)

// Forward transitions. Fail is allowed from every state and Reset
// always returns to idle, so neither appears here.
var sessionTransitions = map[SessionState][]SessionState{
	StateIdle:       {StateFileLoaded},
	StateFileLoaded: {StateMapping},
	StateMapping:    {StatePreview},
	StatePreview:    {StateMapping, StateImporting},
	StateImporting:  {StateSuccess},
}

// Session is one import workflow from upload to commit. All mutation
// goes through the state-transition methods; direct field writes are
// reserved for the owning Store.
type Session struct {
	ID         string            `json:"id"`
	State      SessionState      `json:"state"`
	ImportType domain.ImportType `json:"import_type"`
	Filename   string            `json:"filename,omitempty"`

	Parsed  *ParsedData          `json:"-"`
	Mapping *MappingConfig       `json:"mapping,omitempty"`
	Batch   *domain.ImportBatch  `json:"-"`
	Result  *domain.ImportResult `json:"result,omitempty"`

	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	mu sync.Mutex
}

func newSession(importType domain.ImportType) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.New().String(),
		State:      StateIdle,
		ImportType: importType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *Session) transition(to SessionState) error {
	for _, allowed := range sessionTransitions[s.State] {
		if allowed == to {
			s.State = to
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("invalid session transition: %s -> %s", s.State, to)
}

// LoadFile attaches parsed data and advances idle -> file_loaded ->
// mapping with an initial mapping suggestion.
func (s *Session) LoadFile(filename string, parsed *ParsedData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transition(StateFileLoaded); err != nil {
		return err
	}
	cfg, err := Suggest(parsed, s.ImportType)
	if err != nil {
		s.fail(err)
		return err
	}
	s.Filename = filename
	s.Parsed = parsed
	s.Mapping = cfg
	return s.transition(StateMapping)
}

// AssignMapping rebinds one field while in the mapping state.
func (s *Session) AssignMapping(fieldKey, header string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State != StateMapping {
		return fmt.Errorf("mapping can only change in state %s, session is %s", StateMapping, s.State)
	}
	if err := Assign(s.Mapping, s.Parsed, fieldKey, header); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	return nil
}

// Preview runs the transformer and advances mapping -> preview. An
// invalid mapping or a transform failure keeps the session in mapping.
func (s *Session) Preview() (*domain.ImportBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State != StateMapping {
		return nil, fmt.Errorf("preview requires state %s, session is %s", StateMapping, s.State)
	}
	batch, err := Transform(s.Parsed, s.Mapping)
	if err != nil {
		return nil, err
	}
	s.Batch = batch
	return batch, s.transition(StatePreview)
}

// Back returns from preview to mapping. The transformed batch is
// discarded since the mapping may change.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State != StatePreview {
		return fmt.Errorf("back requires state %s, session is %s", StatePreview, s.State)
	}
	s.Batch = nil
	return s.transition(StateMapping)
}

// PreviewBatch hands out the transformed batch without changing state.
// Validate-only commits use this so the session stays in preview.
func (s *Session) PreviewBatch() (*domain.ImportBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State != StatePreview {
		return nil, fmt.Errorf("no preview batch available, session is %s", s.State)
	}
	return s.Batch, nil
}

// BeginImport advances preview -> importing and hands out the batch.
func (s *Session) BeginImport() (*domain.ImportBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transition(StateImporting); err != nil {
		return nil, err
	}
	return s.Batch, nil
}

// Complete records the orchestrator result. A result with failures
// moves the session to error instead of success.
func (s *Session) Complete(result *domain.ImportResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Result = result
	if !result.Succeeded() {
		s.fail(fmt.Errorf("import failed in phase %s", result.FailedPhase))
		return nil
	}
	return s.transition(StateSuccess)
}

// Fail moves the session to the error state from anywhere.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail(err)
}

func (s *Session) fail(err error) {
	s.State = StateError
	if err != nil {
		s.ErrorMessage = err.Error()
	}
	s.UpdatedAt = time.Now()
}

// Reset clears everything except identity and returns to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.State = StateIdle
	s.Filename = ""
	s.Parsed = nil
	s.Mapping = nil
	s.Batch = nil
	s.Result = nil
	s.ErrorMessage = ""
	s.UpdatedAt = time.Now()
}

// Store keeps active sessions in memory, keyed by session ID.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (st *Store) Create(importType domain.ImportType) (*Session, error) {
	if !domain.ValidImportType(importType) {
		return nil, fmt.Errorf("unknown import type: %s", importType)
	}
	session := newSession(importType)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[session.ID] = session
	return session, nil
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	session, ok := st.sessions[id]
	return session, ok
}

func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

// Sweep drops sessions idle for longer than maxAge and reports how
// many were removed.
func (st *Store) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, session := range st.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// SweepEvery sweeps expired sessions on a fixed interval until the
// returned stop function is called.
func (st *Store) SweepEvery(interval, maxAge time.Duration) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := st.Sweep(maxAge); removed > 0 {
					logger.GetLogger().WithField("removed", removed).
						Info("Swept expired import sessions")
				}
			case <-stop:
				return
			}
		}
	}()
	return func() { close(stop) }
}
