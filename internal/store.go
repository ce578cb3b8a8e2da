package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FallbackReply replaces the assistant reply when the transport fails
const FallbackReply = "Désolé, une erreur est survenue lors de la communication avec l'API."

var (
	// ErrReplyDiscarded is returned by Pending.Wait when the conversation was left before the reply arrived
	ErrReplyDiscarded = errors.New("reply discarded: conversation no longer active")
	// ErrStoreClosed is returned when submitting to a closed store
	ErrStoreClosed = errors.New("store is closed")
)

// Responder produces an assistant reply for a user message
type Responder interface {
	Reply(ctx context.Context, text string) (string, error)
}

// ErrorHandler receives non-fatal errors: transport failures and persistence failures
type ErrorHandler func(error)

// Active is either no active conversation or the id of the session new messages append to
type Active struct {
	id  string
	set bool
}

// NoActive is the state where the next message starts a new session
func NoActive() Active { return Active{} }

// ActiveSession marks id as the active session
func ActiveSession(id string) Active { return Active{id: id, set: true} }

// ID returns the active session id, ok is false when there is none
func (a Active) ID() (string, bool) { return a.id, a.set }

// Option configures a Store
type Option func(*Store)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the session and message id generator
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithErrorHandler registers the callback for non-fatal errors. It runs after the store
// lock is released, so it may call back into the store
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *Store) { s.onError = h }
}

// WithStorageKey overrides the key the session list is stored under
func WithStorageKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// Store owns the ordered session list, the active session pointer and the displayed log.
// Every mutation rewrites the whole list under a single key; the last writer wins.
type Store struct {
	mu        sync.Mutex
	kv        KVStore
	key       string
	responder Responder
	now       func() time.Time
	newID     func() string
	onError   ErrorHandler

	sessions   []*Session // most recently created or updated first
	active     Active
	displayed  []Message
	persistErr error
	reports    []error // queued for onError until the lock is released

	// replies are bound to a conversation generation; leaving the conversation cancels them
	generation uint64
	convCtx    context.Context
	convCancel context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
}

// NewStore creates a store persisting into kv and asking responder for replies.
// The store does not own kv; callers close it after Close.
func NewStore(kv KVStore, responder Responder, opts ...Option) *Store {
	s := &Store{
		kv:        kv,
		key:       StorageKey,
		responder: responder,
		now:       time.Now,
		newID:     newUUID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.convCtx, s.convCancel = context.WithCancel(context.Background())
	return s
}

func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// LoadAll reads the persisted session list. A missing key yields an empty list
func (s *Store) LoadAll(ctx context.Context) ([]*Session, error) {
	blob, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*Session{}, nil
	}
	return DecodeSessions(s.key, blob)
}

// Init loads the persisted sessions into memory. Call once before use
func (s *Store) Init(ctx context.Context) error {
	sessions, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions
	s.active = NoActive()
	s.displayed = nil
	LogDebug("Loaded %d session(s) from %s", len(sessions), s.key)
	return nil
}

// SubmitMessage records a user message and requests the assistant reply in the background.
// Blank text is ignored and returns a nil Pending. ctx bounds the synchronous write only;
// the reply runs until it resolves or the conversation is left.
func (s *Store) SubmitMessage(ctx context.Context, text string) (*Pending, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.unlockAndReport()
	if s.closed {
		return nil, ErrStoreClosed
	}

	now := s.now()
	msg := Message{ID: s.newID(), Content: text, Sender: SenderUser, Timestamp: now}

	var session *Session
	if id, ok := s.active.ID(); ok {
		session = s.findLocked(id)
	}
	if session == nil {
		session = &Session{
			ID:        s.newID(),
			Title:     DeriveTitle(text),
			Messages:  []Message{msg},
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.sessions = append([]*Session{session}, s.sessions...)
		s.active = ActiveSession(session.ID)
		s.displayed = []Message{msg}
		LogDebug("Created session %s", session.ID)
	} else {
		s.appendLocked(session, msg)
	}
	s.flushLocked(ctx)

	return s.startReplyLocked(session.ID, text), nil
}

func (s *Store) startReplyLocked(sessionID, text string) *Pending {
	p := newPending(sessionID)
	gen := s.generation
	ctx := s.convCtx

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		reply, err := s.responder.Reply(ctx, text)
		s.resolve(p, gen, reply, err)
	}()
	return p
}

func (s *Store) resolve(p *Pending, gen uint64, reply string, err error) {
	s.mu.Lock()

	session := s.findLocked(p.SessionID)
	if gen != s.generation || session == nil {
		s.mu.Unlock()
		LogDebug("Discarding reply for session %s", p.SessionID)
		p.finish(Message{}, ErrReplyDiscarded)
		return
	}

	var transportErr error
	if err != nil {
		if !errors.Is(err, ErrTransport) {
			err = fmt.Errorf("%w: %w", ErrTransport, err)
		}
		transportErr = &TransportError{SessionID: p.SessionID, Err: err}
		LogWarn("Reply failed for session %s: %v", p.SessionID, err)
		s.reportLocked(transportErr)
		reply = FallbackReply
	}

	msg := Message{ID: s.newID(), Content: reply, Sender: SenderAssistant, Timestamp: s.now()}
	s.appendLocked(session, msg)
	s.flushLocked(context.Background())
	s.unlockAndReport()
	p.finish(msg, transportErr)
}

// LoadSession makes id the active session and displays its log. Unknown ids are ignored
func (s *Store) LoadSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.findLocked(id)
	if session == nil {
		LogDebug("LoadSession: unknown session %s", id)
		return
	}
	if current, ok := s.active.ID(); !ok || current != id {
		s.leaveConversationLocked()
	}
	s.active = ActiveSession(id)
	s.displayed = append([]Message(nil), session.Messages...)
}

// StartNewConversation clears the active session and the displayed log without touching storage
func (s *Store) StartNewConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startNewConversationLocked()
}

func (s *Store) startNewConversationLocked() {
	s.leaveConversationLocked()
	s.active = NoActive()
	s.displayed = nil
}

// leaveConversationLocked cancels outstanding replies of the current conversation
func (s *Store) leaveConversationLocked() {
	s.generation++
	s.convCancel()
	s.convCtx, s.convCancel = context.WithCancel(context.Background())
}

// DeleteSession removes a session and persists the reduced list. Deleting the active
// session also starts a new conversation. Unknown ids are ignored
func (s *Store) DeleteSession(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.unlockAndReport()

	idx := s.indexLocked(id)
	if idx < 0 {
		LogDebug("DeleteSession: unknown session %s", id)
		return
	}
	s.sessions = append(s.sessions[:idx:idx], s.sessions[idx+1:]...)
	s.flushLocked(ctx)

	if current, ok := s.active.ID(); ok && current == id {
		s.startNewConversationLocked()
	}
}

// Close cancels outstanding replies and waits for them to settle
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.leaveConversationLocked()
	s.mu.Unlock()

	s.wg.Wait()
	s.convCancel()
}

// Sessions returns a snapshot of all sessions, most recent first
func (s *Store) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session.Clone())
	}
	return out
}

// Session returns a snapshot of one session
func (s *Store) Session(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.findLocked(id)
	if session == nil {
		return nil, false
	}
	return session.Clone(), true
}

// Active returns the active session id, ok is false when no conversation is active
func (s *Store) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.ID()
}

// Displayed returns a snapshot of the displayed message log
func (s *Store) Displayed() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.displayed...)
}

// PersistErr returns the error of the most recent failed write, nil once a write succeeds
func (s *Store) PersistErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistErr
}

// appendLocked appends msg, refreshes UpdatedAt and moves the session to the front
func (s *Store) appendLocked(session *Session, msg Message) {
	session.Messages = append(session.Messages, msg)
	session.UpdatedAt = msg.Timestamp

	if idx := s.indexLocked(session.ID); idx > 0 {
		copy(s.sessions[1:idx+1], s.sessions[:idx])
		s.sessions[0] = session
	}
	if current, ok := s.active.ID(); ok && current == session.ID {
		s.displayed = append([]Message(nil), session.Messages...)
	}
}

// flushLocked rewrites the full session list. Failures are reported, never fatal:
// the in-memory list stays authoritative
func (s *Store) flushLocked(ctx context.Context) {
	blob, err := EncodeSessions(s.sessions)
	if err == nil {
		err = s.kv.Set(ctx, s.key, blob)
	}
	if err != nil {
		LogWarn("Failed to persist sessions: %v", err)
		s.persistErr = err
		s.reportLocked(err)
		return
	}
	s.persistErr = nil
}

func (s *Store) reportLocked(err error) {
	if s.onError != nil {
		s.reports = append(s.reports, err)
	}
}

// unlockAndReport releases the lock, then hands queued errors to onError
func (s *Store) unlockAndReport() {
	reports := s.reports
	s.reports = nil
	s.mu.Unlock()
	for _, err := range reports {
		s.onError(err)
	}
}

func (s *Store) findLocked(id string) *Session {
	if idx := s.indexLocked(id); idx >= 0 {
		return s.sessions[idx]
	}
	return nil
}

func (s *Store) indexLocked(id string) int {
	for i, session := range s.sessions {
		if session.ID == id {
			return i
		}
	}
	return -1
}

// Pending tracks an outstanding assistant reply
type Pending struct {
	SessionID string

	done  chan struct{}
	reply Message
	err   error
}

func newPending(sessionID string) *Pending {
	return &Pending{SessionID: sessionID, done: make(chan struct{})}
}

func (p *Pending) finish(reply Message, err error) {
	p.reply = reply
	p.err = err
	close(p.done)
}

// Done is closed once the reply has been appended or discarded
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the reply settles. On transport failure the returned message is the
// fallback reply and err wraps ErrTransport. A discarded reply returns ErrReplyDiscarded
func (p *Pending) Wait(ctx context.Context) (Message, error) {
	select {
	case <-p.done:
		return p.reply, p.err
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}
