package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
)

// Options tune a Session. Zero values fall back to defaults.
type Options struct {
	// Debouncer is shared between sessions so each key has at most one pending save.
	Debouncer *Debouncer
	// OnSaveDue replaces the direct store write when the debounce window closes.
	// Implementations must eventually call Session.Flush.
	OnSaveDue func(s *Session)
	Policy    AttachmentPolicy
	Logger    *zap.Logger
	Now       func() time.Time
}

// Submission is what a successful submit hands to the caller.
type Submission struct {
	Key    Key
	Fields map[string]string
	Resume *Attachment
}

// Submitter persists a submission.
type Submitter func(ctx context.Context, sub Submission) error

// State is a read-only view of a session.
type State struct {
	Key         Key               `json:"key"`
	Steps       []Step            `json:"steps"`
	CurrentStep int               `json:"currentStep"`
	TotalSteps  int               `json:"totalSteps"`
	Fields      map[string]string `json:"fields"`
	Resume      *AttachmentInfo   `json:"resume,omitempty"`
	Restored    bool              `json:"restored"`
	Submitted   bool              `json:"submitted"`
	LastActive  time.Time         `json:"lastActive"`
}

// Session is one client's progress through the wizard for one posting.
// It starts at step 1, or at the draft's step when a draft exists.
type Session struct {
	key      Key
	steps    []Step
	store    DraftStore
	debounce *Debouncer
	onDue    func(s *Session)
	policy   AttachmentPolicy
	logger   *zap.Logger
	now      func() time.Time

	// io serialises store writes against submit and start-over.
	io sync.Mutex

	mu         sync.Mutex
	fields     map[string]string
	resume     *Attachment
	current    int
	restored   bool
	closed     bool
	submitted  bool
	dirty      bool
	lastActive time.Time
}

// NewSession builds a session, restoring the stored draft for key if any.
func NewSession(ctx context.Context, key Key, steps []Step, store DraftStore, opts Options) (*Session, error) {
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	if store == nil {
		return nil, fmt.Errorf("draft store required")
	}
	if opts.Debouncer == nil {
		opts.Debouncer = NewDebouncer(0)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		key:      key,
		steps:    steps,
		store:    store,
		debounce: opts.Debouncer,
		onDue:    opts.OnSaveDue,
		policy:   opts.Policy,
		logger:   opts.Logger,
		now:      opts.Now,
		fields:   make(map[string]string),
		current:  1,
	}
	s.lastActive = s.now()

	draft, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNoDraft):
	case err != nil:
		return nil, appErrors.Storage(err, "failed to load application draft")
	case draft != nil:
		s.restore(*draft)
	}
	return s, nil
}

func (s *Session) restore(d Draft) {
	for k, v := range d.Fields {
		s.fields[k] = v
	}
	if d.Resume != nil {
		r := *d.Resume
		s.resume = &r
	}
	s.current = clampStep(d.CurrentStep, len(s.steps))
	s.restored = true
}

// Key returns the draft key.
func (s *Session) Key() Key {
	return s.key
}

// Restored reports whether the session started from a stored draft.
func (s *Session) Restored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restored
}

// CurrentStep returns the 1-based step.
func (s *Session) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// LastActive returns the time of the last mutation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SetField stores one value and schedules a draft save.
func (s *Session) SetField(name, value string) error {
	return s.SetFields(map[string]string{name: value})
}

// SetFields stores several values at once and schedules a single draft save.
func (s *Session) SetFields(values map[string]string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	for name, value := range values {
		name = strings.TrimSpace(name)
		if name == "" || name == FieldResume {
			continue
		}
		s.fields[name] = value
	}
	s.touchLocked()
	s.mu.Unlock()
	s.scheduleSave()
	return nil
}

// AttachResume validates and stores the resume. A rejected file keeps the previous attachment.
func (s *Session) AttachResume(f File) (AttachmentInfo, error) {
	att, err := s.policy.Accept(f)
	if err != nil {
		return AttachmentInfo{}, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return AttachmentInfo{}, ErrSessionClosed
	}
	s.resume = att
	s.touchLocked()
	s.mu.Unlock()
	s.scheduleSave()
	return att.Info(), nil
}

// Validate checks the required fields of step n.
func (s *Session) Validate(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked(n)
}

func (s *Session) validateLocked(n int) error {
	if n < 1 || n > len(s.steps) {
		return appErrors.Validation(fmt.Sprintf("step %d does not exist", n), "step")
	}
	step := s.steps[n-1]
	missing := missingFields(step, s.fields, s.resume != nil)
	if len(missing) == 0 {
		return nil
	}
	return appErrors.Validation(fmt.Sprintf("please complete %s: %s", strings.ToLower(step.Title), strings.Join(missing, ", ")), missing...)
}

// Next advances one step when the current step validates. The step never changes on failure.
func (s *Session) Next() (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSessionClosed
	}
	if err := s.validateLocked(s.current); err != nil {
		current := s.current
		s.mu.Unlock()
		return current, err
	}
	if s.current >= len(s.steps) {
		current := s.current
		s.mu.Unlock()
		return current, ErrLastStep
	}
	s.current++
	s.touchLocked()
	current := s.current
	s.mu.Unlock()
	s.scheduleSave()
	return current, nil
}

// Prev goes back one step without validation. Step 1 stays at 1.
func (s *Session) Prev() (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSessionClosed
	}
	if s.current > 1 {
		s.current--
	}
	s.touchLocked()
	current := s.current
	s.mu.Unlock()
	s.scheduleSave()
	return current, nil
}

// Submit hands the completed form to submit. It is only allowed from the last
// step and requires every step to validate. On success the draft is deleted
// and the session becomes closed.
func (s *Session) Submit(ctx context.Context, submit Submitter) error {
	s.io.Lock()
	defer s.io.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.current != len(s.steps) {
		s.mu.Unlock()
		return ErrNotLastStep
	}
	for n := 1; n <= len(s.steps); n++ {
		if err := s.validateLocked(n); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	sub := Submission{Key: s.key, Fields: copyFields(s.fields)}
	if s.resume != nil {
		r := *s.resume
		sub.Resume = &r
	}
	s.mu.Unlock()

	if err := submit(ctx, sub); err != nil {
		return err
	}

	s.mu.Lock()
	s.closed = true
	s.submitted = true
	s.dirty = false
	s.mu.Unlock()
	s.debounce.Cancel(s.key.String())

	if err := s.store.Remove(ctx, s.key); err != nil {
		s.logger.Warn("failed to remove submitted draft", zap.String("draft", s.key.String()), zap.Error(err))
	}
	return nil
}

// StartOver discards the draft and resets the session to an empty step 1.
func (s *Session) StartOver(ctx context.Context) error {
	s.io.Lock()
	defer s.io.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	s.debounce.Cancel(s.key.String())
	if err := s.store.Remove(ctx, s.key); err != nil {
		return appErrors.Storage(err, "failed to discard application draft")
	}

	s.mu.Lock()
	s.fields = make(map[string]string)
	s.resume = nil
	s.current = 1
	s.restored = false
	s.dirty = false
	s.touchLocked()
	s.mu.Unlock()
	return nil
}

// Close drops any pending save and ends the session without touching the stored draft.
func (s *Session) Close() {
	s.debounce.Cancel(s.key.String())
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether the session was submitted or closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Flush writes the latest state to the draft store if it changed since the last write.
// Closed sessions never write.
func (s *Session) Flush(ctx context.Context) error {
	s.io.Lock()
	defer s.io.Unlock()

	s.mu.Lock()
	if s.closed || !s.dirty {
		s.mu.Unlock()
		return nil
	}
	draft := s.draftLocked()
	s.dirty = false
	s.mu.Unlock()

	if err := s.store.Set(ctx, s.key, draft); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return fmt.Errorf("save draft %s: %w", s.key, err)
	}
	return nil
}

// Draft returns the current values as a draft.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftLocked()
}

// Snapshot returns the session state without the resume payload.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Key:         s.key,
		Steps:       s.steps,
		CurrentStep: s.current,
		TotalSteps:  len(s.steps),
		Fields:      copyFields(s.fields),
		Restored:    s.restored,
		Submitted:   s.submitted,
		LastActive:  s.lastActive,
	}
	if s.resume != nil {
		info := s.resume.Info()
		st.Resume = &info
	}
	return st
}

func (s *Session) draftLocked() Draft {
	d := Draft{
		JobID:       s.key.JobID,
		Fields:      copyFields(s.fields),
		CurrentStep: s.current,
		SavedAt:     s.now().UTC(),
	}
	if s.resume != nil {
		r := *s.resume
		d.Resume = &r
	}
	return d
}

func (s *Session) touchLocked() {
	s.dirty = true
	s.lastActive = s.now()
}

func (s *Session) scheduleSave() {
	s.debounce.Trigger(s.key.String(), func() {
		if s.onDue != nil {
			s.onDue(s)
			return
		}
		if err := s.Flush(context.Background()); err != nil {
			s.logger.Warn("draft save failed", zap.String("draft", s.key.String()), zap.Error(err))
		}
	})
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func clampStep(n, total int) int {
	if n < 1 {
		return 1
	}
	if n > total {
		return total
	}
	return n
}
