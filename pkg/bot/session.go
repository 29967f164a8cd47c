package bot

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSessionDone = errors.New("session: nothing to do")

type StepFn func(ctx context.Context, sess *Session) error

// Step handles one reply of a conversation and returns the step that waits
// for the next reply, or nil when the conversation is over.
type Step interface {
	Do(ctx context.Context, sess *Session) (Step, error)
}

type BaseStep struct {
	Fn StepFn
}

func (s BaseStep) Do(ctx context.Context, sess *Session) (Step, error) {
	return nil, s.Fn(ctx, sess)
}

func NewStep(fn StepFn) *BaseStep {
	return &BaseStep{Fn: fn}
}

type NextStep struct {
	BaseStep
	Next Step
}

func NewNextStep(fn StepFn, next Step) *NextStep {
	return &NextStep{BaseStep: *NewStep(fn), Next: next}
}

func (s NextStep) Do(ctx context.Context, sess *Session) (Step, error) {
	if err := s.Fn(ctx, sess); err != nil {
		return nil, err
	}
	return s.Next, nil
}

type ConditionFn func(ctx context.Context, sess *Session) (bool, error)

// ConditionalStep picks a branch for the current reply and runs it right
// away.
type ConditionalStep struct {
	ConditionFn ConditionFn
	TrueStep    Step
	FalseStep   Step
}

func NewConditionalStep(conditionFn ConditionFn, trueStep Step, falseStep Step) *ConditionalStep {
	return &ConditionalStep{ConditionFn: conditionFn, TrueStep: trueStep, FalseStep: falseStep}
}

func (s ConditionalStep) Do(ctx context.Context, sess *Session) (Step, error) {
	ok, err := s.ConditionFn(ctx, sess)
	if err != nil {
		return nil, err
	}
	branch := s.FalseStep
	if ok {
		branch = s.TrueStep
	}
	if branch == nil {
		return nil, nil
	}
	return branch.Do(ctx, sess)
}

// Session is a short conversation with one chat member. It expires at its
// deadline.
type Session struct {
	Name     string
	deadline time.Time
	step     Step
	values   map[interface{}]interface{}
}

func NewSession(name string, ttl time.Duration, step Step) *Session {
	return &Session{
		Name:     name,
		deadline: time.Now().Add(ttl),
		step:     step,
		values:   map[interface{}]interface{}{},
	}
}

func (s *Session) AddValue(key, val interface{}) {
	s.values[key] = val
}

func (s *Session) Value(key interface{}) interface{} {
	return s.values[key]
}

func (s *Session) Expired(now time.Time) bool {
	return !s.deadline.IsZero() && now.After(s.deadline)
}

func (s *Session) Done() bool {
	return s.step == nil
}

// Run feeds the current reply to the waiting step.
func (s *Session) Run(ctx context.Context) error {
	if s.step == nil {
		return ErrSessionDone
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	next, err := s.step.Do(ctx, s)
	if err != nil {
		s.step = nil
		return err
	}
	s.step = next
	return nil
}

// sessionTable holds at most one open session per user. Telebot runs
// handlers concurrently, so every access is locked.
type sessionTable struct {
	mu    sync.Mutex
	items map[int]*Session
}

func newSessionTable() *sessionTable {
	return &sessionTable{items: map[int]*Session{}}
}

func (t *sessionTable) Put(userID int, sess *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[userID] = sess
}

// Take removes and returns the live session of userID. Expired sessions
// are dropped.
func (t *sessionTable) Take(userID int, now time.Time) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.items[userID]
	if !ok {
		return nil, false
	}
	delete(t.items, userID)
	if sess.Expired(now) {
		return nil, false
	}
	return sess, true
}

func (t *sessionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}
