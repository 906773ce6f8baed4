// Package wizard drives the multi-step mortgage application. The draft is
// accumulated locally and submitted once from the review step.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
)

var ErrNotFinalStep = errors.New("application can only be submitted from the review step")

// Submitter is the lead intake service as seen by the wizard.
type Submitter interface {
	CreateLead(ctx context.Context, in usecase.CreateLeadInput) (*entity.Lead, error)
	CreateRefinanceLead(ctx context.Context, in usecase.CreateRefinanceLeadInput) (*entity.Lead, error)
}

// IncompleteError is returned by Submit when a step still has field errors.
type IncompleteError struct {
	Step   Step
	Errors StepErrors
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s has %d invalid field(s)", e.Step, len(e.Errors))
}

// SubmitError wraps an intake failure. The draft is kept so the user can retry.
type SubmitError struct {
	Err       error
	Retryable bool
}

func (e *SubmitError) Error() string { return "submit application: " + e.Err.Error() }
func (e *SubmitError) Unwrap() error { return e.Err }

type Controller struct {
	mu        sync.Mutex
	draft     Draft
	current   Step
	store     DraftStore
	submitter Submitter
	logger    *logging.Logger
}

// New returns a controller positioned on the first step with any saved draft restored.
func New(store DraftStore, submitter Submitter, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Controller{
		store:     store,
		submitter: submitter,
		logger:    logger,
	}
	c.RestoreDraft()
	return c
}

func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) Current() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Update replaces the draft section for the record's step and persists the draft.
// A persistence failure is logged and otherwise ignored.
func (c *Controller) Update(data StepData) {
	c.mu.Lock()
	data.apply(&c.draft)
	err := c.persistLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Warnw("failed to save application draft", "step", data.step().String(), "error", err)
	}
}

func (c *Controller) ValidateStep(step Step) StepErrors {
	return c.Draft().Validate(step)
}

// Advance moves to the next step when the current one is valid. Otherwise it
// stays put and returns the errors.
func (c *Controller) Advance() StepErrors {
	c.mu.Lock()
	defer c.mu.Unlock()

	if errs := c.draft.Validate(c.current); len(errs) > 0 {
		return errs
	}
	if c.current < StepReview {
		c.current++
	}
	return nil
}

func (c *Controller) Retreat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current > StepBasicInfo {
		c.current--
	}
}

// GoTo jumps back to an earlier step, e.g. to edit from the review screen.
// Moving forward past an invalid step is refused.
func (c *Controller) GoTo(step Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if step < StepBasicInfo || step > StepReview {
		return fmt.Errorf("unknown step %d", step)
	}
	if step > c.current {
		for s := c.current; s < step; s++ {
			if errs := c.draft.Validate(s); len(errs) > 0 {
				return &IncompleteError{Step: s, Errors: errs}
			}
		}
	}
	c.current = step
	return nil
}

func (c *Controller) Steps() []StepStatus {
	current := c.Current()
	out := make([]StepStatus, 0, StepCount)
	for i := range StepCount {
		s := Step(i)
		state := StateUpcoming
		switch {
		case s < current:
			state = StateComplete
		case s == current:
			state = StateCurrent
		}
		out = append(out, StepStatus{Step: s, Name: s.String(), State: state})
	}
	return out
}

func (c *Controller) PersistDraft() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persistLocked()
}

func (c *Controller) persistLocked() error {
	data, err := json.Marshal(c.draft)
	if err != nil {
		return err
	}
	return c.store.Save(DraftKey, data)
}

// RestoreDraft loads the saved draft. A missing or unreadable draft leaves a
// fresh one and returns false.
func (c *Controller) RestoreDraft() bool {
	data, err := c.store.Load(DraftKey)
	if err != nil {
		if !errors.Is(err, ErrNoDraft) {
			c.logger.Warnw("failed to load application draft", "error", err)
		}
		c.reset()
		return false
	}

	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		c.logger.Warnw("discarding corrupt application draft", "error", err)
		c.reset()
		return false
	}

	c.mu.Lock()
	c.draft = d
	c.current = StepBasicInfo
	c.mu.Unlock()
	return true
}

func (c *Controller) reset() {
	c.mu.Lock()
	c.draft = Draft{}
	c.current = StepBasicInfo
	c.mu.Unlock()
}

// Submit sends the draft to the intake service once. On success the saved draft
// is removed and the controller starts over.
func (c *Controller) Submit(ctx context.Context) (*entity.Lead, error) {
	c.mu.Lock()
	if c.current != StepReview {
		c.mu.Unlock()
		return nil, ErrNotFinalStep
	}
	draft := c.draft
	c.mu.Unlock()

	if errs := draft.Validate(StepReview); len(errs) > 0 {
		return nil, &IncompleteError{Step: draft.FirstInvalid(), Errors: errs}
	}

	var (
		lead *entity.Lead
		err  error
	)
	if draft.IsRefinance() {
		lead, err = c.submitter.CreateRefinanceLead(ctx, draft.RefinanceInput())
	} else {
		lead, err = c.submitter.CreateLead(ctx, draft.LeadInput())
	}
	if err != nil {
		c.logger.Warnw("application submit failed", "email", draft.Basic.Email, "error", err)
		return nil, &SubmitError{Err: err, Retryable: retryable(err)}
	}

	if err := c.store.Delete(DraftKey); err != nil {
		c.logger.Warnw("failed to clear application draft", "error", err)
	}
	c.reset()
	return lead, nil
}

func retryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}
