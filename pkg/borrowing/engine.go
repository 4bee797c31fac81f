package borrowing

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/lending/pkg/metrics"
	"github.com/shishobooks/lending/pkg/models"
)

type Action string

const (
	ActionBorrow Action = "borrow"
	ActionReturn Action = "return"
)

// ActorResolver tells whether the user acting on a book exists.
type ActorResolver interface {
	UserExists(ctx context.Context, id int) (bool, error)
}

// Store persists the loan columns of a book.
type Store interface {
	SaveLoan(ctx context.Context, book *models.Book) error
}

type Engine struct {
	actors ActorResolver
	store  Store
	now    func() time.Time
}

func NewEngine(actors ActorResolver, store Store) *Engine {
	return &Engine{actors: actors, store: store, now: time.Now}
}

// WithClock replaces the clock used to date new loans.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Apply validates action against the book's loan state and the acting user,
// then stores the new loan state. Every problem found is reported together in
// a *ValidationError, in which case nothing is written. The book passed in is
// left untouched; the updated copy is returned.
func (e *Engine) Apply(ctx context.Context, book *models.Book, action Action, actorUserID string) (*models.Book, error) {
	log := logger.FromContext(ctx).Data(logger.Data{
		"book_id": book.ID,
		"action":  string(action),
	})

	verr := &ValidationError{}
	switch {
	case action == ActionBorrow && book.IsBorrowed():
		verr.add(InvalidTransition, "action", msgAlreadyBorrowed)
	case action == ActionReturn && !book.IsBorrowed():
		verr.add(InvalidTransition, "action", msgNotBorrowed)
	case action != ActionBorrow && action != ActionReturn:
		return nil, errors.Errorf("unknown borrowing action %q", action)
	}

	actorID, err := e.resolveActor(ctx, actorUserID, verr)
	if err != nil {
		metrics.BorrowingActions.WithLabelValues(string(action), metrics.OutcomeFailed).Inc()
		return nil, err
	}

	if !verr.empty() {
		metrics.BorrowingActions.WithLabelValues(string(action), metrics.OutcomeRejected).Inc()
		log.Info("borrowing action rejected", logger.Data{"reasons": verr.Error()})
		return nil, verr
	}

	// TODO: make the write conditional on the loan state read above
	// (UPDATE ... WHERE borrowed_on IS [NOT] NULL) so two concurrent borrows
	// of the same book can't both succeed.
	updated := *book
	if action == ActionBorrow {
		updated.Borrow(actorID, e.now())
	} else {
		updated.Return()
	}

	if err := e.store.SaveLoan(ctx, &updated); err != nil {
		metrics.BorrowingActions.WithLabelValues(string(action), metrics.OutcomeFailed).Inc()
		return nil, errors.WithStack(err)
	}

	metrics.BorrowingActions.WithLabelValues(string(action), metrics.OutcomeApplied).Inc()
	log.Info("borrowing action applied", logger.Data{"user_id": actorID})
	return &updated, nil
}

// resolveActor records identity problems on verr. Only lookup failures are
// returned as errors.
func (e *Engine) resolveActor(ctx context.Context, raw string, verr *ValidationError) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		verr.add(MissingActor, "", msgMissingActor)
		return 0, nil
	}

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		verr.add(UnknownActor, "", msgUnknownActor)
		return 0, nil
	}

	exists, err := e.actors.UserExists(ctx, id)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if !exists {
		verr.add(UnknownActor, "", msgUnknownActor)
		return 0, nil
	}
	return id, nil
}
