package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/events"
	"github.com/LegalDragon/Pickleball-Community-sub007/metrics"
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/LegalDragon/Pickleball-Community-sub007/repositories"
	"github.com/LegalDragon/Pickleball-Community-sub007/storage"
	"github.com/jmoiron/sqlx"
)

const maxCommandAttempts = 3

// Deps are shared by every division service.
type Deps struct {
	DB          *sqlx.DB
	Divisions   repositories.DivisionRepository
	Users       repositories.UserRepository
	Courts      repositories.CourtRepository
	Publisher   events.Publisher
	Metrics     metrics.Metrics
	Logger      *slog.Logger
	Clock       func() time.Time
	Random      Randomizer
	Broadcaster DrawingBroadcaster
	LosersFeed  LosersFeed
	// Archive receives drawing transcripts. Nil disables archiving.
	Archive storage.ObjectStore
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = models.Now
	}
	if d.Random == nil {
		d.Random = NewRandomizer(0)
	}
	if d.Broadcaster == nil {
		d.Broadcaster = NoopBroadcaster{}
	}
	if d.LosersFeed == nil {
		d.LosersFeed = ManualLosersFeed{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewMock()
	}
	if d.Publisher == nil {
		d.Publisher = events.NewRecorder()
	}
	return d
}

// Randomizer is the injected source for drawings and batch assignment.
type Randomizer interface {
	IntN(n int) int
	Perm(n int) []int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomizer returns a goroutine-safe PCG source. A zero seed picks a random one.
func NewRandomizer(seed uint64) Randomizer {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) Perm(n int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Perm(n)
}

// outbox collects what a command wants to publish once its transaction commits.
type outbox struct {
	events []events.Event
	after  []func()
}

func (o *outbox) emit(evts ...events.Event) {
	o.events = append(o.events, evts...)
}

func (o *outbox) afterCommit(fn func()) {
	o.after = append(o.after, fn)
}

type divisionLock struct {
	mu   sync.Mutex
	refs int
}

type divisionLocks struct {
	mu    sync.Mutex
	locks map[string]*divisionLock
}

// commandLocks serialises commands on the same division within this process. The version
// check in Save covers writers in other processes.
var commandLocks = &divisionLocks{locks: make(map[string]*divisionLock)}

func (l *divisionLocks) lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &divisionLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

type commandFunc func(ctx context.Context, tx *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error

type runner struct {
	deps Deps
}

// execute loads the division, applies fn and saves the result in one transaction. A save that
// loses the version race is retried on fresh state. Events and after-commit hooks only run
// once the transaction has committed.
func (r *runner) execute(ctx context.Context, command, divisionID string, fn commandFunc) (*models.DivisionAggregate, error) {
	unlock := commandLocks.lock(divisionID)
	defer unlock()

	start := time.Now()
	for attempt := 1; ; attempt++ {
		out := &outbox{}
		var result *models.DivisionAggregate
		err := repositories.WithTx(ctx, r.deps.DB, func(tx *sqlx.Tx) error {
			agg, err := r.deps.Divisions.Load(ctx, tx, divisionID)
			if err != nil {
				return err
			}
			if err := fn(ctx, tx, agg, out); err != nil {
				return err
			}
			if err := r.deps.Divisions.Save(ctx, tx, agg); err != nil {
				return err
			}
			result = agg
			return nil
		})
		if errors.Is(err, repositories.ErrVersionConflict) && attempt < maxCommandAttempts {
			r.deps.Metrics.IncVersionConflicts()
			r.deps.Logger.Warn("Division changed concurrently, retrying", "command", command, "division_id", divisionID, "attempt", attempt)
			continue
		}
		if err != nil {
			err = translateRepoError(err)
			kind := KindOf(err)
			r.deps.Metrics.IncCommandFailed(command, string(kind))
			if kind == KindInternal {
				r.deps.Logger.Error("Command failed", "command", command, "division_id", divisionID, "error", err)
			} else {
				r.deps.Logger.Debug("Command rejected", "command", command, "division_id", divisionID, "code", CodeOf(err))
			}
			return nil, err
		}

		r.deps.Metrics.ObserveCommandDuration(command, time.Since(start).Seconds())
		r.deps.Logger.Info("Command applied", "command", command, "division_id", divisionID, "version", result.Division.Version)
		if len(out.events) > 0 {
			r.deps.Publisher.Publish(ctx, out.events...)
		}
		for _, hook := range out.after {
			hook()
		}
		return result, nil
	}
}

// read loads the aggregate for queries. Nothing is written back.
func (r *runner) read(ctx context.Context, divisionID string) (*models.DivisionAggregate, error) {
	var agg *models.DivisionAggregate
	err := repositories.WithTx(ctx, r.deps.DB, func(tx *sqlx.Tx) error {
		var err error
		agg, err = r.deps.Divisions.Load(ctx, tx, divisionID)
		return err
	})
	if err != nil {
		return nil, translateRepoError(err)
	}
	return agg, nil
}

func translateRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrDivisionNotFound):
		return ErrDivisionNotFound
	case errors.Is(err, repositories.ErrCourtBusy):
		return ErrCourtBusy
	case errors.Is(err, repositories.ErrCourtNotFound):
		return ErrCourtNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrVersionConflict), errors.Is(err, repositories.ErrUniqueViolation):
		return fmt.Errorf("%w: %v", ErrConcurrentUpdate, err)
	}
	return err
}

func requireManager(agg *models.DivisionAggregate, actor models.Actor) error {
	if !agg.IsManager(actor) {
		return ErrForbidden
	}
	return nil
}
