package classifiers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/verdict/internal/engine"
	"github.com/JaimeStill/verdict/pkg/metrics"
	"github.com/JaimeStill/verdict/pkg/storage"
)

type orchestrator struct {
	store    Store
	engines  engine.Factory
	archives storage.System
	metrics  *metrics.Metrics
	logger   *slog.Logger
	cfg      Config
}

// New creates the classifier system. Every call restores a private engine from
// the stored snapshot; no engine outlives the call that restored it.
func New(
	store Store,
	engines engine.Factory,
	archives storage.System,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) System {
	return &orchestrator{
		store:    store,
		engines:  engines,
		archives: archives,
		metrics:  m,
		logger:   logger.With("system", "classifiers"),
		cfg:      cfg,
	}
}

func (o *orchestrator) Handler() *Handler {
	return NewHandler(o, o.logger)
}

func (o *orchestrator) List(ctx context.Context) ([]Summary, error) {
	return o.store.FindAll(ctx)
}

func (o *orchestrator) Create(ctx context.Context, cmd CreateCommand) (*Classifier, error) {
	eng, err := o.engines.Create()
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	state, err := eng.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot new engine: %w", err)
	}

	c, err := o.store.Insert(ctx, Classifier{
		ID:        uuid.New(),
		Name:      cmd.Name,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Version:   1,
		State:     state,
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("classifier created", "id", c.ID, "name", c.Name)
	return &c, nil
}

func (o *orchestrator) Find(ctx context.Context, id uuid.UUID) (*Classifier, error) {
	c, eng, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}

	state, err := eng.Snapshot()
	if err != nil {
		return nil, err
	}

	c.State = state
	return &c, nil
}

func (o *orchestrator) Rename(ctx context.Context, id uuid.UUID, cmd RenameCommand) (*Classifier, error) {
	if err := ValidateCommand(cmd); err != nil {
		return nil, err
	}

	return o.retry(ctx, id, "rename", func() (Classifier, error) {
		c, err := o.store.Find(ctx, id)
		if err != nil {
			return c, err
		}
		c.Name = *cmd.Name
		return o.store.Update(ctx, c)
	})
}

func (o *orchestrator) Delete(ctx context.Context, id uuid.UUID) error {
	if err := o.store.Delete(ctx, id); err != nil {
		return err
	}
	o.logger.Info("classifier deleted", "id", id)
	return nil
}

func (o *orchestrator) Learn(ctx context.Context, id uuid.UUID, batch Batch) (map[string]int, error) {
	items, err := ValidateLearnItems(batch, o.cfg.MaxBatchSize)
	if err != nil {
		o.metrics.BatchFailure("learn", "validation")
		return nil, err
	}

	var counts map[string]int
	_, err = o.retry(ctx, id, "learn", func() (Classifier, error) {
		c, eng, err := o.load(ctx, id)
		if err != nil {
			return c, err
		}

		for i, item := range items {
			if err := eng.Learn(item.Text, item.Category); err != nil {
				return c, fmt.Errorf("item %d: %w", i, err)
			}
		}

		if c.State, err = eng.Snapshot(); err != nil {
			return c, err
		}

		updated, err := o.store.Update(ctx, c)
		if err != nil {
			return updated, err
		}
		counts = eng.DocumentCounts()
		return updated, nil
	})
	if err != nil {
		o.metrics.BatchFailure("learn", reason(err))
		return nil, err
	}

	learned := make(map[string]int)
	for _, item := range items {
		learned[item.Category]++
	}
	for category, n := range learned {
		o.metrics.LearnedDocuments(category, n)
	}

	o.logger.Debug("classifier learned", "id", id, "items", len(items))
	return counts, nil
}

func (o *orchestrator) Categorize(ctx context.Context, id uuid.UUID, batch Batch) ([]Categorization, error) {
	_, eng, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if eng.TotalDocuments() == 0 {
		return nil, ErrNotTrained
	}

	items, err := ValidateCategorizeItems(batch, o.cfg.MaxBatchSize)
	if err != nil {
		o.metrics.BatchFailure("categorize", "validation")
		return nil, err
	}

	results := make([]Categorization, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.CategorizeWorkers)

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			r, err := eng.Categorize(item.Text)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}

			results[i] = Categorization{
				Text:        item.Text,
				Category:    r.Category,
				Probability: r.Probability,
				Categories:  r.Categories,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.metrics.BatchFailure("categorize", reason(err))
		return nil, err
	}

	o.metrics.Categorized(len(results))
	return results, nil
}

// load fetches the record and restores a private engine from its snapshot.
func (o *orchestrator) load(ctx context.Context, id uuid.UUID) (Classifier, engine.Engine, error) {
	c, err := o.store.Find(ctx, id)
	if err != nil {
		return c, nil, err
	}

	eng, err := o.engines.Restore(c.State)
	if err != nil {
		o.logger.Error("stored snapshot rejected", "id", id, "error", err)
		return c, nil, fmt.Errorf("restore classifier %s: %w", id, err)
	}
	return c, eng, nil
}

// retry runs a load-mutate-persist cycle, repeating it while the store reports
// a version conflict and retries remain.
func (o *orchestrator) retry(
	ctx context.Context,
	id uuid.UUID,
	op string,
	cycle func() (Classifier, error),
) (*Classifier, error) {
	for attempt := 0; ; attempt++ {
		c, err := cycle()
		if err == nil {
			return &c, nil
		}

		if !errors.Is(err, ErrConflict) {
			return nil, err
		}

		o.metrics.PersistConflict()
		if attempt >= o.cfg.MaxConflictRetries || ctx.Err() != nil {
			o.logger.Warn("version conflict retries exhausted", "id", id, "operation", op, "attempts", attempt+1)
			return nil, err
		}
		o.logger.Debug("version conflict, retrying", "id", id, "operation", op, "attempt", attempt+1)
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrCorruptState):
		return "corrupt_state"
	case errors.Is(err, ErrEngineFault):
		return "engine"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "persist"
	}
}
