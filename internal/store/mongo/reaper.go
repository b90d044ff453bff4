package mongo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qscale/logstore/internal/catalog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReaperConfig tunes the retention sweep cadence.
type ReaperConfig struct {
	// Interval between sweep cycles.
	Interval time.Duration `yaml:"interval"`
	// BatchSize is the number of records deleted per batch.
	BatchSize int `yaml:"batch_size"`
	// MaxBatchesPerCycle caps work per collection per cycle so a large
	// backlog cannot monopolize a cycle.
	MaxBatchesPerCycle int `yaml:"max_batches_per_cycle"`
}

// DefaultReaperConfig returns the default sweep settings.
func DefaultReaperConfig() ReaperConfig {
	return ReaperConfig{
		Interval:           15 * time.Minute,
		BatchSize:          500,
		MaxBatchesPerCycle: 20,
	}
}

// Reaper deletes records older than their collection's retention window
// on a background cadence, independent of read/write paths. It
// complements the TTL indexes: where the engine's own expiry thread is
// disabled or lagging, the reaper keeps retention enforced. Expiry
// deletes are never written back as operation records.
type Reaper struct {
	db      *mongo.Database
	cat     *catalog.Catalog
	config  ReaperConfig
	logger  *slog.Logger
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewReaper creates a reaper over the provider's database.
func NewReaper(p *Provider, cat *catalog.Catalog, config ReaperConfig, logger *slog.Logger) *Reaper {
	def := DefaultReaperConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxBatchesPerCycle <= 0 {
		config.MaxBatchesPerCycle = def.MaxBatchesPerCycle
	}

	return &Reaper{
		db:     p.Database(),
		cat:    cat,
		config: config,
		logger: logger.With("component", "retention-reaper"),
	}
}

// Start launches the sweep loop. It is a no-op if already running.
func (r *Reaper) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.runLoop(loopCtx)

	r.logger.Info("retention reaper started",
		"interval", r.config.Interval,
		"batch_size", r.config.BatchSize)
}

// Stop halts the loop and waits for an in-flight sweep to finish or ctx
// to expire.
func (r *Reaper) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.cancel()
	r.running = false
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("retention reaper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reaper) runLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one retention cycle over every log collection. Exported so
// operators can trigger an immediate cycle.
func (r *Reaper) Sweep(ctx context.Context) {
	sweepID := uuid.NewString()
	start := time.Now()
	var total int64

	for _, spec := range r.cat.LogSpecs() {
		n, err := r.sweepCollection(ctx, spec)
		total += n
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Error("sweep failed",
				"sweep_id", sweepID,
				"collection", spec.Collection,
				"error", err)
		}
	}

	if total > 0 {
		r.logger.Info("sweep complete",
			"sweep_id", sweepID,
			"deleted", total,
			"elapsed", time.Since(start))
	}
}

// sweepCollection deletes expired records in bounded batches so a large
// backlog never turns into one long-running delete.
func (r *Reaper) sweepCollection(ctx context.Context, spec catalog.CollectionSpec) (int64, error) {
	coll := r.db.Collection(spec.Collection)
	cutoff := time.Now().Add(-time.Duration(spec.RetentionSeconds) * time.Second)
	filter := bson.M{spec.TimeField: bson.M{"$lt": cutoff}}

	var total int64
	for i := 0; i < r.config.MaxBatchesPerCycle; i++ {
		ids, err := r.expiredBatch(ctx, coll, filter)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}

		res, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return total, err
		}
		total += res.DeletedCount

		if len(ids) < r.config.BatchSize {
			return total, nil
		}
	}
	return total, nil
}

func (r *Reaper) expiredBatch(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]primitive.ObjectID, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetLimit(int64(r.config.BatchSize))

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}
