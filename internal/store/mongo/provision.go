package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qscale/logstore/internal/catalog"
	"github.com/qscale/logstore/pkg/record"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Server error codes the provisioner recognizes.
const (
	codeNamespaceExists = 48
	codeUserExists      = 51003
)

// ProvisionConfig carries the credentials to create at bootstrap. A
// user with an empty password is skipped (with a warning) so local
// setups without auth can still provision collections and indexes.
type ProvisionConfig struct {
	AppUser          string `yaml:"app_user"`
	AppPassword      string `yaml:"app_password"`
	ReadonlyUser     string `yaml:"readonly_user"`
	ReadonlyPassword string `yaml:"readonly_password"`
}

// DefaultProvisionConfig returns the default usernames. Passwords have
// no default; they come from configuration or environment.
func DefaultProvisionConfig() ProvisionConfig {
	return ProvisionConfig{
		AppUser:      "qs_app_user",
		ReadonlyUser: "qs_readonly_user",
	}
}

// Provisioner performs the run-once bootstrap: collections with
// validators, the index plan, role-scoped credentials, and seed config
// entries. Re-running is idempotent: existing collections get their
// validator re-asserted, index creation is a no-op for existing
// indexes, existing users are left untouched, and seeds only insert.
type Provisioner struct {
	db     *mongo.Database
	cat    *catalog.Catalog
	cfg    ProvisionConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewProvisioner builds a provisioner over the provider's database.
func NewProvisioner(p *Provider, cat *catalog.Catalog, cfg ProvisionConfig, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		db:     p.Database(),
		cat:    cat,
		cfg:    cfg,
		logger: logger.With("component", "provisioner"),
		now:    time.Now,
	}
}

// Run executes every bootstrap step in order. The first failure halts
// with a ProvisioningError naming the step; completed steps stay applied
// and a re-run picks up where it left off.
func (pr *Provisioner) Run(ctx context.Context) error {
	for _, spec := range pr.cat.Specs() {
		if err := pr.ensureCollection(ctx, spec); err != nil {
			return &record.ProvisioningError{Step: "create collection " + spec.Collection, Err: err}
		}
		if err := pr.ensureIndexes(ctx, spec); err != nil {
			return &record.ProvisioningError{Step: "create indexes " + spec.Collection, Err: err}
		}
	}

	if err := pr.ensureUsers(ctx); err != nil {
		return err
	}

	firstRun, err := pr.seedConfigs(ctx)
	if err != nil {
		return &record.ProvisioningError{Step: "seed configs", Err: err}
	}

	if firstRun {
		if err := pr.recordInitialization(ctx); err != nil {
			return &record.ProvisioningError{Step: "record initialization", Err: err}
		}
	}

	pr.logger.Info("provisioning complete", "first_run", firstRun)
	return nil
}

// ensureCollection creates the collection with its $jsonSchema
// validator attached. If the collection already exists the validator is
// re-asserted via collMod, so catalog schema changes propagate on re-run.
func (pr *Provisioner) ensureCollection(ctx context.Context, spec catalog.CollectionSpec) error {
	err := pr.db.RunCommand(ctx, bson.D{
		{Key: "create", Value: spec.Collection},
		{Key: "validator", Value: spec.JSONSchema()},
	}).Err()
	if err == nil {
		pr.logger.Info("collection created", "collection", spec.Collection)
		return nil
	}
	if !hasErrorCode(err, codeNamespaceExists) {
		return err
	}

	err = pr.db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: spec.Collection},
		{Key: "validator", Value: spec.JSONSchema()},
	}).Err()
	if err != nil {
		return fmt.Errorf("collMod: %w", err)
	}
	pr.logger.Debug("collection exists, validator re-asserted", "collection", spec.Collection)
	return nil
}

func (pr *Provisioner) ensureIndexes(ctx context.Context, spec catalog.CollectionSpec) error {
	models := spec.IndexModels()
	if len(models) == 0 {
		return nil
	}
	names, err := pr.db.Collection(spec.Collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	pr.logger.Debug("indexes ensured", "collection", spec.Collection, "indexes", names)
	return nil
}

func (pr *Provisioner) ensureUsers(ctx context.Context) error {
	users := []struct {
		name     string
		password string
		roles    bson.A
	}{
		{pr.cfg.AppUser, pr.cfg.AppPassword, bson.A{"readWrite", "dbAdmin"}},
		{pr.cfg.ReadonlyUser, pr.cfg.ReadonlyPassword, bson.A{"read"}},
	}

	for _, u := range users {
		if u.name == "" {
			continue
		}
		if u.password == "" {
			pr.logger.Warn("no password configured, skipping user creation", "user", u.name)
			continue
		}
		err := pr.db.RunCommand(ctx, bson.D{
			{Key: "createUser", Value: u.name},
			{Key: "pwd", Value: u.password},
			{Key: "roles", Value: u.roles},
		}).Err()
		if err != nil {
			if hasErrorCode(err, codeUserExists) {
				pr.logger.Debug("user already exists", "user", u.name)
				continue
			}
			return &record.ProvisioningError{Step: "create user " + u.name, Err: err}
		}
		pr.logger.Info("user created", "user", u.name, "roles", fmt.Sprint(u.roles))
	}
	return nil
}

// seedConfigs inserts the baseline config entries with $setOnInsert so
// re-runs never clobber operator edits. Returns whether this run
// initialized the store.
func (pr *Provisioner) seedConfigs(ctx context.Context) (bool, error) {
	spec, err := pr.cat.Spec(record.KindConfig)
	if err != nil {
		return false, err
	}
	coll := pr.db.Collection(spec.Collection)

	seeds := []record.ConfigEntry{
		{Key: "system_initialized", Value: true, Description: "whether the log store has been initialized"},
		{Key: "data_retention_days", Value: 365, Description: "baseline data retention in days"},
	}
	if version := pr.serverVersion(ctx); version != "" {
		seeds = append(seeds, record.ConfigEntry{
			Key: "mongodb_version", Value: version, Description: "storage engine version at provisioning time",
		})
	}

	firstRun := false
	for _, seed := range seeds {
		res, err := coll.UpdateOne(ctx,
			bson.M{"key": seed.Key},
			bson.M{"$setOnInsert": bson.M{
				"key":         seed.Key,
				"value":       seed.Value,
				"description": seed.Description,
				"updated_at":  pr.now(),
				"updated_by":  "system",
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return false, fmt.Errorf("seed %s: %w", seed.Key, err)
		}
		if seed.Key == "system_initialized" && res.UpsertedCount > 0 {
			firstRun = true
		}
	}
	return firstRun, nil
}

func (pr *Provisioner) serverVersion(ctx context.Context) string {
	var info struct {
		Version string `bson:"version"`
	}
	if err := pr.db.RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&info); err != nil {
		pr.logger.Warn("buildInfo unavailable", "error", err)
		return ""
	}
	return info.Version
}

// recordInitialization appends the bootstrap activity record through
// the regular validated write path.
func (pr *Provisioner) recordInitialization(ctx context.Context) error {
	writer := &logWriter{db: pr.db, cat: pr.cat, now: pr.now}
	rec := record.ActivityRecord{
		Type:      "system_initialization",
		Timestamp: pr.now(),
		IPAddress: "127.0.0.1",
		UserAgent: "logstore-provision",
		Details: record.Mapping{
			"message": "log store provisioning complete",
		},
	}
	_, err := writer.Append(ctx, record.KindActivity, rec.Document(), nil)
	return err
}

func hasErrorCode(err error, code int) bool {
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		return srvErr.HasErrorCode(code)
	}
	return false
}
