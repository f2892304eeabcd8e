// Package wiring assembles the proofing engine from configuration. Both
// binaries use it so the server and the worker always agree on queue names,
// store keys and vendor selection.
package wiring

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"idv/internal/platform/config"
	"idv/internal/platform/kafka"
	platformmetrics "idv/internal/platform/metrics"
	"idv/internal/platform/postgres"
	platformredis "idv/internal/platform/redis"
	"idv/internal/proofing/abtest"
	"idv/internal/proofing/asyncresult"
	"idv/internal/proofing/attempts"
	"idv/internal/proofing/costs"
	"idv/internal/proofing/job"
	proofingmetrics "idv/internal/proofing/metrics"
	"idv/internal/proofing/pii"
	"idv/internal/proofing/queue"
	"idv/internal/proofing/ratelimit"
	"idv/internal/proofing/resolution"
	"idv/internal/proofing/shadow"
	"idv/internal/proofing/ssn"
	"idv/internal/proofing/vendors"
	"idv/internal/proofing/vendors/aamva"
	"idv/internal/proofing/vendors/ddp"
	"idv/internal/proofing/vendors/instantverify"
	"idv/internal/proofing/vendors/mock"
	"idv/internal/proofing/vendors/socure"
	"idv/internal/proofing/worker"
	"idv/pkg/platform/circuit"
)

// QueueName is the redis list shared by the server and the workers.
const QueueName = "proofing"

// Infra holds the external connections. Any of them may be nil, in which
// case the in-memory implementation is used and a warning is logged.
type Infra struct {
	Redis    *platformredis.Client
	DB       *sql.DB
	Kafka    *kgo.Client
	Metrics  *platformmetrics.Metrics
	Proofing *proofingmetrics.Metrics

	cfg    config.Config
	logger *slog.Logger
	memQ   *queue.MemoryQueue
	memKV  *asyncresult.MemoryKV
	memRL  *ratelimit.MemoryStore
}

// Open connects to everything cfg names.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Infra, error) {
	infra := &Infra{cfg: cfg, logger: logger, Metrics: platformmetrics.New()}
	infra.Proofing = proofingmetrics.New(infra.Metrics.Registerer())

	var err error
	if infra.Redis, err = platformredis.New(ctx, cfg.Redis); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if infra.DB, err = postgres.Connect(ctx, cfg.Database); err != nil {
		infra.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if infra.Kafka, err = kafka.New(cfg.Kafka); err != nil {
		infra.Close()
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	if infra.Kafka != nil {
		if err := kafka.EnsureTopics(ctx, infra.Kafka, 3, 1, cfg.Kafka.AttemptsTopic); err != nil {
			logger.WarnContext(ctx, "could not ensure attempts topic", "error", err)
		}
	}

	if infra.Redis == nil {
		logger.WarnContext(ctx, "REDIS_URL not set, using in-memory result store and queue")
	}
	if infra.DB == nil {
		logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory profile store and cost ledger")
	}
	if infra.Kafka == nil {
		logger.WarnContext(ctx, "KAFKA_BROKERS not set, attempts events stay in memory")
	}
	return infra, nil
}

// InMemory reports whether jobs can only be consumed by this process.
func (i *Infra) InMemory() bool {
	return i.Redis == nil
}

// Health reports the first configured backend that does not answer.
func (i *Infra) Health(ctx context.Context) error {
	if err := i.Redis.Health(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if i.DB != nil {
		if err := i.DB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	return nil
}

func (i *Infra) Close() {
	if i.Kafka != nil {
		i.Kafka.Close()
	}
	if i.DB != nil {
		_ = i.DB.Close()
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
}

// Queue returns the job queue.
func (i *Infra) Queue() queue.Queue {
	if i.Redis != nil {
		return queue.NewRedisQueue(i.Redis.Client, QueueName)
	}
	if i.memQ == nil {
		i.memQ = queue.NewMemoryQueue(0)
	}
	return i.memQ
}

// ResultStore returns the encrypted async result store.
func (i *Infra) ResultStore() (*asyncresult.Store, error) {
	var kv asyncresult.KV
	if i.Redis != nil {
		kv = asyncresult.NewRedisKV(i.Redis.Client)
	} else {
		if i.memKV == nil {
			i.memKV = asyncresult.NewMemoryKV(time.Now)
		}
		kv = i.memKV
	}
	return asyncresult.New(kv, []byte(i.cfg.Proofing.EncryptionSecret),
		asyncresult.WithTTL(i.cfg.Proofing.AsyncResultTTL),
		asyncresult.WithLogger(i.logger),
	)
}

// RateLimiter caps resolution attempts per user. It returns nil, which
// allows every attempt, when ResolutionMaxAttempts is zero.
func (i *Infra) RateLimiter() (*ratelimit.Limiter, error) {
	p := i.cfg.Proofing
	if p.ResolutionMaxAttempts <= 0 {
		return nil, nil
	}
	var store ratelimit.Store
	if i.Redis != nil {
		store = ratelimit.NewRedisStore(i.Redis.Client)
	} else {
		if i.memRL == nil {
			i.memRL = ratelimit.NewMemoryStore(time.Now)
		}
		store = i.memRL
	}
	return ratelimit.New(store, p.ResolutionMaxAttempts, p.ResolutionAttemptWindow, ratelimit.WithLogger(i.logger))
}

// Encryptor seals proofing arguments.
func (i *Infra) Encryptor() (*pii.Encryptor, error) {
	return pii.NewEncryptor([]byte(i.cfg.Proofing.EncryptionSecret))
}

// CostRecorder bills vendor calls to the ledger and counts failed appends.
func (i *Infra) CostRecorder() *costs.Recorder {
	var ledger costs.Ledger = costs.NewMemoryLedger()
	if i.DB != nil {
		ledger = costs.NewPostgresLedger(i.DB)
	}
	return costs.NewRecorder(ledger,
		costs.WithLogger(i.logger),
		costs.WithErrorHook(i.Proofing.IncrementCostFailure),
	)
}

// SSNFinder checks SSN uniqueness against stored profiles.
func (i *Infra) SSNFinder() (*ssn.Finder, error) {
	fp, err := ssn.NewFingerprinter(i.cfg.Proofing.SSNHMACKey, i.cfg.Proofing.SSNHMACOldKeys)
	if err != nil {
		return nil, err
	}
	var store ssn.ProfileStore = ssn.NewMemoryProfileStore()
	if i.DB != nil {
		store = ssn.NewPostgresProfileStore(i.DB)
	}
	return ssn.NewFinder(fp, store, ssn.WithOneAccountIssuers(i.cfg.Proofing.OneAccountIssuers))
}

// AttemptsSink publishes attempt events.
func (i *Infra) AttemptsSink() (attempts.Sink, error) {
	if i.Kafka == nil {
		return attempts.NewMemorySink(), nil
	}
	return attempts.NewKafkaSink(i.Kafka,
		attempts.WithLogger(i.logger),
		attempts.WithTopic(i.cfg.Kafka.AttemptsTopic),
	)
}

// Vendors builds every proofer. A vendor without an endpoint is served by
// its mock so development needs no credentials. Real clients sit behind a
// circuit breaker unless VendorBreakerThreshold is zero.
func Vendors(cfg config.Config, logger *slog.Logger) (resolution.Vendors, error) {
	v := cfg.Vendors
	timeout := cfg.Proofing.VendorTimeout
	guard := func(p vendors.Proofer, name string) vendors.Proofer {
		if cfg.Proofing.VendorBreakerThreshold <= 0 {
			return p
		}
		return &vendors.GuardedProofer{Proofer: p, Breaker: breaker(cfg.Proofing, name), Logger: logger}
	}

	resolutionProofers := map[vendors.Family]vendors.Proofer{
		vendors.FamilyMock:          mock.ResolutionProofer{},
		vendors.FamilyInstantVerify: mock.ResolutionProofer{},
		vendors.FamilySocure:        mock.ResolutionProofer{},
	}
	if v.InstantVerifyURL != "" {
		resolutionProofers[vendors.FamilyInstantVerify] = guard(instantverify.New(v.InstantVerifyURL, v.APIKey, timeout), instantverify.VendorName)
	}
	if v.SocureURL != "" {
		resolutionProofers[vendors.FamilySocure] = guard(socure.New(v.SocureURL, v.APIKey, timeout), socure.VendorName)
	}

	var stateID vendors.Proofer = mock.StateIDProofer{}
	if v.AamvaURL != "" {
		schedule, err := maintenanceSchedule(v)
		if err != nil {
			return resolution.Vendors{}, err
		}
		stateID = guard(aamva.New(v.AamvaURL, v.APIKey, timeout, aamva.WithSchedule(schedule)), aamva.VendorName)
	}

	var device vendors.DeviceProofer = mock.DeviceProofer{}
	if v.DDPURL != "" {
		device = ddp.New(v.DDPURL, v.APIKey, v.DDPPolicy, timeout)
		if cfg.Proofing.VendorBreakerThreshold > 0 {
			device = &vendors.GuardedDeviceProofer{Proofer: device, Breaker: breaker(cfg.Proofing, ddp.VendorName), Logger: logger}
		}
	}

	return resolution.Vendors{Resolution: resolutionProofers, StateID: stateID, Device: device}, nil
}

func breaker(p config.Proofing, name string) *circuit.Breaker {
	return circuit.New(name,
		circuit.WithFailureThreshold(p.VendorBreakerThreshold),
		circuit.WithCooldown(p.VendorBreakerCooldown),
	)
}

func maintenanceSchedule(v config.Vendors) (*aamva.Schedule, error) {
	loc := time.UTC
	if v.AamvaTimezone != "" {
		var err error
		if loc, err = time.LoadLocation(v.AamvaTimezone); err != nil {
			return nil, fmt.Errorf("aamva timezone: %w", err)
		}
	}
	windows := make(map[string][]aamva.Window, len(v.AamvaMaintenanceWindows))
	for j, ws := range v.AamvaMaintenanceWindows {
		for _, w := range ws {
			windows[j] = append(windows[j], aamva.Window{Weekday: w.Weekday, StartMinute: w.StartMinute, EndMinute: w.EndMinute})
		}
	}
	return aamva.NewSchedule(loc, windows), nil
}

// ShadowBucketer assigns the non-docv shadow mode cohort.
func ShadowBucketer(p config.Proofing) (abtest.Registry, error) {
	exp, err := abtest.NewExperiment(shadow.Experiment,
		abtest.Allocation{Name: shadow.BucketNonDocvUsers, Percent: float64(p.ShadowModeABPercent)},
	)
	if err != nil {
		return abtest.Registry{}, err
	}
	return abtest.NewRegistry(exp), nil
}

// Worker builds the consumer pool with the proofing and shadow-mode runners.
func Worker(i *Infra) (*worker.Pool, error) {
	cfg := i.cfg
	family, err := vendors.ParseFamily(cfg.Proofing.ResolutionVendor)
	if err != nil {
		return nil, err
	}
	v, err := Vendors(cfg, i.logger)
	if err != nil {
		return nil, err
	}
	recorder := i.CostRecorder()

	proofer, err := resolution.New(v,
		resolution.WithLogger(i.logger),
		resolution.WithMetrics(i.Proofing),
		resolution.WithCostRecorder(recorder),
		resolution.WithSupportedJurisdictions(cfg.Proofing.AamvaSupportedJurisdictions),
		resolution.WithDeviceProfiling(cfg.Proofing.DeviceProfilingEnabled),
		resolution.WithDefaultFamily(family),
	)
	if err != nil {
		return nil, err
	}

	results, err := i.ResultStore()
	if err != nil {
		return nil, err
	}
	encryptor, err := i.Encryptor()
	if err != nil {
		return nil, err
	}
	finder, err := i.SSNFinder()
	if err != nil {
		return nil, err
	}
	sink, err := i.AttemptsSink()
	if err != nil {
		return nil, err
	}
	bucketer, err := ShadowBucketer(cfg.Proofing)
	if err != nil {
		return nil, err
	}
	q := i.Queue()

	runner, err := job.New(proofer, results, encryptor, finder,
		job.WithLogger(i.logger),
		job.WithMetrics(i.Proofing),
		job.WithStaleThreshold(cfg.Proofing.StaleJobThreshold),
		job.WithShadowMode(shadow.NewPolicy(cfg.Proofing, bucketer), q),
		job.WithAttemptsSink(sink),
	)
	if err != nil {
		return nil, err
	}

	shadowFamily := family.Alternate()
	shadowProofer, ok := v.Resolution[shadowFamily]
	if !ok {
		return nil, errors.New("wiring: no proofer for shadow mode family")
	}
	shadowRunner, err := shadow.NewRunner(results, encryptor, shadowProofer,
		shadow.WithLogger(i.logger),
		shadow.WithCostRecorder(recorder, shadowFamily.ResolutionCostType()),
	)
	if err != nil {
		return nil, err
	}

	pool, err := worker.New(q,
		worker.WithLogger(i.logger),
		worker.WithConcurrency(cfg.Proofing.WorkerConcurrency),
	)
	if err != nil {
		return nil, err
	}
	pool.Handle(queue.KindResolutionProofing, worker.ProofingHandler(runner))
	pool.Handle(queue.KindShadowProofing, worker.ShadowHandler(shadowRunner))
	return pool, nil
}
