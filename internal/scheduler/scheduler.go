package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kartikpanaganti/textlaire-sub002/internal/payroll"
)

// Config is the persisted state of the monthly payroll run. It survives
// restarts in redis so an Enable set through the API is not lost when the
// worker is redeployed.
type Config struct {
	Enabled    bool       `json:"enabled"`
	DayOfMonth int        `json:"day_of_month"`
	HourUTC    int        `json:"hour_utc"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
}

func defaultConfig() Config {
	return Config{Enabled: false, DayOfMonth: 1, HourUTC: 2}
}

const configKey = "payroll:scheduler:config"

var ErrInvalidSchedule = errors.New("day of month must be between 1 and 28")

//go:generate mockgen -source=scheduler.go -destination=mock/scheduler_mock.go -package=mock
type Store interface {
	Load(ctx context.Context) (Config, error)
	Save(ctx context.Context, cfg Config) error
}

type redisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func (s *redisStore) Load(ctx context.Context) (Config, error) {
	val, err := s.rdb.Get(ctx, configKey).Result()
	if errors.Is(err, redis.Nil) {
		return defaultConfig(), nil
	}
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := json.Unmarshal([]byte(val), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (s *redisStore) Save(ctx context.Context, cfg Config) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, configKey, payload, 0).Err()
}

// Scheduler runs the bulk generation for the previous calendar month on
// the configured day.
type Scheduler struct {
	store   Store
	service payroll.Service
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

func New(store Store, service payroll.Service, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		service: service,
		logger:  logger.Named("payroll.scheduler"),
		now:     time.Now,
		cron:    cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start loads the persisted config and begins ticking. Safe to call once.
func (s *Scheduler) Start(ctx context.Context) error {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	if cfg.Enabled {
		if err := s.schedule(cfg); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("day_of_month", cfg.DayOfMonth),
	)
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Enable turns the monthly run on. Days past 28 are rejected so the job
// fires in every month.
func (s *Scheduler) Enable(ctx context.Context, dayOfMonth, hourUTC int) (Config, error) {
	if dayOfMonth < 1 || dayOfMonth > 28 {
		return Config{}, ErrInvalidSchedule
	}
	if hourUTC < 0 || hourUTC > 23 {
		return Config{}, ErrInvalidSchedule
	}

	cfg, err := s.store.Load(ctx)
	if err != nil {
		return Config{}, err
	}

	cfg.Enabled = true
	cfg.DayOfMonth = dayOfMonth
	cfg.HourUTC = hourUTC

	if err := s.store.Save(ctx, cfg); err != nil {
		return Config{}, err
	}
	if err := s.schedule(cfg); err != nil {
		return Config{}, err
	}

	s.logger.Info("scheduler enabled",
		zap.Int("day_of_month", cfg.DayOfMonth),
		zap.Int("hour_utc", cfg.HourUTC),
	)
	return cfg, nil
}

func (s *Scheduler) Disable(ctx context.Context) (Config, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return Config{}, err
	}

	cfg.Enabled = false
	if err := s.store.Save(ctx, cfg); err != nil {
		return Config{}, err
	}

	s.unschedule()
	s.logger.Info("scheduler disabled")
	return cfg, nil
}

func (s *Scheduler) Status(ctx context.Context) (Config, error) {
	return s.store.Load(ctx)
}

func (s *Scheduler) schedule(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	spec := fmt.Sprintf("0 %d %d * *", cfg.HourUTC, cfg.DayOfMonth)
	id, err := s.cron.AddFunc(spec, s.runOnce)
	if err != nil {
		return err
	}
	s.entryID = id
	return nil
}

func (s *Scheduler) unschedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}
}

// WatchConfig reloads the persisted config on an interval and reschedules
// when it changed. The API process mutates the config in redis; the worker
// process picks the change up here without a restart.
func (s *Scheduler) WatchConfig(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last Config
	if cfg, err := s.store.Load(ctx); err == nil {
		last = cfg
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cfg, err := s.store.Load(ctx)
			if err != nil {
				s.logger.Warn("reload scheduler config failed", zap.Error(err))
				continue
			}

			if cfg.Enabled == last.Enabled &&
				cfg.DayOfMonth == last.DayOfMonth &&
				cfg.HourUTC == last.HourUTC {
				continue
			}

			if cfg.Enabled {
				if err := s.schedule(cfg); err != nil {
					s.logger.Error("reschedule failed", zap.Error(err))
					continue
				}
			} else {
				s.unschedule()
			}

			s.logger.Info("scheduler config reloaded",
				zap.Bool("enabled", cfg.Enabled),
				zap.Int("day_of_month", cfg.DayOfMonth),
				zap.Int("hour_utc", cfg.HourUTC),
			)
			last = cfg
		}
	}
}

// runOnce generates payrolls for the previous calendar month.
func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.RunForPreviousMonth(ctx)
}

func (s *Scheduler) RunForPreviousMonth(ctx context.Context) {
	// Anchor on the first of the current month; stepping back a month from
	// day 29-31 would normalize into the current month again.
	today := s.now().UTC()
	prev := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)

	result, err := s.service.GenerateAll(ctx, payroll.GenerateAllRequest{
		Month: int(prev.Month()),
		Year:  prev.Year(),
	})
	if err != nil {
		s.logger.Error("scheduled generation failed",
			zap.Int("month", int(prev.Month())),
			zap.Int("year", prev.Year()),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("scheduled generation finished",
		zap.Int("month", int(prev.Month())),
		zap.Int("year", prev.Year()),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
	)

	cfg, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("load scheduler config failed", zap.Error(err))
		return
	}
	ranAt := s.now().UTC()
	cfg.LastRunAt = &ranAt
	if err := s.store.Save(ctx, cfg); err != nil {
		s.logger.Error("save scheduler config failed", zap.Error(err))
	}
}
