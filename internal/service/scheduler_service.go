package service

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"agent-learning-be/internal/constant"
	"agent-learning-be/internal/dto"
	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/pkg/logger"
	"agent-learning-be/internal/repository/unitofwork"
	"agent-learning-be/pkg/events"
	pkgNats "agent-learning-be/pkg/nats"

	"github.com/google/uuid"
)

// Error-rate thresholds behind the derived health label.
const (
	healthGoodMax = 0.1
	healthFairMax = 0.3
)

type SchedulerIntervals struct {
	Extraction time.Duration
	Scoring    time.Duration
	Cleanup    time.Duration
}

type ISchedulerService interface {
	// Start launches the three cycles: each runs once immediately, then
	// on its own timer, until Stop.
	Start(ctx context.Context)

	// Stop clears the timers and waits for in-flight cycles to finish.
	Stop()

	// RunCycle executes a single named cycle synchronously. Errors and
	// panics are captured into the learning_errors table and returned.
	RunCycle(ctx context.Context, cycleType string) error

	Status() *dto.SchedulerStatus
}

type cycleCounter struct {
	runs          int64
	errors        int64
	totalDuration time.Duration
	lastRunAt     *time.Time
}

type schedulerService struct {
	extraction    IExtractionService
	effectiveness IEffectivenessService
	cleanup       ICleanupService
	publisher     IPublisherService
	natsPublisher *pkgNats.Publisher
	uowFactory    unitofwork.RepositoryFactory
	sysLogger     logger.ILogger
	intervals     SchedulerIntervals

	mu             sync.Mutex
	counters       map[string]*cycleCounter
	lastExtraction *time.Time
	running        bool
	stop           chan struct{}
	wg             sync.WaitGroup
}

func NewSchedulerService(
	extraction IExtractionService,
	effectiveness IEffectivenessService,
	cleanup ICleanupService,
	publisher IPublisherService,
	natsPublisher *pkgNats.Publisher,
	uowFactory unitofwork.RepositoryFactory,
	sysLogger logger.ILogger,
	intervals SchedulerIntervals,
) ISchedulerService {
	return &schedulerService{
		extraction:    extraction,
		effectiveness: effectiveness,
		cleanup:       cleanup,
		publisher:     publisher,
		natsPublisher: natsPublisher,
		uowFactory:    uowFactory,
		sysLogger:     sysLogger,
		intervals:     intervals,
		counters: map[string]*cycleCounter{
			constant.CycleExtraction: {},
			constant.CycleScoring:    {},
			constant.CycleCleanup:    {},
		},
	}
}

func (s *schedulerService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.mu.Unlock()

	cycles := map[string]time.Duration{
		constant.CycleExtraction: s.intervals.Extraction,
		constant.CycleScoring:    s.intervals.Scoring,
		constant.CycleCleanup:    s.intervals.Cleanup,
	}
	for cycleType, interval := range cycles {
		s.wg.Add(1)
		go s.runLoop(ctx, cycleType, interval)
	}

	s.sysLogger.Info("scheduler", "Learning scheduler started", map[string]interface{}{
		"extraction_interval": s.intervals.Extraction.String(),
		"scoring_interval":    s.intervals.Scoring.String(),
		"cleanup_interval":    s.intervals.Cleanup.String(),
	})
}

func (s *schedulerService) runLoop(ctx context.Context, cycleType string, interval time.Duration) {
	defer s.wg.Done()

	// First run fires immediately on startup.
	_ = s.RunCycle(ctx, cycleType)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A failed cycle never cancels the next scheduled run.
			_ = s.RunCycle(ctx, cycleType)
		}
	}
}

func (s *schedulerService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	s.sysLogger.Info("scheduler", "Learning scheduler stopped", nil)
}

func (s *schedulerService) RunCycle(ctx context.Context, cycleType string) (err error) {
	switch cycleType {
	case constant.CycleExtraction, constant.CycleScoring, constant.CycleCleanup:
	default:
		// Rejected before any counter or metric bookkeeping applies.
		return fmt.Errorf("%w: unknown cycle type %q", ErrInvalidInput, cycleType)
	}

	start := time.Now()
	var metrics map[string]interface{}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
			s.recordError(ctx, cycleType, err, string(debug.Stack()))
		}
		s.finishCycle(ctx, cycleType, start, metrics, err)
	}()

	switch cycleType {
	case constant.CycleExtraction:
		metrics, err = s.runExtraction(ctx)
	case constant.CycleScoring:
		metrics, err = s.runScoring(ctx)
	case constant.CycleCleanup:
		metrics, err = s.runCleanup(ctx)
	}

	if err != nil {
		s.recordError(ctx, cycleType, err, "")
	}
	return err
}

func (s *schedulerService) runExtraction(ctx context.Context) (map[string]interface{}, error) {
	s.mu.Lock()
	since := s.lastExtraction
	s.mu.Unlock()

	patterns, err := s.extraction.ExtractPatterns(ctx, since)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.mu.Lock()
	s.lastExtraction = &now
	s.mu.Unlock()

	if len(patterns) > 0 && s.natsPublisher != nil {
		roles := make([]string, 0, len(patterns))
		seen := map[string]bool{}
		for _, pattern := range patterns {
			if !seen[pattern.AgentRole] {
				seen[pattern.AgentRole] = true
				roles = append(roles, pattern.AgentRole)
			}
		}
		if err := s.natsPublisher.Publish(ctx, events.NewPatternsExtracted(len(patterns), roles)); err != nil {
			s.sysLogger.Warn("scheduler", "Failed to publish extraction event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return map[string]interface{}{"patterns_extracted": len(patterns)}, nil
}

func (s *schedulerService) runScoring(ctx context.Context) (map[string]interface{}, error) {
	trends, err := s.effectiveness.BatchUpdateEffectiveness(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"patterns_updated": trends.Updated,
		"underperformers":  len(trends.Underperformers),
	}, nil
}

func (s *schedulerService) runCleanup(ctx context.Context) (map[string]interface{}, error) {
	report, err := s.cleanup.CleanupCycle(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"removed":  report.Removed,
		"archived": report.Archived,
		"merged":   report.Merged,
	}, nil
}

// finishCycle updates counters and, for successful runs, publishes the
// metrics message the consumer persists.
func (s *schedulerService) finishCycle(ctx context.Context, cycleType string, start time.Time, metrics map[string]interface{}, err error) {
	duration := time.Since(start)
	now := time.Now()

	s.mu.Lock()
	counter, ok := s.counters[cycleType]
	if !ok {
		counter = &cycleCounter{}
		s.counters[cycleType] = counter
	}
	counter.runs++
	counter.totalDuration += duration
	counter.lastRunAt = &now
	if err != nil {
		counter.errors++
	}
	s.mu.Unlock()

	if err != nil {
		s.sysLogger.Error("scheduler", "Cycle failed", map[string]interface{}{
			"cycle_type": cycleType,
			"duration":   duration.String(),
			"error":      err.Error(),
		})
		return
	}

	s.sysLogger.Info("scheduler", "Cycle completed", map[string]interface{}{
		"cycle_type": cycleType,
		"duration":   duration.String(),
		"metrics":    metrics,
	})

	payload, marshalErr := json.Marshal(dto.CycleCompletedMessage{
		CycleType:   cycleType,
		DurationMs:  duration.Milliseconds(),
		Metrics:     metrics,
		CompletedAt: now,
	})
	if marshalErr != nil {
		return
	}
	if pubErr := s.publisher.Publish(ctx, payload); pubErr != nil {
		s.sysLogger.Warn("scheduler", "Failed to publish cycle metrics", map[string]interface{}{
			"cycle_type": cycleType,
			"error":      pubErr.Error(),
		})
	}

	if s.natsPublisher != nil {
		if pubErr := s.natsPublisher.Publish(ctx, events.NewCycleCompleted(cycleType, duration.Milliseconds(), metrics)); pubErr != nil {
			s.sysLogger.Warn("scheduler", "Failed to publish cycle event", map[string]interface{}{
				"cycle_type": cycleType,
				"error":      pubErr.Error(),
			})
		}
	}
}

// recordError writes the failure to learning_errors. Failures here are
// logged and swallowed; an unreachable store must not crash the loop.
func (s *schedulerService) recordError(ctx context.Context, cycleType string, cycleErr error, stack string) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	record := &entity.LearningError{
		Id:           uuid.New(),
		CycleType:    cycleType,
		ErrorMessage: cycleErr.Error(),
		StackTrace:   stack,
		CreatedAt:    time.Now(),
	}
	if err := uow.LearningErrorRepository().Create(ctx, record); err != nil {
		s.sysLogger.Error("scheduler", "Failed to persist cycle error", map[string]interface{}{
			"cycle_type": cycleType,
			"error":      err.Error(),
		})
	}
}

func (s *schedulerService) Status() *dto.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := &dto.SchedulerStatus{
		Running: s.running,
		Cycles:  make(map[string]dto.CycleStatus, len(s.counters)),
	}

	var totalRuns, totalErrors int64
	for cycleType, counter := range s.counters {
		cycleStatus := dto.CycleStatus{
			Runs:      counter.runs,
			Errors:    counter.errors,
			LastRunAt: counter.lastRunAt,
		}
		if counter.runs > 0 {
			cycleStatus.AvgDuration = counter.totalDuration / time.Duration(counter.runs)
		}
		status.Cycles[cycleType] = cycleStatus
		totalRuns += counter.runs
		totalErrors += counter.errors
	}

	status.Health = healthLabel(totalRuns, totalErrors)
	return status
}

func healthLabel(runs, errors int64) string {
	if runs == 0 {
		return constant.HealthUnknown
	}
	rate := float64(errors) / float64(runs)
	switch {
	case rate == 0:
		return constant.HealthExcellent
	case rate <= healthGoodMax:
		return constant.HealthGood
	case rate <= healthFairMax:
		return constant.HealthFair
	default:
		return constant.HealthPoor
	}
}
