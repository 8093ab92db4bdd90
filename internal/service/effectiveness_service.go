package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"agent-learning-be/internal/dto"
	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/pkg/logger"
	"agent-learning-be/internal/repository/specification"
	"agent-learning-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const (
	// Patterns with fewer outcomes than this report a neutral score.
	minOutcomeSamples = 3

	// Recency decay applied to quality scores, newest outcome first.
	qualityDecay = 0.95

	underperformerThreshold = 0.4
	trendListSize           = 5
)

// Factor weights of the final effectiveness score.
const (
	weightSuccessRate    = 0.25
	weightAvgQuality     = 0.25
	weightRework         = 0.15
	weightReviewFeedback = 0.15
	weightTimeToComplete = 0.10
	weightReusability    = 0.10
)

var positiveFeedbackWords = []string{
	"excellent", "great", "good", "clean", "clear", "solid", "robust",
	"well done", "thorough", "elegant",
}

var negativeFeedbackWords = []string{
	"bug", "issue", "problem", "unclear", "messy", "confusing",
	"missing", "wrong", "poor", "incomplete",
}

type IEffectivenessService interface {
	// UpdateEffectiveness recomputes one pattern's score from its
	// application outcomes and persists it. With fewer than three
	// outcomes it reports a neutral 0.5 and persists nothing.
	UpdateEffectiveness(ctx context.Context, patternId uuid.UUID) (float64, error)

	// BatchUpdateEffectiveness rescoring every pattern with usage,
	// reporting aggregate trends.
	BatchUpdateEffectiveness(ctx context.Context) (*dto.PatternTrends, error)
}

type effectivenessService struct {
	uowFactory unitofwork.RepositoryFactory
	sysLogger  logger.ILogger
}

func NewEffectivenessService(uowFactory unitofwork.RepositoryFactory, sysLogger logger.ILogger) IEffectivenessService {
	return &effectivenessService{
		uowFactory: uowFactory,
		sysLogger:  sysLogger,
	}
}

func (s *effectivenessService) UpdateEffectiveness(ctx context.Context, patternId uuid.UUID) (float64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	pattern, err := uow.PatternRepository().FindOne(ctx, specification.ByID{ID: patternId})
	if err != nil {
		return 0, fmt.Errorf("failed to load pattern: %w", err)
	}
	if pattern == nil {
		return 0, ErrPatternNotFound
	}

	outcomes, err := uow.WorkItemRepository().FindPatternOutcomes(ctx, patternId)
	if err != nil {
		return 0, fmt.Errorf("failed to load pattern outcomes: %w", err)
	}
	if len(outcomes) < minOutcomeSamples {
		return 0.5, nil
	}

	metrics := computeMetrics(outcomes)
	score := computeEffectivenessScore(metrics)

	if err := uow.PatternRepository().UpdateEffectiveness(ctx, patternId, score); err != nil {
		return 0, fmt.Errorf("failed to persist effectiveness: %w", err)
	}
	return score, nil
}

func (s *effectivenessService) BatchUpdateEffectiveness(ctx context.Context) (*dto.PatternTrends, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	patterns, err := uow.PatternRepository().FindAll(ctx, specification.UsageAtLeast{Count: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to load used patterns: %w", err)
	}

	updated := 0
	for _, pattern := range patterns {
		score, err := s.UpdateEffectiveness(ctx, pattern.Id)
		if err != nil {
			// One pattern failing must not block the batch.
			s.sysLogger.Warn("scoring", "Failed to update pattern effectiveness", map[string]interface{}{
				"pattern_id": pattern.Id.String(),
				"error":      err.Error(),
			})
			continue
		}
		pattern.EffectivenessScore = score
		updated++
	}

	trends := buildTrends(patterns)
	trends.Updated = updated
	return trends, nil
}

// computeMetrics derives the six scoring factors. Outcomes must be
// ordered by completion time descending; the decay weight of outcome i
// is qualityDecay^i with the most recent at i=0.
func computeMetrics(outcomes []*entity.PatternOutcome) dto.EffectivenessMetrics {
	total := float64(len(outcomes))

	successes := 0
	reworked := 0
	var decayedQualities []float64
	var rawQualities []float64
	var durationHours []float64
	var feedbacks []string

	for i, outcome := range outcomes {
		if outcome.Success {
			successes++
		}
		if outcome.Attempts > 1 {
			reworked++
		}
		if decayed := outcome.QualityScore * math.Pow(qualityDecay, float64(i)); decayed > 0 {
			decayedQualities = append(decayedQualities, decayed)
		}
		if outcome.HasReview {
			rawQualities = append(rawQualities, outcome.QualityScore)
		}
		if outcome.CompletedAt != nil {
			if hours := outcome.CompletedAt.Sub(outcome.CreatedAt).Hours(); hours > 0 {
				durationHours = append(durationHours, hours)
			}
		}
		if strings.TrimSpace(outcome.Feedback) != "" {
			feedbacks = append(feedbacks, outcome.Feedback)
		}
	}

	return dto.EffectivenessMetrics{
		SuccessRate:         float64(successes) / total,
		AvgQualityScore:     mean(decayedQualities),
		ReworkRate:          float64(reworked) / total,
		ReviewFeedbackScore: feedbackScore(feedbacks),
		TimeToCompletion:    completionScore(durationHours),
		ReusabilityScore:    reusabilityScore(len(outcomes), rawQualities),
	}
}

// computeEffectivenessScore folds the factors into [0,1], rounded to two
// decimals.
func computeEffectivenessScore(m dto.EffectivenessMetrics) float64 {
	score := weightSuccessRate*m.SuccessRate +
		weightAvgQuality*m.AvgQualityScore +
		weightRework*(1-m.ReworkRate) +
		weightReviewFeedback*m.ReviewFeedbackScore +
		weightTimeToComplete*m.TimeToCompletion +
		weightReusability*m.ReusabilityScore
	return math.Round(clamp(score, 0, 1)*100) / 100
}

func feedbackScore(feedbacks []string) float64 {
	if len(feedbacks) == 0 {
		return 0.5
	}

	score := 0.5
	for _, feedback := range feedbacks {
		lower := strings.ToLower(feedback)
		for _, word := range positiveFeedbackWords {
			if strings.Contains(lower, word) {
				score += 0.05
			}
		}
		for _, word := range negativeFeedbackWords {
			if strings.Contains(lower, word) {
				score -= 0.05
			}
		}
	}
	return clamp(score, 0, 1)
}

// completionScore maps average completion hours onto [0,1]: one hour or
// less scores 1, eight hours or more scores 0.
func completionScore(durationHours []float64) float64 {
	if len(durationHours) == 0 {
		return 1
	}
	return clamp(1-(mean(durationHours)-1)/7, 0, 1)
}

// reusabilityScore averages usage breadth (distinct work items, saturating
// at 10) with quality consistency (low variance scores high).
func reusabilityScore(distinctWorkItems int, qualities []float64) float64 {
	if len(qualities) < 2 {
		return 0.5
	}
	usageNorm := math.Min(1, float64(distinctWorkItems)/10)
	consistency := clamp(1-4*variance(qualities), 0, 1)
	return (usageNorm + consistency) / 2
}

func buildTrends(patterns []*entity.Pattern) *dto.PatternTrends {
	trends := &dto.PatternTrends{
		ByType: make(map[string]dto.TrendBucket),
		ByRole: make(map[string]dto.TrendBucket),
	}

	byScore := make([]*entity.Pattern, len(patterns))
	copy(byScore, patterns)
	sort.Slice(byScore, func(i, j int) bool {
		return byScore[i].EffectivenessScore > byScore[j].EffectivenessScore
	})
	trends.TopPerformers = firstN(byScore, trendListSize)

	for _, pattern := range byScore {
		if pattern.EffectivenessScore < underperformerThreshold {
			trends.Underperformers = append(trends.Underperformers, pattern)
		}
	}

	byUsage := make([]*entity.Pattern, len(patterns))
	copy(byUsage, patterns)
	sort.Slice(byUsage, func(i, j int) bool {
		return byUsage[i].UsageCount > byUsage[j].UsageCount
	})
	trends.MostUsed = firstN(byUsage, trendListSize)

	typeTotals := make(map[string]float64)
	roleTotals := make(map[string]float64)
	for _, pattern := range patterns {
		bucket := trends.ByType[pattern.PatternType]
		bucket.Count++
		trends.ByType[pattern.PatternType] = bucket
		typeTotals[pattern.PatternType] += pattern.EffectivenessScore

		bucket = trends.ByRole[pattern.AgentRole]
		bucket.Count++
		trends.ByRole[pattern.AgentRole] = bucket
		roleTotals[pattern.AgentRole] += pattern.EffectivenessScore
	}
	for key, bucket := range trends.ByType {
		bucket.AvgEffectiveness = typeTotals[key] / float64(bucket.Count)
		trends.ByType[key] = bucket
	}
	for key, bucket := range trends.ByRole {
		bucket.AvgEffectiveness = roleTotals[key] / float64(bucket.Count)
		trends.ByRole[key] = bucket
	}
	return trends
}

func firstN(patterns []*entity.Pattern, n int) []*entity.Pattern {
	if len(patterns) < n {
		n = len(patterns)
	}
	return patterns[:n]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	avg := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - avg) * (v - avg)
	}
	return sum / float64(len(values))
}
