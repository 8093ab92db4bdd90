package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agent-learning-be/internal/constant"
	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/pkg/logger"
	"agent-learning-be/internal/repository/unitofwork"
	"agent-learning-be/pkg/embedding"
	"agent-learning-be/pkg/similarity"

	"github.com/google/uuid"
)

// Thresholds tuned against the hash embedding's similarity distribution.
const (
	consolidationSimilarity = 0.85
	minCandidateFrequency   = 2
	minCandidateConfidence  = 0.7
	minCandidateEffect      = 0.6
)

// Lexical cues that mark implementation notes as describing tool usage.
var toolPhrases = []string{
	"using", "command", "tool", "script", "cli", "docker", "git ", "npm", "ran ",
}

type IExtractionService interface {
	// ExtractPatterns mines completed work since the given time (all
	// history when nil) into consolidated, qualified patterns.
	ExtractPatterns(ctx context.Context, since *time.Time) ([]*entity.Pattern, error)
}

type extractionService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	sysLogger         logger.ILogger
}

func NewExtractionService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	sysLogger logger.ILogger,
) IExtractionService {
	return &extractionService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		sysLogger:         sysLogger,
	}
}

// patternCandidate is the unit of work during extraction, before any of
// them qualify as a persisted pattern.
type patternCandidate struct {
	patternType       string
	agentRole         string
	context           string
	solution          string
	confidence        float64
	effectiveness     float64
	frequency         int
	tags              []string
	sourceWorkItemIds []uuid.UUID
	embedding         []float32
}

func (s *extractionService) ExtractPatterns(ctx context.Context, since *time.Time) ([]*entity.Pattern, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	items, err := uow.WorkItemRepository().FindCompleted(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed work items: %w", err)
	}

	var candidates []*patternCandidate
	processed := 0
	for _, item := range items {
		if item.Result == nil || !item.Result.Success || item.Result.ImplementationNotes == "" {
			continue
		}
		processed++
		candidates = append(candidates, s.deriveCandidates(item)...)
	}

	grouped := groupCandidates(candidates)
	consolidated, err := s.consolidate(grouped)
	if err != nil {
		return nil, err
	}

	var qualified []*patternCandidate
	for _, candidate := range consolidated {
		if candidate.frequency >= minCandidateFrequency &&
			candidate.confidence >= minCandidateConfidence &&
			candidate.effectiveness >= minCandidateEffect {
			qualified = append(qualified, candidate)
		}
	}

	patterns, err := s.persist(ctx, qualified)
	if err != nil {
		return nil, err
	}

	s.sysLogger.Info("extraction", "Pattern extraction completed", map[string]interface{}{
		"items_processed": processed,
		"candidates":      len(candidates),
		"consolidated":    len(consolidated),
		"persisted":       len(patterns),
	})
	return patterns, nil
}

// deriveCandidates produces up to four candidates from one completed item.
func (s *extractionService) deriveCandidates(item *entity.CompletedWorkItem) []*patternCandidate {
	result := item.Result

	quality := 0.0
	hasReview := item.Review != nil
	if hasReview {
		quality = item.Review.QualityScore
	}

	confidence := 0.5 + 0.3*quality
	if result.TestsAdded {
		confidence += 0.1
	}
	if result.ErrorMessage != "" {
		confidence -= 0.1
	}
	confidence = clamp(confidence, 0, 1)

	effectiveness := 0.5
	if hasReview {
		effectiveness = quality
	}
	if result.Success {
		effectiveness += 0.2
	}
	if result.TestsAdded {
		effectiveness += 0.1
	}
	effectiveness = clamp(effectiveness, 0, 1)

	newCandidate := func(patternType, contextText, solutionText string) *patternCandidate {
		return &patternCandidate{
			patternType:       patternType,
			agentRole:         result.AgentRole,
			context:           contextText,
			solution:          solutionText,
			confidence:        confidence,
			effectiveness:     effectiveness,
			frequency:         1,
			tags:              []string{item.Type},
			sourceWorkItemIds: []uuid.UUID{item.Id},
		}
	}

	candidates := []*patternCandidate{
		newCandidate(
			constant.PatternTypeSolution,
			fmt.Sprintf("%s: %s\n%s", item.Type, item.Title, item.Description),
			result.ImplementationNotes,
		),
	}

	if result.ErrorMessage != "" {
		candidates = append(candidates, newCandidate(
			constant.PatternTypeErrorHandling,
			fmt.Sprintf("Error encountered in %s: %s", item.Type, item.Title),
			fmt.Sprintf("Error: %s\n\nResolution: %s", result.ErrorMessage, result.ImplementationNotes),
		))
	}

	if len(result.FilesChanged) > 0 && mentionsToolPhrase(result.ImplementationNotes) {
		candidates = append(candidates, newCandidate(
			constant.PatternTypeToolUsage,
			fmt.Sprintf("Tool usage for %s: %s", item.Type, item.Title),
			result.ImplementationNotes,
		))
	}

	if hasReview && item.Review.QualityScore > 0.8 {
		solution := result.ImplementationNotes
		if len(item.Review.Suggestions) > 0 {
			solution += "\n\nSuggestions:\n- " + strings.Join(item.Review.Suggestions, "\n- ")
		}
		candidates = append(candidates, newCandidate(
			constant.PatternTypeOptimization,
			fmt.Sprintf("High-quality %s: %s", item.Type, item.Title),
			solution,
		))
	}

	return candidates
}

func mentionsToolPhrase(notes string) bool {
	lower := strings.ToLower(notes)
	for _, phrase := range toolPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// groupCandidates folds exact repeats together. The key is deliberately
// coarse (type, role, first 50 chars of context) so re-runs of the same
// work shape count as frequency instead of new candidates. Effectiveness
// blends as a running pairwise average, which over-weights recent values
// as groups grow; qualification thresholds are tuned to that behavior.
func groupCandidates(candidates []*patternCandidate) []*patternCandidate {
	groups := make(map[string]*patternCandidate)
	var order []string

	for _, candidate := range candidates {
		key := groupKey(candidate)
		existing, found := groups[key]
		if !found {
			clone := *candidate
			groups[key] = &clone
			order = append(order, key)
			continue
		}
		existing.frequency++
		existing.effectiveness = (existing.effectiveness + candidate.effectiveness) / 2
		if candidate.confidence > existing.confidence {
			existing.confidence = candidate.confidence
		}
		existing.tags = unionStrings(existing.tags, candidate.tags)
		existing.sourceWorkItemIds = unionIds(existing.sourceWorkItemIds, candidate.sourceWorkItemIds)
	}

	grouped := make([]*patternCandidate, 0, len(groups))
	for _, key := range order {
		grouped = append(grouped, groups[key])
	}
	return grouped
}

func groupKey(candidate *patternCandidate) string {
	contextKey := candidate.context
	if len(contextKey) > 50 {
		contextKey = contextKey[:50]
	}
	return fmt.Sprintf("%s:%s:%s", candidate.patternType, candidate.agentRole, contextKey)
}

// consolidate merges candidates across different group keys when their
// embeddings are near-duplicates. Clusters are connected components over
// the similarity graph, so a pair that survives consolidation is always
// below the threshold and a second pass merges nothing.
func (s *extractionService) consolidate(candidates []*patternCandidate) ([]*patternCandidate, error) {
	for _, candidate := range candidates {
		vec, err := s.embeddingProvider.Generate(candidate.context + " " + candidate.solution)
		if err != nil {
			return nil, fmt.Errorf("failed to embed candidate: %w", err)
		}
		candidate.embedding = vec
	}

	parent := make([]int, len(candidates))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if similarity.Cosine(candidates[i].embedding, candidates[j].embedding) >= consolidationSimilarity {
				parent[find(i)] = find(j)
			}
		}
	}

	clusters := make(map[int][]*patternCandidate)
	var roots []int
	for i, candidate := range candidates {
		root := find(i)
		if _, seen := clusters[root]; !seen {
			roots = append(roots, root)
		}
		clusters[root] = append(clusters[root], candidate)
	}

	consolidated := make([]*patternCandidate, 0, len(clusters))
	for _, root := range roots {
		consolidated = append(consolidated, mergeCluster(clusters[root]))
	}
	return consolidated, nil
}

// mergeCluster folds a similarity cluster into a single candidate: summed
// frequency, unioned tags and sources, averaged effectiveness, and the
// text of the highest-confidence member.
func mergeCluster(members []*patternCandidate) *patternCandidate {
	if len(members) == 1 {
		return members[0]
	}

	best := members[0]
	merged := *best
	totalEffect := 0.0
	merged.frequency = 0

	for _, member := range members {
		merged.frequency += member.frequency
		totalEffect += member.effectiveness
		merged.tags = unionStrings(merged.tags, member.tags)
		merged.sourceWorkItemIds = unionIds(merged.sourceWorkItemIds, member.sourceWorkItemIds)
		if member.confidence > best.confidence {
			best = member
		}
	}

	merged.effectiveness = totalEffect / float64(len(members))
	merged.confidence = best.confidence
	merged.context = best.context
	merged.solution = best.solution
	merged.patternType = best.patternType
	merged.agentRole = best.agentRole
	merged.embedding = best.embedding
	return &merged
}

func (s *extractionService) persist(ctx context.Context, qualified []*patternCandidate) ([]*entity.Pattern, error) {
	if len(qualified) == 0 {
		return nil, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	patterns := make([]*entity.Pattern, 0, len(qualified))
	for _, candidate := range qualified {
		pattern := &entity.Pattern{
			Id:                 uuid.New(),
			AgentRole:          candidate.agentRole,
			PatternType:        candidate.patternType,
			Context:            candidate.context,
			Solution:           candidate.solution,
			EffectivenessScore: candidate.effectiveness,
			Tags:               candidate.tags,
			Embedding:          candidate.embedding,
			SourceWorkItemIds:  candidate.sourceWorkItemIds,
			CreatedAt:          time.Now(),
		}
		if err := uow.PatternRepository().Create(ctx, pattern); err != nil {
			return nil, fmt.Errorf("failed to persist pattern: %w", err)
		}
		if err := uow.PatternWorkItemRepository().LinkBulk(ctx, pattern.Id, candidate.sourceWorkItemIds); err != nil {
			return nil, fmt.Errorf("failed to link pattern sources: %w", err)
		}
		pattern.SourceWorkItemIds = candidate.sourceWorkItemIds
		patterns = append(patterns, pattern)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return patterns, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func unionIds(a, b []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(a))
	out := make([]uuid.UUID, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
