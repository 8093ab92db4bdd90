package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"agent-learning-be/internal/dto"
	"agent-learning-be/internal/pkg/logger"
	"agent-learning-be/internal/repository/memory"
	"agent-learning-be/internal/repository/specification"
	"agent-learning-be/internal/repository/unitofwork"
)

const (
	defaultMaxResults  = 10
	defaultMinScore    = 0.3
	patternPoolSize    = 200
	decisionPoolSize   = 50
	reviewPoolSize     = 50
	roleMentionBonus   = 0.2
	typeMentionBonus   = 0.1
	domainPairBonus    = 0.3
	effectivenessBoost = 0.5
	minKeywordLength   = 3
)

var relevanceStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true,
	"that": true, "from": true, "have": true, "has": true,
	"are": true, "was": true, "were": true, "will": true, "can": true,
	"should": true, "into": true, "when": true, "then": true, "them": true,
	"their": true, "its": true, "also": true, "all": true, "any": true,
	"not": true, "you": true, "your": true, "our": true, "out": true,
	"use": true, "using": true, "new": true,
}

// Six domain pattern-pairs: when the task matches the left side and the
// candidate text matches the right side, both are talking about the same
// domain even without shared keywords.
var domainPatternPairs = [][2]*regexp.Regexp{
	{
		regexp.MustCompile(`(?i)\b(auth\w*|login|jwt|oauth|credential\w*)`),
		regexp.MustCompile(`(?i)\b(auth\w*|login|jwt|token|session)`),
	},
	{
		regexp.MustCompile(`(?i)\b(api|endpoint\w*|rest|graphql)\b`),
		regexp.MustCompile(`(?i)\b(api|endpoint\w*|route\w*|handler\w*)\b`),
	},
	{
		regexp.MustCompile(`(?i)\b(database|migration\w*|sql|query|schema)\b`),
		regexp.MustCompile(`(?i)\b(database|sql|query|schema|index\w*)\b`),
	},
	{
		regexp.MustCompile(`(?i)\b(test\w*|coverage|regression)\b`),
		regexp.MustCompile(`(?i)\b(test\w*|mock\w*|assert\w*|fixture\w*)\b`),
	},
	{
		regexp.MustCompile(`(?i)\b(error\w*|exception\w*|crash\w*|failure\w*)\b`),
		regexp.MustCompile(`(?i)\b(error\w*|handl\w*|recover\w*|retr(y|ied|ies))\b`),
	},
	{
		regexp.MustCompile(`(?i)\b(review\w*|feedback|quality)\b`),
		regexp.MustCompile(`(?i)\b(review\w*|feedback|suggestion\w*)\b`),
	},
}

type IRetrievalService interface {
	// RetrieveContext serves the ranked knowledge bundle for a live
	// task, cache-first. Store failures degrade to an empty bundle so
	// prompt assembly never blocks on the learning pipeline.
	RetrieveContext(ctx context.Context, task *dto.TaskContext, opts *dto.RetrieveOptions) (*dto.ContextBundle, error)

	// FormatForPrompt renders a bundle as a prompt-ready text block.
	FormatForPrompt(bundle *dto.ContextBundle) string

	CacheStats() dto.CacheStats
	ClearCache()
}

type retrievalService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.ContextCache
	sysLogger  logger.ILogger
}

func NewRetrievalService(
	uowFactory unitofwork.RepositoryFactory,
	cache *memory.ContextCache,
	sysLogger logger.ILogger,
) IRetrievalService {
	return &retrievalService{
		uowFactory: uowFactory,
		cache:      cache,
		sysLogger:  sysLogger,
	}
}

func (s *retrievalService) RetrieveContext(ctx context.Context, task *dto.TaskContext, opts *dto.RetrieveOptions) (*dto.ContextBundle, error) {
	if task == nil || task.AgentRole == "" || strings.TrimSpace(task.TaskDescription) == "" {
		return nil, fmt.Errorf("%w: agent role and task description are required", ErrInvalidInput)
	}

	options := withDefaults(opts)
	key := memory.Key(task.AgentRole, task.WorkItemId.String(), task.TaskDescription)
	if bundle, found := s.cache.Get(key); found {
		return bundle, nil
	}

	bundle, err := s.assemble(ctx, task, options)
	if err != nil {
		// Learning-side failures never propagate into prompt assembly.
		s.sysLogger.Error("retrieval", "Context assembly failed, serving empty bundle", map[string]interface{}{
			"agent_role": task.AgentRole,
			"error":      err.Error(),
		})
		return &dto.ContextBundle{}, nil
	}

	s.cache.Set(key, bundle)
	return bundle, nil
}

type scoredItem struct {
	relevance float64
	pattern   *dto.ScoredPattern
	decision  *dto.ScoredDecision
	review    *dto.ScoredReview
}

func (s *retrievalService) assemble(ctx context.Context, task *dto.TaskContext, options dto.RetrieveOptions) (*dto.ContextBundle, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	patterns, err := uow.PatternRepository().FindAll(ctx,
		specification.ByAgentRole{AgentRole: task.AgentRole},
		specification.OrderBy{Field: "effectiveness_score", Desc: true},
		specification.Paginate{Limit: patternPoolSize},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate patterns: %w", err)
	}

	decisions, err := uow.ArchitectureDecisionRepository().FindAccepted(ctx, decisionPoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}

	reviews, err := uow.ReviewRepository().FindApproved(ctx, task.AgentRole, reviewPoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}

	var items []scoredItem
	for _, pattern := range patterns {
		score := calculateRelevanceScore(task, pattern.Context+" "+pattern.Solution)
		if options.BoostEffectiveness {
			score = clamp(score*(1+pattern.EffectivenessScore*effectivenessBoost), 0, 1)
		}
		if score < options.MinScore {
			continue
		}
		items = append(items, scoredItem{
			relevance: score,
			pattern:   &dto.ScoredPattern{Pattern: pattern, Relevance: score},
		})
	}
	for _, decision := range decisions {
		score := calculateRelevanceScore(task, decision.Title+" "+decision.Context+" "+decision.Decision)
		if score < options.MinScore {
			continue
		}
		items = append(items, scoredItem{
			relevance: score,
			decision:  &dto.ScoredDecision{Decision: decision, Relevance: score},
		})
	}
	for _, review := range reviews {
		score := calculateRelevanceScore(task, review.Feedback)
		if score < options.MinScore {
			continue
		}
		items = append(items, scoredItem{
			relevance: score,
			review:    &dto.ScoredReview{Review: review, Relevance: score},
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].relevance > items[j].relevance })
	if len(items) > options.MaxResults {
		items = items[:options.MaxResults]
	}

	bundle := &dto.ContextBundle{}
	for _, item := range items {
		switch {
		case item.pattern != nil:
			bundle.Patterns = append(bundle.Patterns, *item.pattern)
			// Surfacing a pattern counts as one use.
			if err := uow.PatternRepository().IncrementUsage(ctx, item.pattern.Pattern.Id); err != nil {
				s.sysLogger.Warn("retrieval", "Failed to increment pattern usage", map[string]interface{}{
					"pattern_id": item.pattern.Pattern.Id.String(),
					"error":      err.Error(),
				})
			}
		case item.decision != nil:
			bundle.Decisions = append(bundle.Decisions, *item.decision)
		case item.review != nil:
			bundle.Reviews = append(bundle.Reviews, *item.review)
		}
	}
	return bundle, nil
}

// calculateRelevanceScore measures how well candidate text matches the
// live task: keyword overlap ratio, role and type mentions, and the
// domain pattern-pair bonus, clamped to [0,1].
func calculateRelevanceScore(task *dto.TaskContext, text string) float64 {
	textLower := strings.ToLower(text)
	keywords := taskKeywords(task.TaskDescription)

	score := 0.0
	if len(keywords) > 0 {
		matched := 0
		for _, keyword := range keywords {
			if strings.Contains(textLower, keyword) {
				matched++
			}
		}
		score = float64(matched) / float64(len(keywords))
	}

	if task.AgentRole != "" && strings.Contains(textLower, strings.ToLower(task.AgentRole)) {
		score += roleMentionBonus
	}
	if task.WorkItemType != "" && strings.Contains(textLower, strings.ToLower(task.WorkItemType)) {
		score += typeMentionBonus
	}

	for _, pair := range domainPatternPairs {
		if pair[0].MatchString(task.TaskDescription) && pair[1].MatchString(text) {
			score += domainPairBonus
			break
		}
	}

	return clamp(score, 0, 1)
}

func taskKeywords(description string) []string {
	var keywords []string
	for _, token := range strings.Fields(strings.ToLower(description)) {
		token = strings.Trim(token, ".,:;!?()[]{}\"'")
		if len(token) < minKeywordLength || relevanceStopwords[token] {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}

func (s *retrievalService) FormatForPrompt(bundle *dto.ContextBundle) string {
	if bundle.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Relevant Context from Previous Work\n")

	if len(bundle.Patterns) > 0 {
		b.WriteString("\n## Learned Patterns\n")
		for _, scored := range bundle.Patterns {
			pattern := scored.Pattern
			b.WriteString(fmt.Sprintf("\n### [%s] %s\n", pattern.PatternType, firstLine(pattern.Context)))
			b.WriteString(fmt.Sprintf("%s\n", pattern.Solution))
			b.WriteString(fmt.Sprintf("(relevance %.2f, effectiveness %.2f, used %d times)\n",
				scored.Relevance, pattern.EffectivenessScore, pattern.UsageCount))
		}
	}

	if len(bundle.Decisions) > 0 {
		b.WriteString("\n## Architecture Decisions\n")
		for _, scored := range bundle.Decisions {
			decision := scored.Decision
			b.WriteString(fmt.Sprintf("\n### %s\n", decision.Title))
			b.WriteString(fmt.Sprintf("%s\n", decision.Decision))
			b.WriteString(fmt.Sprintf("(relevance %.2f)\n", scored.Relevance))
		}
	}

	if len(bundle.Reviews) > 0 {
		b.WriteString("\n## Review Guidance\n")
		for _, scored := range bundle.Reviews {
			review := scored.Review
			b.WriteString(fmt.Sprintf("\n- [%s] %s (relevance %.2f)\n", review.Type, review.Feedback, scored.Relevance))
		}
	}

	return b.String()
}

func (s *retrievalService) CacheStats() dto.CacheStats {
	return s.cache.Stats()
}

func (s *retrievalService) ClearCache() {
	s.cache.Clear()
}

func withDefaults(opts *dto.RetrieveOptions) dto.RetrieveOptions {
	if opts == nil {
		return dto.RetrieveOptions{
			MaxResults:         defaultMaxResults,
			MinScore:           defaultMinScore,
			BoostEffectiveness: true,
		}
	}
	options := *opts
	if options.MaxResults <= 0 {
		options.MaxResults = defaultMaxResults
	}
	return options
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}
