package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"agent-learning-be/internal/constant"
	"agent-learning-be/internal/dto"
	"agent-learning-be/internal/pkg/logger"
	"agent-learning-be/internal/repository/specification"
	"agent-learning-be/internal/repository/unitofwork"
	"agent-learning-be/pkg/embedding"
	"agent-learning-be/pkg/similarity"
)

const (
	signatureScoreThreshold = 0.5
	neighborSimilarity      = 0.7
	neighborPoolSize        = 100
	neighborVoteSize        = 5
)

type categorySignature struct {
	patternType      string
	keywords         []string
	contextPatterns  []*regexp.Regexp
	solutionPatterns []*regexp.Regexp
	multiplier       float64
}

// The five rule signatures. Keyword hits are cheap evidence, regex hits on
// the context/solution text count double, and the multiplier biases types
// whose vocabulary is distinctive.
var categorySignatures = []categorySignature{
	{
		patternType: constant.PatternTypeSolution,
		keywords:    []string{"implement", "fix", "resolve", "build", "create", "add"},
		contextPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(bug|feature|task|issue)\b`),
			regexp.MustCompile(`(?i)\b(implement|build|create)\w*\b`),
		},
		solutionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(implemented|fixed|resolved|added|created)\b`),
		},
		multiplier: 1.0,
	},
	{
		patternType: constant.PatternTypeApproach,
		keywords:    []string{"design", "architecture", "strategy", "structure", "pattern", "refactor"},
		contextPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(design|architect|plan)\w*\b`),
		},
		solutionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(approach|strategy|structure|layered|modular)\b`),
		},
		multiplier: 0.9,
	},
	{
		patternType: constant.PatternTypeToolUsage,
		keywords:    []string{"tool", "command", "cli", "script", "docker", "git", "npm"},
		contextPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\btool usage\b`),
			regexp.MustCompile(`(?i)\b(cli|command line)\b`),
		},
		solutionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(ran|executed|using)\b.*\b(command|tool|script)\b`),
			regexp.MustCompile(`(?i)\b(docker|git|npm|make)\b`),
		},
		multiplier: 1.0,
	},
	{
		patternType: constant.PatternTypeErrorHandling,
		keywords:    []string{"error", "exception", "failure", "retry", "timeout", "fallback"},
		contextPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\berror\b`),
			regexp.MustCompile(`(?i)\b(fail|crash|panic)\w*\b`),
		},
		solutionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(caught|handled|recovered|retried|resolution)\b`),
		},
		multiplier: 1.1,
	},
	{
		patternType: constant.PatternTypeOptimization,
		keywords:    []string{"optimize", "performance", "cache", "speed", "memory", "latency"},
		contextPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(slow|performance|bottleneck|high.quality)\b`),
		},
		solutionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(optimized|reduced|improved|cached|faster)\b`),
		},
		multiplier: 1.1,
	},
}

// Technology and domain lexicons scanned during tagging.
var tagLexicons = map[string][]string{
	"containerization": {"docker", "container", "kubernetes", "k8s", "compose"},
	"caching":          {"cache", "redis", "memcached", "ttl", "lru"},
	"security":         {"auth", "jwt", "token", "encryption", "security", "password"},
	"api":              {"api", "endpoint", "rest", "http", "route", "grpc"},
	"frontend":         {"react", "component", "css", "frontend", "browser"},
	"database":         {"database", "sql", "query", "migration", "schema", "index"},
	"testing":          {"test", "coverage", "mock", "assertion", "fixture"},
	"messaging":        {"queue", "event", "publish", "subscribe", "broker"},
	"performance":      {"performance", "latency", "throughput", "profiling"},
}

type ICategorizationService interface {
	// Categorize assigns a pattern type to a draft: rule signatures
	// first, neighbor voting over existing pattern embeddings as the
	// fallback, "solution" as the default.
	Categorize(ctx context.Context, draft *dto.PatternDraft) (string, error)

	// GenerateTags scans the pattern text against the fixed lexicons.
	// The final pattern type is always included as a tag.
	GenerateTags(patternType, contextText, solutionText string) []string
}

type categorizationService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	sysLogger         logger.ILogger
}

func NewCategorizationService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	sysLogger logger.ILogger,
) ICategorizationService {
	return &categorizationService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		sysLogger:         sysLogger,
	}
}

func (s *categorizationService) Categorize(ctx context.Context, draft *dto.PatternDraft) (string, error) {
	if draft == nil || strings.TrimSpace(draft.Context) == "" || strings.TrimSpace(draft.Solution) == "" {
		return "", fmt.Errorf("%w: draft requires context and solution text", ErrInvalidInput)
	}

	if patternType, matched := matchSignature(draft.Context, draft.Solution); matched {
		return patternType, nil
	}
	return s.voteByNeighbors(ctx, draft)
}

// matchSignature scores the draft against every rule signature and
// returns the best type when it clears the threshold.
func matchSignature(contextText, solutionText string) (string, bool) {
	combined := strings.ToLower(contextText + " " + solutionText)

	bestType := ""
	bestScore := 0.0
	for _, sig := range categorySignatures {
		keywordHits := 0
		for _, keyword := range sig.keywords {
			if strings.Contains(combined, keyword) {
				keywordHits++
			}
		}
		contextHits := countMatches(sig.contextPatterns, contextText)
		solutionHits := countMatches(sig.solutionPatterns, solutionText)

		score := (0.1*float64(keywordHits) + 0.2*float64(contextHits) + 0.2*float64(solutionHits)) * sig.multiplier
		if score > 1 {
			score = 1
		}
		if score > bestScore {
			bestScore = score
			bestType = sig.patternType
		}
	}

	if bestScore > signatureScoreThreshold {
		return bestType, true
	}
	return "", false
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	hits := 0
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			hits++
		}
	}
	return hits
}

// voteByNeighbors embeds the draft and lets the most similar existing
// patterns vote with their similarity as the weight.
func (s *categorizationService) voteByNeighbors(ctx context.Context, draft *dto.PatternDraft) (string, error) {
	vec, err := s.embeddingProvider.Generate(draft.Context + " " + draft.Solution)
	if err != nil {
		return "", fmt.Errorf("failed to embed draft: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	neighbors, err := uow.PatternRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Paginate{Limit: neighborPoolSize},
	)
	if err != nil {
		return "", fmt.Errorf("failed to load neighbor patterns: %w", err)
	}

	type vote struct {
		patternType string
		similarity  float64
	}
	var votes []vote
	for _, neighbor := range neighbors {
		if len(neighbor.Embedding) == 0 {
			continue
		}
		if sim := similarity.Cosine(vec, neighbor.Embedding); sim > neighborSimilarity {
			votes = append(votes, vote{patternType: neighbor.PatternType, similarity: sim})
		}
	}

	if len(votes) == 0 {
		return constant.PatternTypeSolution, nil
	}

	sort.Slice(votes, func(i, j int) bool { return votes[i].similarity > votes[j].similarity })
	if len(votes) > neighborVoteSize {
		votes = votes[:neighborVoteSize]
	}

	tally := make(map[string]float64)
	for _, v := range votes {
		tally[v.patternType] += v.similarity
	}

	// Iterate the fixed type list so ties resolve deterministically.
	winner := constant.PatternTypeSolution
	best := 0.0
	for _, patternType := range constant.PatternTypes {
		if weight := tally[patternType]; weight > best {
			best = weight
			winner = patternType
		}
	}
	return winner, nil
}

func (s *categorizationService) GenerateTags(patternType, contextText, solutionText string) []string {
	combined := strings.ToLower(contextText + " " + solutionText)

	tags := []string{patternType}
	seen := map[string]bool{patternType: true}

	// Stable order over the lexicon map.
	names := make([]string, 0, len(tagLexicons))
	for name := range tagLexicons {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, keyword := range tagLexicons[name] {
			if strings.Contains(combined, keyword) && !seen[name] {
				seen[name] = true
				tags = append(tags, name)
				break
			}
		}
	}
	return tags
}
