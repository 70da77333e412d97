package summarizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/robbykap/github-dashboard/common/llm"
	"github.com/robbykap/github-dashboard/common/logger"
	"github.com/robbykap/github-dashboard/internal/service/tracker"
)

const (
	summaryMaxTokens    = 350
	prioritizeMaxTokens = 200

	// maxIssuesToPrioritize bounds a single ranking prompt.
	maxIssuesToPrioritize = 30
)

// IssueSummary is the structured summary of a single issue.
type IssueSummary struct {
	IssueType string `json:"issue_type" jsonschema:"required,enum=bug,enum=feature,enum=enhancement,enum=documentation,enum=question,enum=unknown"`
	Summary   string `json:"summary" jsonschema:"required,description=Two or three sentence summary"`
}

// PullRequestSummary is the structured summary of a pull request.
type PullRequestSummary struct {
	Summary     string `json:"summary" jsonschema:"required,description=What the change accomplishes"`
	CodeUpdates string `json:"code_updates" jsonschema:"required,description=Notable file-level changes"`
}

// IssueRef is the minimal issue identity needed for prioritization.
type IssueRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type priorityRanking struct {
	RankedIDs []int64 `json:"ranked_ids" jsonschema:"required,description=Issue IDs ordered most to least urgent"`
}

var errNotConfigured = errors.New("no summarization model configured")

// Service produces AI summaries and priority rankings. Every method
// degrades to a usable placeholder instead of returning an error; summaries
// are cached in Redis when a cache client is configured.
type Service struct {
	llm   llm.Client
	cache *redis.Client
	ttl   time.Duration
}

func New(client llm.Client, cache *redis.Client, ttl time.Duration) *Service {
	return &Service{llm: client, cache: cache, ttl: ttl}
}

// SummarizeIssue summarizes an issue, classifying its type along the way.
func (s *Service) SummarizeIssue(ctx context.Context, title, body string) IssueSummary {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "dashboard.summarizer",
	})

	key := cacheKey("issue", title, body)
	var cached IssueSummary
	if s.cacheGet(ctx, key, &cached) {
		return cached
	}

	var result IssueSummary
	err := errNotConfigured
	if s.llm != nil {
		_, err = s.llm.Chat(ctx, llm.Request{
			SystemPrompt: issueSummarySystemPrompt,
			UserPrompt:   fmt.Sprintf("Title: %s\n\nBody:\n%s", title, body),
			SchemaName:   "issue_summary",
			Schema:       llm.GenerateSchema[IssueSummary](),
			MaxTokens:    summaryMaxTokens,
		}, &result)
	}
	if err != nil {
		slog.WarnContext(ctx, "issue summary failed", "error", err)
		return IssueSummary{
			IssueType: "unknown",
			Summary:   fmt.Sprintf("Summary unavailable: %s", err),
		}
	}

	s.cacheSet(ctx, key, result)
	return result
}

// SummarizePullRequest summarizes a pull request from its description and
// changed files.
func (s *Service) SummarizePullRequest(ctx context.Context, title, body string, files []tracker.PullRequestFile) PullRequestSummary {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "dashboard.summarizer",
	})

	var filesText strings.Builder
	for _, f := range files {
		fmt.Fprintf(&filesText, "- %s (%s): +%d/-%d\n", f.Filename, f.Status, f.Additions, f.Deletions)
	}

	key := cacheKey("pr", title, body, filesText.String())
	var cached PullRequestSummary
	if s.cacheGet(ctx, key, &cached) {
		return cached
	}

	var result PullRequestSummary
	err := errNotConfigured
	if s.llm != nil {
		_, err = s.llm.Chat(ctx, llm.Request{
			SystemPrompt: prSummarySystemPrompt,
			UserPrompt: fmt.Sprintf("Title: %s\n\nBody:\n%s\n\nChanged files (%d):\n%s",
				title, body, len(files), filesText.String()),
			SchemaName: "pull_request_summary",
			Schema:     llm.GenerateSchema[PullRequestSummary](),
			MaxTokens:  summaryMaxTokens,
		}, &result)
	}
	if err != nil {
		slog.WarnContext(ctx, "pull request summary failed", "error", err)
		return PullRequestSummary{
			Summary: fmt.Sprintf("Summary unavailable: %s", err),
		}
	}

	s.cacheSet(ctx, key, result)
	return result
}

// Prioritize ranks issues most-urgent first. Any failure falls back to the
// input order, which callers can always render.
func (s *Service) Prioritize(ctx context.Context, issues []IssueRef) []int64 {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "dashboard.summarizer",
	})

	fallback := make([]int64, len(issues))
	for i, issue := range issues {
		fallback[i] = issue.ID
	}
	if len(issues) == 0 {
		return fallback
	}

	capped := issues
	if len(capped) > maxIssuesToPrioritize {
		capped = capped[:maxIssuesToPrioritize]
	}

	var issuesText strings.Builder
	for _, issue := range capped {
		fmt.Fprintf(&issuesText, "ID:%d - %s\n", issue.ID, issue.Title)
	}

	var ranking priorityRanking
	err := errNotConfigured
	if s.llm != nil {
		_, err = s.llm.Chat(ctx, llm.Request{
			SystemPrompt: prioritizeSystemPrompt,
			UserPrompt:   issuesText.String(),
			SchemaName:   "priority_ranking",
			Schema:       llm.GenerateSchema[priorityRanking](),
			MaxTokens:    prioritizeMaxTokens,
			Temperature:  llm.Temp(0),
		}, &ranking)
	}
	if err != nil {
		slog.WarnContext(ctx, "prioritization failed, keeping input order", "error", err)
		return fallback
	}

	// Keep only IDs we were actually asked about, then append anything the
	// model skipped so the ranking is always complete.
	known := make(map[int64]bool, len(issues))
	for _, issue := range issues {
		known[issue.ID] = true
	}

	ranked := make([]int64, 0, len(issues))
	seen := make(map[int64]bool, len(issues))
	for _, id := range ranking.RankedIDs {
		if known[id] && !seen[id] {
			ranked = append(ranked, id)
			seen[id] = true
		}
	}
	for _, id := range fallback {
		if !seen[id] {
			ranked = append(ranked, id)
		}
	}

	return ranked
}

func cacheKey(kind string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "summary:" + kind + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

func (s *Service) cacheGet(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false
	}
	slog.DebugContext(ctx, "summary cache hit", "key", key)
	return true
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl).Err(); err != nil {
		slog.DebugContext(ctx, "summary cache write failed", "key", key, "error", err)
	}
}

const issueSummarySystemPrompt = `You summarize tracker issues for a dashboard. Classify the issue (bug, feature, enhancement, documentation, question, or unknown) and write a two-to-three sentence summary of what it asks for and why it matters. Plain prose, no markdown.`

const prSummarySystemPrompt = `You summarize pull requests for a dashboard. Describe what the change accomplishes in two or three sentences, then note the most significant file-level changes. Plain prose, no markdown.`

const prioritizeSystemPrompt = `You rank open tracker issues by urgency. Consider severity implied by the title (crashes and data loss first, then regressions, then features, then chores). Return every ID you were given, ordered most to least urgent.`
