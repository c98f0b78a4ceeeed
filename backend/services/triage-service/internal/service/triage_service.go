package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ampera/backend/services/triage-service/internal/clients"
	"ampera/backend/services/triage-service/internal/livecontext"
	"ampera/backend/services/triage-service/internal/metrics"
	"ampera/backend/services/triage-service/internal/models"
)

// Conversation limits applied before the upstream call.
const (
	maxHistoryMessages = 12
	maxMessageChars    = 6000
)

// Completion token budgets for the first attempt and the compact retry.
const (
	initialMaxTokens = 2400
	retryMaxTokens   = 3200
)

const systemPrompt = "You are Ampera AI Triage, a fleet operations assistant for EV chargers. " +
	"Answer ONLY using the provided live context (derived from telemetry and model predictions). " +
	"If data is missing, say it is unavailable instead of guessing. " +
	"Be concise, operational, and specific. " +
	"When discussing chargers, reference charger name/code and risk status when possible. " +
	"If the user asks for prioritization, rank chargers by risk and include why. " +
	"If the user asks for a summary, include counts and the most actionable items."

// ErrNoUserMessage marks a request whose history contains no usable user turn.
var ErrNoUserMessage = errors.New("at least one user message is required")

// CompletionCaller abstracts the upstream chat-completions client.
type CompletionCaller interface {
	Complete(ctx context.Context, messages []models.Message, maxCompletionTokens int) (*clients.CompletionResult, error)
}

// SnapshotLoader abstracts the cached fleet snapshot.
type SnapshotLoader interface {
	Load(ctx context.Context) (*models.FleetSnapshot, error)
}

// TriageService answers operator questions grounded in the live fleet view.
type TriageService struct {
	completions CompletionCaller
	snapshots   SnapshotLoader
	logger      *zap.Logger
	now         func() time.Time
}

// NewTriageService constructs the service. snapshots may be nil when no
// cache is configured.
func NewTriageService(completions CompletionCaller, snapshots SnapshotLoader, logger *zap.Logger) *TriageService {
	return &TriageService{
		completions: completions,
		snapshots:   snapshots,
		logger:      logger,
		now:         time.Now,
	}
}

// Triage runs one assistant turn. The first upstream attempt carries the
// full context snapshot; an empty reply triggers exactly one retry with the
// compact variant and a larger completion budget.
func (s *TriageService) Triage(ctx context.Context, req *models.TriageRequest) (*models.TriageResponse, error) {
	messages := sanitizeMessages(req.Messages)

	var latestUser *models.Message
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			latestUser = &messages[i]
			break
		}
	}
	if latestUser == nil {
		return nil, ErrNoUserMessage
	}

	chargers, incidents, fleetStats := s.resolveFleetData(ctx, req)

	buildInput := livecontext.BuildInput{
		Chargers:           chargers,
		Incidents:          incidents,
		FleetStats:         fleetStats,
		PreloadedChargerID: req.PreloadedChargerID,
		LatestUserPrompt:   latestUser.Content,
		Now:                s.now(),
	}

	result, err := s.callWithContext(ctx, buildInput, messages, initialMaxTokens)
	if err != nil {
		return nil, err
	}

	if result.Content == "" {
		metrics.CompletionRetries.Inc()
		s.logger.Warn("empty completion, retrying with compact context",
			zap.String("finish_reason", result.FinishReason))

		buildInput.Compact = true
		result, err = s.callWithContext(ctx, buildInput, messages, retryMaxTokens)
		if err != nil {
			return nil, err
		}
	}

	if result.Content == "" {
		reason := result.FinishReason
		if reason == "" {
			reason = "unknown"
		}
		return nil, fmt.Errorf("completion returned an empty response (finish_reason: %s)", reason)
	}

	return &models.TriageResponse{
		Content:             result.Content,
		MentionedChargerIDs: mentionedChargerIDs(latestUser.Content, result.Content, chargers),
	}, nil
}

func (s *TriageService) callWithContext(ctx context.Context, in livecontext.BuildInput, history []models.Message, maxTokens int) (*clients.CompletionResult, error) {
	snapshot := livecontext.Build(in)
	contextJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("triage: marshal context: %w", err)
	}

	upstream := make([]models.Message, 0, len(history)+2)
	upstream = append(upstream,
		models.Message{Role: models.RoleSystem, Content: systemPrompt},
		models.Message{Role: models.RoleSystem, Content: "LIVE_CONTEXT_JSON:\n" + string(contextJSON)},
	)
	upstream = append(upstream, history...)

	result, err := s.completions.Complete(ctx, upstream, maxTokens)
	if err != nil {
		metrics.CompletionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.CompletionsTotal.WithLabelValues("ok").Inc()
	return result, nil
}

// resolveFleetData prefers fleet data carried on the request and falls back
// to the cached dashboard snapshot when the request omits chargers.
func (s *TriageService) resolveFleetData(ctx context.Context, req *models.TriageRequest) ([]models.Charger, []models.Incident, *models.FleetStats) {
	chargers := req.Chargers
	incidents := req.Incidents
	fleetStats := req.FleetStats

	if len(chargers) > 0 || s.snapshots == nil {
		return chargers, incidents, fleetStats
	}

	snapshot, err := s.snapshots.Load(ctx)
	if err != nil {
		metrics.SnapshotFallbacks.WithLabelValues("error").Inc()
		s.logger.Warn("failed to load cached fleet snapshot", zap.Error(err))
		return chargers, incidents, fleetStats
	}
	if snapshot == nil {
		metrics.SnapshotFallbacks.WithLabelValues("miss").Inc()
		return chargers, incidents, fleetStats
	}

	metrics.SnapshotFallbacks.WithLabelValues("hit").Inc()
	chargers = snapshot.Chargers
	if len(incidents) == 0 {
		incidents = snapshot.Incidents
	}
	if fleetStats == nil {
		fleetStats = snapshot.FleetStats
	}
	return chargers, incidents, fleetStats
}

// sanitizeMessages keeps non-blank user and assistant turns, trims history
// to the newest entries, and caps each message length.
func sanitizeMessages(messages []models.Message) []models.Message {
	kept := make([]models.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != models.RoleUser && msg.Role != models.RoleAssistant {
			continue
		}
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		kept = append(kept, models.Message{Role: msg.Role, Content: truncateRunes(msg.Content, maxMessageChars)})
	}
	if len(kept) > maxHistoryMessages {
		kept = kept[len(kept)-maxHistoryMessages:]
	}
	return kept
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// mentionedChargerIDs unions the charger references found in the prompt and
// the reply, keeping only ids present in the fleet.
func mentionedChargerIDs(prompt, reply string, chargers []models.Charger) []string {
	valid := make(map[string]struct{}, len(chargers))
	for _, charger := range chargers {
		valid[charger.ID] = struct{}{}
	}

	seen := make(map[string]struct{})
	ids := []string{}
	for _, id := range append(livecontext.ExtractChargerMentions(prompt), livecontext.ExtractChargerMentions(reply)...) {
		if _, ok := valid[id]; !ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
