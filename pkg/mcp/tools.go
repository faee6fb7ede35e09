package mcp

import (
	"context"
	"encoding/json"
	"time"
)

const (
	defaultSinceHours  = 24
	defaultRecentLimit = 20
	maxRecentLimit     = 500
)

type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

type tool struct {
	def    ToolDefinition
	handle toolHandler
}

var tools = []tool{
	{
		def: ToolDefinition{
			Name:        "cascade_model_stats",
			Description: "Per-model attempt counts, outcomes and average latency over a recent period.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"since_hours": map[string]any{
						"type":        "number",
						"description": "Look-back window in hours (default 24)",
					},
				},
			},
		},
		handle: handleModelStats,
	},
	{
		def: ToolDefinition{
			Name:        "cascade_recent_attempts",
			Description: "The most recent upstream attempts, newest first.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum rows to return (default 20)",
					},
				},
			},
		},
		handle: handleRecentAttempts,
	},
	{
		def: ToolDefinition{
			Name:        "cascade_models",
			Description: "The current ordered model cascade and where it was loaded from.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		handle: handleModels,
	},
}

func toolDefinitions() []ToolDefinition {
	defs := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = t.def
	}
	return defs
}

func lookupTool(name string) (tool, bool) {
	for _, t := range tools {
		if t.def.Name == name {
			return t, true
		}
	}
	return tool{}, false
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

type statsArgs struct {
	SinceHours float64 `json:"since_hours"`
}

func handleModelStats(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	if s.tracker == nil {
		return textResult("Attempt statistics are not enabled.")
	}
	var args statsArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return errorResult("Invalid arguments: " + err.Error())
		}
	}
	hours := args.SinceHours
	if hours <= 0 {
		hours = defaultSinceHours
	}
	since := time.Now().UTC().Add(-time.Duration(hours * float64(time.Hour)))

	rows, err := s.tracker.Summary(ctx, since)
	if err != nil {
		return errorResult("Error fetching stats: " + err.Error())
	}
	return textResult(formatSummary(rows))
}

type recentArgs struct {
	Limit int `json:"limit"`
}

func handleRecentAttempts(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	if s.tracker == nil {
		return textResult("Attempt statistics are not enabled.")
	}
	var args recentArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return errorResult("Invalid arguments: " + err.Error())
		}
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	recs, err := s.tracker.Recent(ctx, limit)
	if err != nil {
		return errorResult("Error fetching attempts: " + err.Error())
	}
	return textResult(formatAttempts(recs))
}

func handleModels(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.models == nil {
		return textResult("Model cascade is not configured.")
	}
	list, origin := s.models.Lookup(ctx)
	return textResult(formatCascade(list, string(origin)))
}
