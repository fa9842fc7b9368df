package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/breezebot/breezebot/internal/core"
	"github.com/breezebot/breezebot/pkg/log"
)

type TurnsRepo struct {
	db *sql.DB
}

func NewTurnsRepo(db *sql.DB) *TurnsRepo {
	return &TurnsRepo{db: db}
}

// AppendTurn stores one finalized turn. Implements the orchestrator journal.
func (r *TurnsRepo) AppendTurn(ctx context.Context, sessionID string, turn core.Turn) error {
	var toolCall, toolResult string
	if turn.ToolCall != nil {
		b, err := json.Marshal(turn.ToolCall)
		if err != nil {
			return fmt.Errorf("failed to marshal tool call: %w", err)
		}
		toolCall = string(b)
	}
	if turn.ToolResult != nil {
		b, err := json.Marshal(turn.ToolResult)
		if err != nil {
			return fmt.Errorf("failed to marshal tool result: %w", err)
		}
		toolResult = string(b)
	}

	query := `INSERT INTO turns (session_id, role, content, tool_call, tool_result, truncated) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, sessionID, turn.Role, turn.Content, toolCall, toolResult, turn.Truncated); err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

// RecentTurns returns the last limit turns in chronological order.
func (r *TurnsRepo) RecentTurns(ctx context.Context, sessionID string, limit int) ([]core.Turn, error) {
	query := `SELECT role, content, tool_call, tool_result, truncated FROM turns WHERE session_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []core.Turn
	for rows.Next() {
		var turn core.Turn
		var content, toolCall, toolResult sql.NullString

		if err := rows.Scan(&turn.Role, &content, &toolCall, &toolResult, &turn.Truncated); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Content = content.String

		if toolCall.Valid && toolCall.String != "" {
			turn.ToolCall = &core.ToolCall{}
			if err := json.Unmarshal([]byte(toolCall.String), turn.ToolCall); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool call: %w", err)
			}
		}
		if toolResult.Valid && toolResult.String != "" {
			turn.ToolResult = &core.ToolOutcome{}
			if err := json.Unmarshal([]byte(toolResult.String), turn.ToolResult); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool result: %w", err)
			}
		}

		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query returned turns newest first; the transcript wants them
	// chronological.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(turns)).Msg("loaded journaled turns")
	return turns, nil
}
