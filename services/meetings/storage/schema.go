package storage

import (
	"context"
	"fmt"
)

// Schema bootstrap. Statements are idempotent so startup is safe to repeat.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS meetings (
		id            UUID PRIMARY KEY,
		title         TEXT NOT NULL,
		duration      INTEGER NOT NULL DEFAULT 0,
		file_size     BIGINT NOT NULL DEFAULT 0,
		file_path     TEXT NOT NULL,
		summary       TEXT,
		status        TEXT NOT NULL DEFAULT 'queued',
		error_message TEXT,
		user_id       TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at    TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meetings_user_id ON meetings (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_meetings_user_status ON meetings (user_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_meetings_user_created ON meetings (user_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS transcriptions (
		id         UUID PRIMARY KEY,
		meeting_id UUID NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		status     TEXT NOT NULL DEFAULT 'completed',
		full_text  TEXT NOT NULL,
		summary    TEXT,
		confidence INTEGER NOT NULL DEFAULT 0,
		language   TEXT NOT NULL DEFAULT 'en',
		word_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transcriptions_meeting_id ON transcriptions (meeting_id)`,

	`CREATE TABLE IF NOT EXISTS chat_segments (
		id               UUID PRIMARY KEY,
		transcription_id UUID NOT NULL REFERENCES transcriptions(id) ON DELETE CASCADE,
		speaker_number   INTEGER NOT NULL DEFAULT 0,
		text             TEXT NOT NULL,
		start_time       INTEGER NOT NULL,
		end_time         INTEGER NOT NULL,
		confidence       INTEGER NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_segments_transcription ON chat_segments (transcription_id, start_time)`,

	`CREATE TABLE IF NOT EXISTS action_items (
		id          UUID PRIMARY KEY,
		meeting_id  UUID NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		speaker     TEXT,
		due_date    TIMESTAMPTZ,
		priority    TEXT NOT NULL DEFAULT 'medium',
		status      TEXT NOT NULL DEFAULT 'pending',
		created_by  TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_action_items_meeting_id ON action_items (meeting_id)`,
	`CREATE INDEX IF NOT EXISTS idx_action_items_status ON action_items (status)`,
	`CREATE INDEX IF NOT EXISTS idx_action_items_priority ON action_items (priority)`,
}

func (s *storage) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
