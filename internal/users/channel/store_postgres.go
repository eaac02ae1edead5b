// Copyright (c) 2026 Vistream. All rights reserved.

package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vistream/vistream/internal/platform/apperr"
)

// PostgresChannelRepository implements ChannelRepository using pgx.
type PostgresChannelRepository struct {
	pool *pgxpool.Pool
}

// NewChannelRepository creates a new PostgreSQL implementation of ChannelRepository.
func NewChannelRepository(pool *pgxpool.Pool) *PostgresChannelRepository {
	return &PostgresChannelRepository{pool: pool}
}

/*
GetProfile aggregates the channel profile in a single round trip.

Description: Correlated subqueries compute both subscription counts and the
viewer's subscription state alongside the profile row, avoiding N+1 reads.

Parameters:
  - context: context.Context
  - username: string
  - viewerID: string

Returns:
  - *Profile: Aggregated channel view
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresChannelRepository) GetProfile(context context.Context, username, viewerID string) (*Profile, error) {
	const query = `
		SELECT
			a.id, a.username, a.email, a.fullname, a.avatarurl, a.coverimageurl,
			(SELECT COUNT(*) FROM users.subscription s WHERE s.channelid = a.id)    AS subscribers,
			(SELECT COUNT(*) FROM users.subscription s WHERE s.subscriberid = a.id) AS subscribed_to,
			EXISTS (
				SELECT 1 FROM users.subscription s
				WHERE s.channelid = a.id AND s.subscriberid = $2
			) AS is_subscribed
		FROM users.account a
		WHERE a.username = $1 AND a.deletedat IS NULL`

	profile := &Profile{}
	err := repository.pool.QueryRow(context, query, username, viewerID).Scan(
		&profile.ID,
		&profile.Username,
		&profile.Email,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.CoverImageURL,
		&profile.SubscribersCount,
		&profile.ChannelsSubscribedToCount,
		&profile.IsSubscribed,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundMsg("Channel does not exist")
		}
		return nil, fmt.Errorf("postgres_channel_repo_profile_failed: %w", err)
	}

	return profile, nil
}

/*
ListWatchHistory joins the viewer's history with video and owner metadata.

Description: Most recent first. Soft-deleted owners drop their videos from
the result rather than surfacing orphaned entries.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []WatchHistoryEntry: Ordered history (never nil)
  - error: Execution errors
*/
func (repository *PostgresChannelRepository) ListWatchHistory(context context.Context, userID string) ([]WatchHistoryEntry, error) {
	const query = `
		SELECT
			v.id, v.title, v.description, v.thumbnailurl, v.duration, v.views,
			w.watchedat,
			o.id, o.username, o.fullname, o.avatarurl
		FROM library.watchhistory w
		JOIN core.video v ON v.id = w.videoid
		JOIN users.account o ON o.id = v.ownerid AND o.deletedat IS NULL
		WHERE w.userid = $1
		ORDER BY w.watchedat DESC`

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_channel_repo_history_failed: %w", err)
	}
	defer rows.Close()

	entries := make([]WatchHistoryEntry, 0)
	for rows.Next() {
		var entry WatchHistoryEntry
		err := rows.Scan(
			&entry.VideoID,
			&entry.Title,
			&entry.Description,
			&entry.ThumbnailURL,
			&entry.Duration,
			&entry.Views,
			&entry.WatchedAt,
			&entry.Owner.ID,
			&entry.Owner.Username,
			&entry.Owner.FullName,
			&entry.Owner.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_channel_repo_history_scan_failed: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_channel_repo_history_rows_failed: %w", err)
	}

	return entries, nil
}
