// Copyright (c) 2026 Vistream. All rights reserved.

package channel

import (
	"context"
	"fmt"

	"github.com/vistream/vistream/pkg/normalize"
)

// # Service Layer

// Service exposes the channel read use cases.
type Service struct {
	channelRepository ChannelRepository
}

// NewService constructs a new channel [Service].
func NewService(channelRepo ChannelRepository) *Service {
	return &Service{channelRepository: channelRepo}
}

/*
GetProfile resolves a channel by username for a specific viewer.

Parameters:
  - context: context.Context
  - username: string (raw user input; normalized here)
  - viewerID: string

Returns:
  - *Profile: Aggregated channel view
  - error: NotFound or storage failures
*/
func (service *Service) GetProfile(context context.Context, username, viewerID string) (*Profile, error) {
	return service.channelRepository.GetProfile(context, normalize.Username(username), viewerID)
}

/*
WatchHistory returns the viewer's watch history, most recent first.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []WatchHistoryEntry: Ordered history
  - error: Storage failures
*/
func (service *Service) WatchHistory(context context.Context, userID string) ([]WatchHistoryEntry, error) {
	entries, err := service.channelRepository.ListWatchHistory(context, userID)
	if err != nil {
		return nil, fmt.Errorf("channel_service_watch_history_failed: %w", err)
	}
	return entries, nil
}
