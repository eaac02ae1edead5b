// Copyright (c) 2026 Vistream. All rights reserved.

/*
Package channel serves the public-facing channel reads.

A channel is just a user viewed from the outside: the profile aggregate adds
subscriber counts and the caller's subscription state, and the watch history
read joins the viewer's history with video and owner metadata.

# Architecture

This package is read-only. Subscriptions and watch history rows are written
elsewhere; everything here is SELECT aggregation.
*/
package channel

import (
	"context"
	"time"
)

// # Read Models

// Profile is the aggregated public view of a channel.
type Profile struct {
	ID                        string `json:"id"`
	Username                  string `json:"username"`
	Email                     string `json:"email"`
	FullName                  string `json:"fullName"`
	AvatarURL                 string `json:"avatar"`
	CoverImageURL             string `json:"coverImage,omitempty"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// OwnerSummary is the compact owner block embedded in watch history entries.
type OwnerSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatar"`
}

// WatchHistoryEntry is one watched video with its owner summary.
type WatchHistoryEntry struct {
	VideoID      string       `json:"videoId"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	ThumbnailURL string       `json:"thumbnail"`
	Duration     float64      `json:"duration"`
	Views        int64        `json:"views"`
	WatchedAt    time.Time    `json:"watchedAt"`
	Owner        OwnerSummary `json:"owner"`
}

// # Repository Contract

// ChannelRepository defines the aggregation reads backing this package.
type ChannelRepository interface {
	/*
		GetProfile aggregates the channel profile for a viewer.

		Parameters:
		  - context: context.Context
		  - username: string (normalized form)
		  - viewerID: string (the authenticated caller, for IsSubscribed)

		Returns:
		  - *Profile: Aggregated channel view
		  - error: apperr.NotFound for unknown channels, or storage failures
	*/
	GetProfile(context context.Context, username, viewerID string) (*Profile, error)

	/*
		ListWatchHistory returns the viewer's history, most recent first.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []WatchHistoryEntry: Ordered history (empty slice when none)
		  - error: Storage failures
	*/
	ListWatchHistory(context context.Context, userID string) ([]WatchHistoryEntry, error)
}
