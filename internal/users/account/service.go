// Copyright (c) 2026 Vistream. All rights reserved.

package account

import (
	"context"
	"log/slog"

	"github.com/vistream/vistream/internal/platform/apperr"
	"github.com/vistream/vistream/internal/users/auth"
	"github.com/vistream/vistream/pkg/normalize"
)

// # Service Layer

// Service orchestrates profile updates for authenticated users.
type Service struct {
	accountRepository AccountRepository
	mediaUploader     auth.MediaUploader
	logger            *slog.Logger
}

// NewService constructs a new account [Service].
func NewService(accountRepo AccountRepository, uploader auth.MediaUploader, logger *slog.Logger) *Service {
	return &Service{
		accountRepository: accountRepo,
		mediaUploader:     uploader,
		logger:            logger,
	}
}

// # Profile Management

/*
UpdateDetails replaces the user's full name and email.

Parameters:
  - context: context.Context
  - userID: string
  - fullName: string
  - email: string

Returns:
  - *auth.User: The updated sanitized profile
  - error: Conflict, not found, or storage failures
*/
func (service *Service) UpdateDetails(context context.Context, userID, fullName, email string) (*auth.User, error) {
	user, err := service.accountRepository.UpdateDetails(context, userID, fullName, normalize.Email(email))
	if err != nil {
		return nil, err
	}

	service.logger.Info("account_details_updated", slog.String("user_id", userID))

	return user, nil
}

// # Profile Media

/*
UpdateAvatar pushes a staged avatar to media storage and persists its URL.

Description: A failed upload is a downstream outage, not a client mistake,
so it surfaces as Internal rather than BadRequest.

Parameters:
  - context: context.Context
  - userID: string
  - localPath: string (staged file)

Returns:
  - *auth.User: The updated sanitized profile
  - error: Internal (upload) or storage failures
*/
func (service *Service) UpdateAvatar(context context.Context, userID, localPath string) (*auth.User, error) {
	url, err := service.mediaUploader.Upload(context, localPath)
	if err != nil {
		return nil, apperr.InternalMsg("Error while uploading avatar", err)
	}

	user, err := service.accountRepository.UpdateAvatar(context, userID, url)
	if err != nil {
		return nil, err
	}

	service.logger.Info("account_avatar_updated", slog.String("user_id", userID))

	return user, nil
}

/*
UpdateCoverImage pushes a staged cover image to media storage and persists its URL.

Parameters:
  - context: context.Context
  - userID: string
  - localPath: string (staged file)

Returns:
  - *auth.User: The updated sanitized profile
  - error: Internal (upload) or storage failures
*/
func (service *Service) UpdateCoverImage(context context.Context, userID, localPath string) (*auth.User, error) {
	url, err := service.mediaUploader.Upload(context, localPath)
	if err != nil {
		return nil, apperr.InternalMsg("Error while uploading cover image", err)
	}

	user, err := service.accountRepository.UpdateCoverImage(context, userID, url)
	if err != nil {
		return nil, err
	}

	service.logger.Info("account_cover_image_updated", slog.String("user_id", userID))

	return user, nil
}
