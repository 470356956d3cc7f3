package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/repositories"
	"github.com/pitchside/efootball-arena/storage"
)

type UpdateProfileInput struct {
	GameID      *string `json:"game_id" validate:"omitempty,min=3,max=64"`
	DisplayName *string `json:"display_name" validate:"omitempty,min=2,max=64"`
}

type PlayerService interface {
	GetProfile(ctx context.Context, playerID int) (*models.Player, error)
	UpdateProfile(ctx context.Context, playerID int, input UpdateProfileInput, actor Actor) (*models.Player, error)
	UploadAvatar(ctx context.Context, playerID int, contentType string, reader io.Reader, actor Actor) (*models.Player, error)
	SetActive(ctx context.Context, playerID int, active bool, actor Actor) error
	List(ctx context.Context, limit, offset int) ([]*models.Player, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
}

func NewPlayerService(playerRepo repositories.PlayerRepository, uploader storage.FileUploader) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		uploader:   uploader,
	}
}

func (s *playerService) GetProfile(ctx context.Context, playerID int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	player.PasswordHash = ""
	s.attachAvatarURL(player)
	return player, nil
}

func (s *playerService) UpdateProfile(ctx context.Context, playerID int, input UpdateProfileInput, actor Actor) (*models.Player, error) {
	if actor.PlayerID != playerID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	if input.GameID != nil {
		player.GameID = *input.GameID
	}
	if input.DisplayName != nil {
		player.DisplayName = *input.DisplayName
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerPhoneConflict):
			return nil, ErrPhoneConflict
		case errors.Is(err, repositories.ErrPlayerGameIDConflict):
			return nil, ErrGameIDConflict
		}
		return nil, err
	}

	player.PasswordHash = ""
	s.attachAvatarURL(player)
	return player, nil
}

func (s *playerService) UploadAvatar(ctx context.Context, playerID int, contentType string, reader io.Reader, actor Actor) (*models.Player, error) {
	if actor.PlayerID != playerID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: file storage is not configured", ErrPrecondition)
	}

	player, err := s.GetProfile(ctx, playerID)
	if err != nil {
		return nil, err
	}

	key := path.Join("avatars", fmt.Sprintf("%d", playerID), uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.playerRepo.UpdateAvatarKey(ctx, playerID, &result.Key); err != nil {
		return nil, err
	}

	// Old avatars are orphaned on purpose; bucket lifecycle rules clean
	// them up.
	player.AvatarKey = &result.Key
	s.attachAvatarURL(player)
	return player, nil
}

func (s *playerService) SetActive(ctx context.Context, playerID int, active bool, actor Actor) error {
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}
	if err := s.playerRepo.SetActive(ctx, playerID, active); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	return nil
}

func (s *playerService) List(ctx context.Context, limit, offset int) ([]*models.Player, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	players, err := s.playerRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		p.PasswordHash = ""
		s.attachAvatarURL(p)
	}
	return players, nil
}

func (s *playerService) attachAvatarURL(p *models.Player) {
	if s.uploader == nil || p.AvatarKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*p.AvatarKey)
	p.AvatarURL = &url
}
