package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/repositories"
)

const bcryptCost = 14

const tokenTTL = 24 * time.Hour

type AuthService interface {
	Register(ctx context.Context, input models.Registration) (*models.Player, string, error)
	Login(ctx context.Context, input models.Credentials) (*models.Player, string, error)
	// ParseToken validates a bearer token and returns the actor it encodes.
	ParseToken(tokenString string) (Actor, error)
}

type authService struct {
	playerRepo repositories.PlayerRepository
	jwtSecret  []byte
}

func NewAuthService(playerRepo repositories.PlayerRepository, jwtSecret []byte) AuthService {
	return &authService{
		playerRepo: playerRepo,
		jwtSecret:  jwtSecret,
	}
}

func (s *authService) Register(ctx context.Context, input models.Registration) (*models.Player, string, error) {
	if len(input.Password) < 8 {
		return nil, "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	player := &models.Player{
		Phone:        input.Phone,
		GameID:       input.GameID,
		DisplayName:  input.DisplayName,
		PasswordHash: string(hash),
		Role:         models.RolePlayer,
		Active:       true,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerPhoneConflict):
			return nil, "", ErrPhoneConflict
		case errors.Is(err, repositories.ErrPlayerGameIDConflict):
			return nil, "", ErrGameIDConflict
		}
		return nil, "", fmt.Errorf("failed to create player: %w", err)
	}

	token, err := s.issueToken(player)
	if err != nil {
		return nil, "", err
	}
	player.PasswordHash = ""
	return player, token, nil
}

func (s *authService) Login(ctx context.Context, input models.Credentials) (*models.Player, string, error) {
	player, err := s.playerRepo.GetByPhone(ctx, input.Phone)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find player by phone: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to compare password hash: %w", err)
	}
	if !player.Active {
		return nil, "", ErrPlayerDeactivated
	}

	token, err := s.issueToken(player)
	if err != nil {
		return nil, "", err
	}
	player.PasswordHash = ""
	return player, token, nil
}

func (s *authService) issueToken(player *models.Player) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": player.ID,
		"role":    string(player.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *authService) ParseToken(tokenString string) (Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return Actor{}, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, ErrInvalidCredentials
	}
	idRaw, ok := claims["user_id"].(float64)
	if !ok {
		return Actor{}, ErrInvalidCredentials
	}
	roleRaw, _ := claims["role"].(string)

	return Actor{PlayerID: int(idRaw), Role: models.PlayerRole(roleRaw)}, nil
}
