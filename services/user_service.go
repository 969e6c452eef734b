package services

import (
	"context"
	"errors"

	"github.com/gladiator-fit/backend/models"
	"github.com/gladiator-fit/backend/repositories"
	"golang.org/x/sync/errgroup"
)

type UserStats struct {
	Tier          models.Tier      `json:"tier"`
	Level         int              `json:"level"`
	Points        int              `json:"points"`
	Wins          int              `json:"wins"`
	Losses        int              `json:"losses"`
	RankPosition  int              `json:"rank_position"`
	RecentBattles []*models.Battle `json:"recent_battles"`
	VotesCorrect  int              `json:"votes_correct"`
	VotesTotal    int              `json:"votes_total"`
}

type LeaderboardEntry struct {
	Position    int         `json:"position"`
	UserID      string      `json:"user_id"`
	DisplayName string      `json:"display_name"`
	AvatarURL   *string     `json:"avatar_url,omitempty"`
	Tier        models.Tier `json:"tier"`
	Level       int         `json:"level"`
	Points      int         `json:"points"`
	Wins        int         `json:"wins"`
	Losses      int         `json:"losses"`
}

type Leaderboard struct {
	Entries    []*LeaderboardEntry `json:"entries"`
	MyPosition int                 `json:"my_position"`
}

type UserService interface {
	Get(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, patch models.UserProfilePatch) (*models.User, error)
	Stats(ctx context.Context, id string) (*UserStats, error)
	Leaderboard(ctx context.Context, callerID string, limit int) (*Leaderboard, error)
}

const recentBattleLimit = 10

type userService struct {
	userRepo   repositories.UserRepository
	battleRepo repositories.BattleRepository
	voteRepo   repositories.VoteRepository
}

func NewUserService(
	userRepo repositories.UserRepository,
	battleRepo repositories.BattleRepository,
	voteRepo repositories.VoteRepository,
) UserService {
	return &userService{userRepo: userRepo, battleRepo: battleRepo, voteRepo: voteRepo}
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, patch models.UserProfilePatch) (*models.User, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyProfilePatch
	}
	if patch.FitnessLevel != nil && !patch.FitnessLevel.Valid() {
		return nil, ErrInvalidFitnessLevel
	}

	user, err := s.userRepo.UpdateProfile(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Stats(ctx context.Context, id string) (*UserStats, error) {
	var user *models.User
	var position int
	var recent []*models.Battle
	var votesCorrect, votesTotal int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.userRepo.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		position, err = s.userRepo.RankPosition(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.battleRepo.ListRecentByUser(gctx, id, recentBattleLimit)
		return err
	})
	g.Go(func() error {
		var err error
		votesCorrect, votesTotal, err = s.voteRepo.AccuracyByVoter(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &UserStats{
		Tier:          user.Tier,
		Level:         user.Level,
		Points:        user.Points,
		Wins:          user.Wins,
		Losses:        user.Losses,
		RankPosition:  position,
		RecentBattles: recent,
		VotesCorrect:  votesCorrect,
		VotesTotal:    votesTotal,
	}, nil
}

func (s *userService) Leaderboard(ctx context.Context, callerID string, limit int) (*Leaderboard, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var top []*models.User
	var myPosition int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		top, err = s.userRepo.Leaderboard(gctx, limit)
		return err
	})
	g.Go(func() error {
		var err error
		myPosition, err = s.userRepo.RankPosition(gctx, callerID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	entries := make([]*LeaderboardEntry, 0, len(top))
	for i, user := range top {
		entries = append(entries, &LeaderboardEntry{
			Position:    i + 1,
			UserID:      user.ID,
			DisplayName: user.DisplayName,
			AvatarURL:   user.AvatarURL,
			Tier:        user.Tier,
			Level:       user.Level,
			Points:      user.Points,
			Wins:        user.Wins,
			Losses:      user.Losses,
		})
	}

	return &Leaderboard{Entries: entries, MyPosition: myPosition}, nil
}
