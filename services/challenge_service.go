package services

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/gladiator-fit/backend/models"
	"github.com/gladiator-fit/backend/repositories"
)

// dailyPoolSize is how many challenges the daily pool offers a user.
const dailyPoolSize = 5

type ChallengeService interface {
	List(ctx context.Context, difficulty *models.FitnessLevel, limit int) ([]*models.Challenge, error)
	Get(ctx context.Context, id string) (*models.Challenge, error)
	// DailyPool returns up to five random active challenges matching the
	// user's fitness level.
	DailyPool(ctx context.Context, userID string) ([]*models.Challenge, error)
}

type challengeService struct {
	challengeRepo repositories.ChallengeRepository
	userRepo      repositories.UserRepository

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewChallengeService(challengeRepo repositories.ChallengeRepository, userRepo repositories.UserRepository, rnd *rand.Rand) ChallengeService {
	return &challengeService{
		challengeRepo: challengeRepo,
		userRepo:      userRepo,
		rnd:           rnd,
	}
}

func (s *challengeService) List(ctx context.Context, difficulty *models.FitnessLevel, limit int) ([]*models.Challenge, error) {
	if difficulty != nil && !difficulty.Valid() {
		return nil, ErrInvalidFitnessLevel
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.challengeRepo.ListActive(ctx, difficulty, limit)
}

func (s *challengeService) Get(ctx context.Context, id string) (*models.Challenge, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrChallengeNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return challenge, nil
}

func (s *challengeService) DailyPool(ctx context.Context, userID string) ([]*models.Challenge, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	difficulty := user.FitnessLevel
	challenges, err := s.challengeRepo.ListActive(ctx, &difficulty, 100)
	if err != nil {
		return nil, err
	}

	s.rndMu.Lock()
	s.rnd.Shuffle(len(challenges), func(i, j int) {
		challenges[i], challenges[j] = challenges[j], challenges[i]
	})
	s.rndMu.Unlock()

	if len(challenges) > dailyPoolSize {
		challenges = challenges[:dailyPoolSize]
	}
	return challenges, nil
}
