package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gladiator-fit/backend/models"
	"github.com/gladiator-fit/backend/repositories"
)

// BattleDetail is the composed read model for one battle as seen by a
// participant.
type BattleDetail struct {
	Battle      *models.Battle    `json:"battle"`
	Challenge   *models.Challenge `json:"challenge"`
	CurrentUser *models.User      `json:"current_user"`
	Opponent    *models.User      `json:"opponent"`
}

type SubmitVideoResult struct {
	ReadyForVoting bool `json:"ready_for_voting"`
}

type BattleService interface {
	// SubmitVideo records an already-uploaded video URL on the caller's
	// side of the battle and flips it to the voting phase once both sides
	// are in. The upload itself happens before this call; no storage I/O
	// runs inside the transaction.
	SubmitVideo(ctx context.Context, battleID, userID, videoURL string) (*SubmitVideoResult, error)
	ListLiveBattles(ctx context.Context, userID string) ([]*models.Battle, error)
	GetDetail(ctx context.Context, battleID, userID string) (*BattleDetail, error)
}

type battleService struct {
	tx            TxRunner
	battleRepo    repositories.BattleRepository
	challengeRepo repositories.ChallengeRepository
	userRepo      repositories.UserRepository
	logger        *slog.Logger
}

func NewBattleService(
	tx TxRunner,
	battleRepo repositories.BattleRepository,
	challengeRepo repositories.ChallengeRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) BattleService {
	return &battleService{
		tx:            tx,
		battleRepo:    battleRepo,
		challengeRepo: challengeRepo,
		userRepo:      userRepo,
		logger:        logger,
	}
}

func (s *battleService) SubmitVideo(ctx context.Context, battleID, userID, videoURL string) (*SubmitVideoResult, error) {
	var result *SubmitVideoResult

	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		battle, err := s.battleRepo.GetByIDForUpdate(ctx, tx, battleID)
		if err != nil {
			if errors.Is(err, repositories.ErrBattleNotFound) {
				return ErrBattleNotFound
			}
			return err
		}

		if battle.Status != models.BattleStatusActive {
			return ErrBattleNotActive
		}
		if !battle.HasParticipant(userID) {
			return ErrNotBattleParticipant
		}

		slot := 1
		if battle.User2ID == userID {
			slot = 2
		}
		if err := s.battleRepo.SetVideoURL(ctx, tx, battleID, slot, videoURL); err != nil {
			return err
		}
		if err := s.battleRepo.RecordUpload(ctx, tx, userID, battleID, videoURL); err != nil {
			return err
		}

		if slot == 1 {
			battle.User1VideoURL = &videoURL
		} else {
			battle.User2VideoURL = &videoURL
		}

		result = &SubmitVideoResult{ReadyForVoting: battle.BothVideosIn()}
		if result.ReadyForVoting {
			if err := s.battleRepo.UpdateStatus(ctx, tx, battleID, models.BattleStatusPending); err != nil {
				return err
			}
			s.logger.Info("battle ready for voting", slog.String("battle_id", battleID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *battleService) ListLiveBattles(ctx context.Context, userID string) ([]*models.Battle, error) {
	return s.battleRepo.ListLiveByUser(ctx, userID)
}

func (s *battleService) GetDetail(ctx context.Context, battleID, userID string) (*BattleDetail, error) {
	battle, err := s.battleRepo.GetByID(ctx, battleID)
	if err != nil {
		if errors.Is(err, repositories.ErrBattleNotFound) {
			return nil, ErrBattleNotFound
		}
		return nil, err
	}
	// Participants only; outsiders get the same answer as a missing battle.
	if !battle.HasParticipant(userID) {
		return nil, ErrBattleNotFound
	}

	challenge, err := s.challengeRepo.GetByID(ctx, battle.ChallengeID)
	if err != nil && !errors.Is(err, repositories.ErrChallengeNotFound) {
		return nil, err
	}

	current, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	opponent, err := s.userRepo.GetByID(ctx, battle.OpponentOf(userID))
	if err != nil {
		return nil, err
	}

	return &BattleDetail{
		Battle:      battle,
		Challenge:   challenge,
		CurrentUser: current,
		Opponent:    opponent,
	}, nil
}
