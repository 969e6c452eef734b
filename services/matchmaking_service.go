package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/gladiator-fit/backend/matchup"
	"github.com/gladiator-fit/backend/models"
	"github.com/gladiator-fit/backend/repositories"
	"github.com/google/uuid"
)

type EnrollStatus string

const (
	// EnrollJoinedExisting: the caller already has a live battle.
	EnrollJoinedExisting EnrollStatus = "joined_existing_battle"
	// EnrollQueued: the caller now waits in a pending group.
	EnrollQueued EnrollStatus = "queued"
	// EnrollBattlesStarted: the caller's join filled the group and battles
	// were formed.
	EnrollBattlesStarted EnrollStatus = "battles_started"
)

type EnrollResult struct {
	Status            EnrollStatus   `json:"status"`
	Battle            *models.Battle `json:"battle,omitempty"`
	WaitingForPlayers int            `json:"waiting_for_players,omitempty"`
}

type MatchmakingService interface {
	Enroll(ctx context.Context, userID string) (*EnrollResult, error)
	// CompleteGroupIfDone closes the group once every battle it owns has
	// resolved. Idempotent; invoked after each battle resolution.
	CompleteGroupIfDone(ctx context.Context, exec repositories.SQLExecutor, groupID string) (bool, error)
}

type matchmakingService struct {
	tx            TxRunner
	userRepo      repositories.UserRepository
	challengeRepo repositories.ChallengeRepository
	battleRepo    repositories.BattleRepository
	groupRepo     repositories.VotingGroupRepository
	logger        *slog.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewMatchmakingService(
	tx TxRunner,
	userRepo repositories.UserRepository,
	challengeRepo repositories.ChallengeRepository,
	battleRepo repositories.BattleRepository,
	groupRepo repositories.VotingGroupRepository,
	rnd *rand.Rand,
	logger *slog.Logger,
) MatchmakingService {
	return &matchmakingService{
		tx:            tx,
		userRepo:      userRepo,
		challengeRepo: challengeRepo,
		battleRepo:    battleRepo,
		groupRepo:     groupRepo,
		rnd:           rnd,
		logger:        logger,
	}
}

func (s *matchmakingService) Enroll(ctx context.Context, userID string) (*EnrollResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var result *EnrollResult
	err = s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		var txErr error
		result, txErr = s.enroll(ctx, tx, user)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *matchmakingService) enroll(ctx context.Context, tx repositories.SQLExecutor, user *models.User) (*EnrollResult, error) {
	// A live battle short-circuits the enrollment: the caller is sent back
	// to the battle they already fight in.
	live, err := s.battleRepo.FindLiveByUser(ctx, tx, user.ID)
	if err != nil && !errors.Is(err, repositories.ErrBattleNotFound) {
		return nil, err
	}
	if live != nil {
		return &EnrollResult{Status: EnrollJoinedExisting, Battle: live}, nil
	}

	queued, err := s.groupRepo.HasPendingMembership(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}
	if queued {
		return nil, ErrAlreadyEngaged
	}

	groupID, err := s.groupRepo.FindOpenGroupID(ctx, tx)
	switch {
	case errors.Is(err, repositories.ErrVotingGroupNotFound):
		group := &models.VotingGroup{ID: uuid.NewString(), Status: models.GroupStatusPending}
		if createErr := s.groupRepo.Create(ctx, tx, group); createErr != nil {
			return nil, createErr
		}
		groupID = group.ID
	case err != nil:
		return nil, err
	}

	// The row lock is the critical section: every enrollment into this
	// group serializes here, so the count below cannot be stale and only
	// the tenth insert triggers formation.
	if err := s.groupRepo.LockGroup(ctx, tx, groupID); err != nil {
		return nil, err
	}

	count, err := s.groupRepo.CompetitorCount(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	if count >= models.GroupSize {
		// Lost the race for the last open slot; start a fresh group.
		group := &models.VotingGroup{ID: uuid.NewString(), Status: models.GroupStatusPending}
		if createErr := s.groupRepo.Create(ctx, tx, group); createErr != nil {
			return nil, createErr
		}
		groupID = group.ID
		if err := s.groupRepo.LockGroup(ctx, tx, groupID); err != nil {
			return nil, err
		}
		count = 0
	}

	member := &models.VotingGroupMember{
		ID:      uuid.NewString(),
		GroupID: groupID,
		UserID:  user.ID,
		Role:    models.RoleCompetitor,
	}
	if err := s.groupRepo.AddMember(ctx, tx, member); err != nil {
		if errors.Is(err, repositories.ErrGroupMemberConflict) {
			return nil, ErrAlreadyEngaged
		}
		return nil, err
	}
	count++

	if count < models.GroupSize {
		return &EnrollResult{
			Status:            EnrollQueued,
			WaitingForPlayers: models.GroupSize - count,
		}, nil
	}

	battle, err := s.formBattles(ctx, tx, groupID, user)
	if err != nil {
		return nil, err
	}
	return &EnrollResult{Status: EnrollBattlesStarted, Battle: battle}, nil
}

// formBattles pairs the full group into battles and hands out voter
// assignments. Runs under the group row lock; any failure rolls back the
// whole enrollment, including the triggering insert.
func (s *matchmakingService) formBattles(ctx context.Context, tx repositories.SQLExecutor, groupID string, trigger *models.User) (*models.Battle, error) {
	challengeID, err := s.pickChallenge(ctx, tx, trigger.FitnessLevel)
	if err != nil {
		return nil, err
	}

	competitorIDs, err := s.groupRepo.ListCompetitorIDs(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	if len(competitorIDs) != models.GroupSize {
		return nil, fmt.Errorf("group %s has %d competitors at formation time", groupID, len(competitorIDs))
	}

	s.rndMu.Lock()
	pairs, err := matchup.PairCompetitors(competitorIDs, s.rnd)
	s.rndMu.Unlock()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	battles := make([]*models.Battle, 0, len(pairs))
	var own *models.Battle
	for _, pair := range pairs {
		battle := &models.Battle{
			ID:          uuid.NewString(),
			ChallengeID: challengeID,
			User1ID:     pair.User1ID,
			User2ID:     pair.User2ID,
			Status:      models.BattleStatusActive,
			StartedAt:   &now,
		}
		if err := s.battleRepo.Create(ctx, tx, battle); err != nil {
			return nil, err
		}
		if err := s.groupRepo.SetCompetitorBattle(ctx, tx, groupID, battle.ID, []string{pair.User1ID, pair.User2ID}); err != nil {
			return nil, err
		}
		battles = append(battles, battle)
		if battle.HasParticipant(trigger.ID) {
			own = battle
		}
	}

	for _, assignment := range matchup.VoterAssignments(pairs) {
		voter := &models.VotingGroupMember{
			ID:       uuid.NewString(),
			GroupID:  groupID,
			UserID:   assignment.UserID,
			Role:     models.RoleVoter,
			BattleID: &battles[assignment.PairIndex].ID,
		}
		if err := s.groupRepo.AddMember(ctx, tx, voter); err != nil {
			return nil, err
		}
	}

	if err := s.groupRepo.UpdateStatus(ctx, tx, groupID, models.GroupStatusActive); err != nil {
		return nil, err
	}

	s.logger.Info("voting group formed",
		slog.String("group_id", groupID),
		slog.Int("battles", len(battles)),
		slog.String("challenge_id", challengeID))
	return own, nil
}

func (s *matchmakingService) pickChallenge(ctx context.Context, tx repositories.SQLExecutor, level models.FitnessLevel) (string, error) {
	ids, err := s.challengeRepo.ListActiveIDs(ctx, tx, level)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", ErrNoChallengeAvailable
	}

	s.rndMu.Lock()
	id := ids[s.rnd.Intn(len(ids))]
	s.rndMu.Unlock()
	return id, nil
}

func (s *matchmakingService) CompleteGroupIfDone(ctx context.Context, exec repositories.SQLExecutor, groupID string) (bool, error) {
	// Resolutions of sibling battles hold only their own battle row lock.
	// Without the group lock two final resolutions can each count the
	// other's battle as unfinished and leave the group active forever.
	if err := s.groupRepo.LockGroup(ctx, exec, groupID); err != nil {
		return false, err
	}
	total, completed, err := s.battleRepo.CountByGroup(ctx, exec, groupID)
	if err != nil {
		return false, err
	}
	if total == 0 || completed < total {
		return false, nil
	}
	if err := s.groupRepo.UpdateStatus(ctx, exec, groupID, models.GroupStatusCompleted); err != nil {
		return false, err
	}
	return true, nil
}
