package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gladiator-fit/backend/models"
	"github.com/gladiator-fit/backend/repositories"
	"github.com/google/uuid"
)

// memStore backs the fake repositories with plain in-memory tables so the
// services can be exercised without Postgres.
type memStore struct {
	users      map[string]*models.User
	challenges map[string]*models.Challenge
	groups     map[string]*models.VotingGroup
	members    []*models.VotingGroupMember
	battles    map[string]*models.Battle
	votes      []*models.Vote
	uploads    []*models.VideoUpload
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[string]*models.User),
		challenges: make(map[string]*models.Challenge),
		groups:     make(map[string]*models.VotingGroup),
		battles:    make(map[string]*models.Battle),
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for id, u := range s.users {
		copied := *u
		c.users[id] = &copied
	}
	for id, ch := range s.challenges {
		copied := *ch
		c.challenges[id] = &copied
	}
	for id, g := range s.groups {
		copied := *g
		c.groups[id] = &copied
	}
	for _, m := range s.members {
		copied := *m
		c.members = append(c.members, &copied)
	}
	for id, b := range s.battles {
		copied := *b
		c.battles[id] = &copied
	}
	for _, v := range s.votes {
		copied := *v
		c.votes = append(c.votes, &copied)
	}
	for _, u := range s.uploads {
		copied := *u
		c.uploads = append(c.uploads, &copied)
	}
	return c
}

func (s *memStore) competitorCount(groupID string) int {
	count := 0
	for _, m := range s.members {
		if m.GroupID == groupID && m.Role == models.RoleCompetitor {
			count++
		}
	}
	return count
}

// fakeTxRunner snapshots the store before the callback and restores it on
// error, mimicking a rolled-back transaction.
type fakeTxRunner struct {
	store *memStore
}

func (r *fakeTxRunner) RunInTx(ctx context.Context, fn func(tx repositories.SQLExecutor) error) error {
	snapshot := r.store.clone()
	if err := fn(nil); err != nil {
		*r.store = *snapshot
		return err
	}
	return nil
}

type fakeUserRepo struct {
	s *memStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = uuid.NewString()
	user.Tier = models.TierBronze
	user.Level = 1
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, id string, patch models.UserProfilePatch) (*models.User, error) {
	user, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	if patch.DisplayName != nil {
		user.DisplayName = *patch.DisplayName
	}
	if patch.FitnessLevel != nil {
		user.FitnessLevel = *patch.FitnessLevel
	}
	if patch.HeightCm != nil {
		user.HeightCm = patch.HeightCm
	}
	if patch.WeightKg != nil {
		user.WeightKg = patch.WeightKg
	}
	if patch.Age != nil {
		user.Age = patch.Age
	}
	if patch.Gender != nil {
		user.Gender = patch.Gender
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = patch.AvatarURL
	}
	user.UpdatedAt = time.Now()
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) ApplyMatchResult(ctx context.Context, exec repositories.SQLExecutor, winnerID, loserID string) error {
	winner, ok := r.s.users[winnerID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	loser, ok := r.s.users[loserID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	winner.Wins++
	winner.Points += 100
	loser.Losses++
	loser.Points -= 50
	if loser.Points < 0 {
		loser.Points = 0
	}
	return nil
}

func (r *fakeUserRepo) GetRankState(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeUserRepo) UpdateRank(ctx context.Context, exec repositories.SQLExecutor, id string, tier models.Tier, level int) error {
	user, ok := r.s.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Tier = tier
	user.Level = level
	return nil
}

func (r *fakeUserRepo) Leaderboard(ctx context.Context, limit int) ([]*models.User, error) {
	users := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Points != users[j].Points {
			return users[i].Points > users[j].Points
		}
		if users[i].Wins != users[j].Wins {
			return users[i].Wins > users[j].Wins
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *fakeUserRepo) RankPosition(ctx context.Context, id string) (int, error) {
	all, err := r.Leaderboard(ctx, len(r.s.users))
	if err != nil {
		return 0, err
	}
	for i, u := range all {
		if u.ID == id {
			return i + 1, nil
		}
	}
	return 0, repositories.ErrUserNotFound
}

type fakeChallengeRepo struct {
	s *memStore
}

func (r *fakeChallengeRepo) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	challenge, ok := r.s.challenges[id]
	if !ok || !challenge.Active {
		return nil, repositories.ErrChallengeNotFound
	}
	copied := *challenge
	return &copied, nil
}

func (r *fakeChallengeRepo) ListActive(ctx context.Context, difficulty *models.FitnessLevel, limit int) ([]*models.Challenge, error) {
	var out []*models.Challenge
	for _, ch := range r.s.challenges {
		if !ch.Active {
			continue
		}
		if difficulty != nil && ch.Difficulty != *difficulty {
			continue
		}
		copied := *ch
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeChallengeRepo) ListActiveIDs(ctx context.Context, exec repositories.SQLExecutor, difficulty models.FitnessLevel) ([]string, error) {
	var ids []string
	for _, ch := range r.s.challenges {
		if ch.Active && ch.Difficulty == difficulty {
			ids = append(ids, ch.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeBattleRepo struct {
	s *memStore
}

func (r *fakeBattleRepo) Create(ctx context.Context, exec repositories.SQLExecutor, battle *models.Battle) error {
	copied := *battle
	r.s.battles[battle.ID] = &copied
	return nil
}

func (r *fakeBattleRepo) GetByID(ctx context.Context, id string) (*models.Battle, error) {
	battle, ok := r.s.battles[id]
	if !ok {
		return nil, repositories.ErrBattleNotFound
	}
	copied := *battle
	return &copied, nil
}

func (r *fakeBattleRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Battle, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeBattleRepo) FindLiveByUser(ctx context.Context, exec repositories.SQLExecutor, userID string) (*models.Battle, error) {
	battles, _ := r.ListLiveByUser(ctx, userID)
	if len(battles) == 0 {
		return nil, repositories.ErrBattleNotFound
	}
	return battles[0], nil
}

func (r *fakeBattleRepo) ListLiveByUser(ctx context.Context, userID string) ([]*models.Battle, error) {
	var out []*models.Battle
	for _, b := range r.s.battles {
		if !b.HasParticipant(userID) {
			continue
		}
		if b.Status != models.BattleStatusActive && b.Status != models.BattleStatusPending {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBattleRepo) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*models.Battle, error) {
	var out []*models.Battle
	for _, b := range r.s.battles {
		if !b.HasParticipant(userID) || b.Status != models.BattleStatusCompleted {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		switch {
		case out[i].CompletedAt == nil:
			return false
		case out[j].CompletedAt == nil:
			return true
		default:
			return out[i].CompletedAt.After(*out[j].CompletedAt)
		}
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeBattleRepo) SetVideoURL(ctx context.Context, exec repositories.SQLExecutor, id string, slot int, videoURL string) error {
	battle, ok := r.s.battles[id]
	if !ok {
		return repositories.ErrBattleNotFound
	}
	if slot == 1 {
		battle.User1VideoURL = &videoURL
	} else {
		battle.User2VideoURL = &videoURL
	}
	return nil
}

func (r *fakeBattleRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id string, status models.BattleStatus) error {
	battle, ok := r.s.battles[id]
	if !ok {
		return repositories.ErrBattleNotFound
	}
	battle.Status = status
	return nil
}

func (r *fakeBattleRepo) Resolve(ctx context.Context, exec repositories.SQLExecutor, id string, winnerID string) error {
	battle, ok := r.s.battles[id]
	if !ok {
		return repositories.ErrBattleNotFound
	}
	now := time.Now()
	battle.WinnerID = &winnerID
	battle.Status = models.BattleStatusCompleted
	battle.CompletedAt = &now
	return nil
}

func (r *fakeBattleRepo) RecordUpload(ctx context.Context, exec repositories.SQLExecutor, userID, battleID, videoURL string) error {
	r.s.uploads = append(r.s.uploads, &models.VideoUpload{
		ID:        uuid.NewString(),
		UserID:    userID,
		BattleID:  battleID,
		VideoURL:  videoURL,
		Timestamp: time.Now(),
	})
	return nil
}

func (r *fakeBattleRepo) CountByGroup(ctx context.Context, exec repositories.SQLExecutor, groupID string) (int, int, error) {
	seen := make(map[string]bool)
	for _, m := range r.s.members {
		if m.GroupID == groupID && m.Role == models.RoleCompetitor && m.BattleID != nil {
			seen[*m.BattleID] = true
		}
	}
	total, completed := 0, 0
	for id := range seen {
		total++
		if r.s.battles[id].Status == models.BattleStatusCompleted {
			completed++
		}
	}
	return total, completed, nil
}

type fakeVotingGroupRepo struct {
	s *memStore

	mu           sync.Mutex
	lockedGroups []string
}

func (r *fakeVotingGroupRepo) lockCalls(groupID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range r.lockedGroups {
		if id == groupID {
			n++
		}
	}
	return n
}

func (r *fakeVotingGroupRepo) Create(ctx context.Context, exec repositories.SQLExecutor, group *models.VotingGroup) error {
	copied := *group
	copied.CreatedAt = time.Now()
	r.s.groups[group.ID] = &copied
	return nil
}

func (r *fakeVotingGroupRepo) FindOpenGroupID(ctx context.Context, exec repositories.SQLExecutor) (string, error) {
	bestID := ""
	bestCount := -1
	for id, g := range r.s.groups {
		if g.Status != models.GroupStatusPending {
			continue
		}
		count := r.s.competitorCount(id)
		if count >= models.GroupSize {
			continue
		}
		if count > bestCount {
			bestID, bestCount = id, count
		}
	}
	if bestID == "" {
		return "", repositories.ErrVotingGroupNotFound
	}
	return bestID, nil
}

func (r *fakeVotingGroupRepo) LockGroup(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	if _, ok := r.s.groups[id]; !ok {
		return repositories.ErrVotingGroupNotFound
	}
	r.mu.Lock()
	r.lockedGroups = append(r.lockedGroups, id)
	r.mu.Unlock()
	return nil
}

func (r *fakeVotingGroupRepo) AddMember(ctx context.Context, exec repositories.SQLExecutor, member *models.VotingGroupMember) error {
	for _, m := range r.s.members {
		if m.GroupID == member.GroupID && m.UserID == member.UserID && m.Role == member.Role && member.Role == models.RoleCompetitor {
			return repositories.ErrGroupMemberConflict
		}
	}
	copied := *member
	copied.CreatedAt = time.Now()
	r.s.members = append(r.s.members, &copied)
	return nil
}

func (r *fakeVotingGroupRepo) CompetitorCount(ctx context.Context, exec repositories.SQLExecutor, groupID string) (int, error) {
	return r.s.competitorCount(groupID), nil
}

func (r *fakeVotingGroupRepo) ListCompetitorIDs(ctx context.Context, exec repositories.SQLExecutor, groupID string) ([]string, error) {
	var ids []string
	for _, m := range r.s.members {
		if m.GroupID == groupID && m.Role == models.RoleCompetitor {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func (r *fakeVotingGroupRepo) SetCompetitorBattle(ctx context.Context, exec repositories.SQLExecutor, groupID, battleID string, userIDs []string) error {
	assigned := 0
	for _, m := range r.s.members {
		if m.GroupID != groupID || m.Role != models.RoleCompetitor {
			continue
		}
		for _, userID := range userIDs {
			if m.UserID == userID {
				id := battleID
				m.BattleID = &id
				assigned++
			}
		}
	}
	if assigned != len(userIDs) {
		return repositories.ErrVotingGroupNotFound
	}
	return nil
}

func (r *fakeVotingGroupRepo) HasPendingMembership(ctx context.Context, exec repositories.SQLExecutor, userID string) (bool, error) {
	for _, m := range r.s.members {
		if m.UserID == userID && m.Role == models.RoleCompetitor &&
			r.s.groups[m.GroupID].Status == models.GroupStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVotingGroupRepo) PendingCompetitorCountFor(ctx context.Context, exec repositories.SQLExecutor, userID string) (int, error) {
	for _, m := range r.s.members {
		if m.UserID == userID && m.Role == models.RoleCompetitor &&
			r.s.groups[m.GroupID].Status == models.GroupStatusPending {
			return r.s.competitorCount(m.GroupID), nil
		}
	}
	return 0, nil
}

func (r *fakeVotingGroupRepo) GetVoterMembership(ctx context.Context, exec repositories.SQLExecutor, voterID, battleID string) (*models.VotingGroupMember, error) {
	for _, m := range r.s.members {
		if m.UserID == voterID && m.Role == models.RoleVoter && m.BattleID != nil && *m.BattleID == battleID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, repositories.ErrVoterMembershipNotFound
}

func (r *fakeVotingGroupRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id string, status models.VotingGroupStatus) error {
	group, ok := r.s.groups[id]
	if !ok {
		return repositories.ErrVotingGroupNotFound
	}
	group.Status = status
	return nil
}

func (r *fakeVotingGroupRepo) GetByID(ctx context.Context, id string) (*models.VotingGroup, error) {
	group, ok := r.s.groups[id]
	if !ok {
		return nil, repositories.ErrVotingGroupNotFound
	}
	copied := *group
	return &copied, nil
}

type fakeVoteRepo struct {
	s *memStore
}

func (r *fakeVoteRepo) Create(ctx context.Context, exec repositories.SQLExecutor, vote *models.Vote) error {
	for _, v := range r.s.votes {
		if v.VoterID == vote.VoterID && v.BattleID == vote.BattleID {
			return repositories.ErrDuplicateVote
		}
	}
	copied := *vote
	copied.CreatedAt = time.Now()
	vote.CreatedAt = copied.CreatedAt
	r.s.votes = append(r.s.votes, &copied)
	return nil
}

func (r *fakeVoteRepo) CountByBattle(ctx context.Context, exec repositories.SQLExecutor, battleID string) (int, error) {
	count := 0
	for _, v := range r.s.votes {
		if v.BattleID == battleID {
			count++
		}
	}
	return count, nil
}

func (r *fakeVoteRepo) TallyByBattle(ctx context.Context, exec repositories.SQLExecutor, battleID string) (map[string]int, error) {
	tally := make(map[string]int)
	for _, v := range r.s.votes {
		if v.BattleID == battleID {
			tally[v.VotedForID]++
		}
	}
	return tally, nil
}

func (r *fakeVoteRepo) ListVotableBattles(ctx context.Context, voterID string) ([]*models.Battle, error) {
	voted := make(map[string]bool)
	for _, v := range r.s.votes {
		if v.VoterID == voterID {
			voted[v.BattleID] = true
		}
	}
	var out []*models.Battle
	for _, m := range r.s.members {
		if m.UserID != voterID || m.Role != models.RoleVoter || m.BattleID == nil || voted[*m.BattleID] {
			continue
		}
		battle := r.s.battles[*m.BattleID]
		if battle == nil || battle.Status != models.BattleStatusPending {
			continue
		}
		copied := *battle
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeVoteRepo) History(ctx context.Context, voterID string, limit int) ([]*models.VoteHistoryEntry, error) {
	var out []*models.VoteHistoryEntry
	for _, v := range r.s.votes {
		if v.VoterID != voterID {
			continue
		}
		battle := r.s.battles[v.BattleID]
		entry := &models.VoteHistoryEntry{
			Vote:         *v,
			BattleStatus: battle.Status,
			WinnerID:     battle.WinnerID,
		}
		if challenge := r.s.challenges[battle.ChallengeID]; challenge != nil {
			entry.ChallengeTitle = challenge.Title
		}
		if target := r.s.users[v.VotedForID]; target != nil {
			entry.VotedForName = target.DisplayName
		}
		if battle.Status == models.BattleStatusCompleted && battle.WinnerID != nil {
			correct := *battle.WinnerID == v.VotedForID
			entry.VoteCorrect = &correct
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeVoteRepo) AccuracyByVoter(ctx context.Context, voterID string) (int, int, error) {
	var correct, total int
	for _, v := range r.s.votes {
		if v.VoterID != voterID {
			continue
		}
		battle := r.s.battles[v.BattleID]
		if battle == nil || battle.Status != models.BattleStatusCompleted {
			continue
		}
		total++
		if battle.WinnerID != nil && *battle.WinnerID == v.VotedForID {
			correct++
		}
	}
	return correct, total, nil
}

// fakeBroadcaster records every event fanned out after a commit.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

type broadcastEvent struct {
	Room    string
	Payload map[string]interface{}
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	payload, _ := message.(map[string]interface{})
	b.events = append(b.events, broadcastEvent{Room: roomID, Payload: payload})
}

func (b *fakeBroadcaster) eventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]string, 0, len(b.events))
	for _, e := range b.events {
		if t, ok := e.Payload["type"].(string); ok {
			types = append(types, t)
		}
	}
	return types
}
