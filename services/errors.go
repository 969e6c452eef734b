package services

import "errors"

// Business-rule errors shared across services and the HTTP mapping layer.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Matchmaking
	ErrAlreadyEngaged       = errors.New("user is already queued for matchmaking")
	ErrNoChallengeAvailable = errors.New("no active challenge matches this fitness level")

	// Voting
	ErrVoteForbidden     = errors.New("user is not assigned to vote on this battle")
	ErrBattleNotReady    = errors.New("battle is not ready for voting")
	ErrInvalidVoteTarget = errors.New("vote target is not a participant of this battle")
	ErrDuplicateVote     = errors.New("vote already cast for this battle")

	// Battles
	ErrBattleNotFound       = errors.New("battle not found")
	ErrBattleNotActive      = errors.New("battle is not accepting submissions")
	ErrNotBattleParticipant = errors.New("user is not part of this battle")

	// Users / profile
	ErrUserNotFound        = errors.New("user not found")
	ErrEmptyProfilePatch   = errors.New("no profile fields to update")
	ErrInvalidFitnessLevel = errors.New("invalid fitness level")

	// Challenges
	ErrChallengeNotFound = errors.New("challenge not found")

	// Auth
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrPasswordTooShort       = errors.New("password is too short")

	// Infrastructure
	ErrTransientStorageFailure = errors.New("storage conflict persisted after retries")
)
