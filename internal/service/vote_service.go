package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/debatehq/debate-service/internal/domain"
	"github.com/debatehq/debate-service/internal/observability"
	"github.com/debatehq/debate-service/internal/repository"
	"github.com/debatehq/debate-service/internal/security"
)

// ErrRateLimited means another identity on the caller's coarse subnet voted
// on this question inside the lookback window. It is a soft signal: nothing
// was mutated and the same call succeeds once the window slides past.
var ErrRateLimited = errors.New("subnet vote rate cap hit")

type AnswerVoteResult struct {
	Voted             bool  `json:"voted"`
	AnswerID          uint  `json:"answer_id"`
	Count             int64 `json:"count"`
	MovedFromAnswerID *uint  `json:"moved_from_answer_id,omitempty"`
	MovedFromCount    *int64 `json:"moved_from_count,omitempty"`
}

type QuestionVoteResult struct {
	Voted bool  `json:"voted"`
	Count int64 `json:"count"`
}

// VoteService is the vote ledger. It is the only writer of the vote tables;
// every operation takes the resolved identity token explicitly rather than
// reading ambient session state.
type VoteService struct {
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	votes     repository.VoteRepository
	secret    string
	window    time.Duration
	now       func() time.Time
}

func NewVoteService(
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	votes repository.VoteRepository,
	secret string,
	window time.Duration,
) *VoteService {
	return &VoteService{
		questions: questions,
		answers:   answers,
		votes:     votes,
		secret:    secret,
		window:    window,
		now:       time.Now,
	}
}

// CastAnswerVote applies one logical vote action for (question, identity):
// first vote inserts, a repeat on the same answer toggles off, a vote for a
// different answer of the same question moves the row in place. The subnet
// rate check runs before any mutation and rejects without touching rows.
func (s *VoteService) CastAnswerVote(ctx context.Context, questionID, answerID uint, identityToken, sourceAddress string) (*AnswerVoteResult, error) {
	exists, err := s.questions.Exists(questionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		observability.RecordVoteCast(ctx, "answer", "question_not_found")
		return nil, repository.ErrQuestionNotFound
	}
	answer, err := s.answers.FindByID(answerID)
	if err != nil {
		if errors.Is(err, repository.ErrAnswerNotFound) {
			observability.RecordVoteCast(ctx, "answer", "answer_not_found")
		}
		return nil, err
	}
	if answer.QuestionID != questionID {
		observability.RecordVoteCast(ctx, "answer", "answer_not_found")
		return nil, repository.ErrAnswerNotFound
	}

	identityHash := security.IdentityHash(s.secret, identityToken)
	subnetHash := security.SubnetHash(s.secret, sourceAddress)
	now := s.now()

	seen, err := s.votes.SubnetSeenSince(questionID, subnetHash, identityHash, now.Add(-s.window))
	if err != nil {
		return nil, err
	}
	if seen {
		observability.RecordVoteCast(ctx, "answer", "rate_limited")
		return nil, ErrRateLimited
	}

	// Two passes close the check-then-act race: a duplicate-key insert or a
	// row deleted under us means another request for the same identity won,
	// so re-read and resolve against the fresh state.
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.votes.FindAnswerVote(questionID, identityHash)
		if errors.Is(err, repository.ErrVoteNotFound) {
			createErr := s.votes.CreateAnswerVote(&domain.AnswerVote{
				QuestionID:   questionID,
				AnswerID:     answerID,
				IdentityHash: identityHash,
				SubnetHash:   subnetHash,
				CreatedAt:    now,
			})
			if errors.Is(createErr, repository.ErrDuplicateVote) {
				continue
			}
			if createErr != nil {
				return nil, createErr
			}
			count, err := s.votes.CountByAnswer(answerID)
			if err != nil {
				return nil, err
			}
			observability.RecordVoteCast(ctx, "answer", "voted")
			return &AnswerVoteResult{Voted: true, AnswerID: answerID, Count: count}, nil
		}
		if err != nil {
			return nil, err
		}

		if existing.AnswerID == answerID {
			if err := s.votes.DeleteAnswerVote(existing.ID); err != nil {
				if errors.Is(err, repository.ErrVoteNotFound) {
					continue
				}
				return nil, err
			}
			count, err := s.votes.CountByAnswer(answerID)
			if err != nil {
				return nil, err
			}
			observability.RecordVoteCast(ctx, "answer", "unvoted")
			return &AnswerVoteResult{Voted: false, AnswerID: answerID, Count: count}, nil
		}

		if err := s.votes.MoveAnswerVote(existing.ID, answerID, subnetHash, now); err != nil {
			if errors.Is(err, repository.ErrVoteNotFound) {
				continue
			}
			return nil, err
		}
		movedFrom := existing.AnswerID
		movedFromCount, err := s.votes.CountByAnswer(movedFrom)
		if err != nil {
			return nil, err
		}
		count, err := s.votes.CountByAnswer(answerID)
		if err != nil {
			return nil, err
		}
		observability.RecordVoteCast(ctx, "answer", "moved")
		return &AnswerVoteResult{
			Voted:             true,
			AnswerID:          answerID,
			Count:             count,
			MovedFromAnswerID: &movedFrom,
			MovedFromCount:    &movedFromCount,
		}, nil
	}
	return nil, fmt.Errorf("cast answer vote on question %d: conflict retries exhausted", questionID)
}

// CastQuestionVote toggles the question-level vote for an identity. Question
// votes carry no subnet rate check; only the answer ledger does.
func (s *VoteService) CastQuestionVote(ctx context.Context, questionID uint, identityToken string) (*QuestionVoteResult, error) {
	exists, err := s.questions.Exists(questionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		observability.RecordVoteCast(ctx, "question", "question_not_found")
		return nil, repository.ErrQuestionNotFound
	}

	identityHash := security.IdentityHash(s.secret, identityToken)
	now := s.now()

	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.votes.FindQuestionVote(questionID, identityHash)
		if errors.Is(err, repository.ErrVoteNotFound) {
			createErr := s.votes.CreateQuestionVote(&domain.QuestionVote{
				QuestionID:   questionID,
				IdentityHash: identityHash,
				CreatedAt:    now,
			})
			if errors.Is(createErr, repository.ErrDuplicateVote) {
				continue
			}
			if createErr != nil {
				return nil, createErr
			}
			count, err := s.votes.CountQuestionVotes(questionID)
			if err != nil {
				return nil, err
			}
			observability.RecordVoteCast(ctx, "question", "voted")
			return &QuestionVoteResult{Voted: true, Count: count}, nil
		}
		if err != nil {
			return nil, err
		}

		if err := s.votes.DeleteQuestionVote(existing.ID); err != nil {
			if errors.Is(err, repository.ErrVoteNotFound) {
				continue
			}
			return nil, err
		}
		count, err := s.votes.CountQuestionVotes(questionID)
		if err != nil {
			return nil, err
		}
		observability.RecordVoteCast(ctx, "question", "unvoted")
		return &QuestionVoteResult{Voted: false, Count: count}, nil
	}
	return nil, fmt.Errorf("cast question vote on question %d: conflict retries exhausted", questionID)
}

// VoteCounts returns live per-answer counts for a question. Counts are always
// derived from rows at read time, never cached.
func (s *VoteService) VoteCounts(ctx context.Context, questionID uint) (map[uint]int64, error) {
	exists, err := s.questions.Exists(questionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrQuestionNotFound
	}
	return s.votes.CountsByQuestion(questionID)
}

// CurrentVote reports which answer, if any, the identity currently backs.
func (s *VoteService) CurrentVote(ctx context.Context, questionID uint, identityToken string) (uint, bool, error) {
	identityHash := security.IdentityHash(s.secret, identityToken)
	vote, err := s.votes.FindAnswerVote(questionID, identityHash)
	if errors.Is(err, repository.ErrVoteNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return vote.AnswerID, true, nil
}

// CurrentQuestionVote reports whether the identity has upvoted the question.
func (s *VoteService) CurrentQuestionVote(ctx context.Context, questionID uint, identityToken string) (bool, error) {
	identityHash := security.IdentityHash(s.secret, identityToken)
	_, err := s.votes.FindQuestionVote(questionID, identityHash)
	if errors.Is(err, repository.ErrVoteNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// QuestionVoteCount returns the live question-level tally.
func (s *VoteService) QuestionVoteCount(ctx context.Context, questionID uint) (int64, error) {
	return s.votes.CountQuestionVotes(questionID)
}
