package repository

import (
	"context"
	"errors"
	"time"

	"github.com/debatehq/debate-service/internal/domain"
	"github.com/debatehq/debate-service/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrVoteNotFound = errors.New("vote not found")

	// ErrDuplicateVote surfaces the (question_id, identity_hash) uniqueness
	// constraint. Callers treat it as "a row already exists, re-read and
	// resolve as a toggle or move", never as a fatal error.
	ErrDuplicateVote = errors.New("vote already exists for identity")
)

type VoteRepository interface {
	FindAnswerVote(questionID uint, identityHash string) (*domain.AnswerVote, error)
	CreateAnswerVote(v *domain.AnswerVote) error
	MoveAnswerVote(id, answerID uint, subnetHash string, at time.Time) error
	DeleteAnswerVote(id uint) error
	CountByAnswer(answerID uint) (int64, error)
	CountsByQuestion(questionID uint) (map[uint]int64, error)
	SubnetSeenSince(questionID uint, subnetHash, identityHash string, since time.Time) (bool, error)

	FindQuestionVote(questionID uint, identityHash string) (*domain.QuestionVote, error)
	CreateQuestionVote(v *domain.QuestionVote) error
	DeleteQuestionVote(id uint) error
	CountQuestionVotes(questionID uint) (int64, error)

	CountAll() (int64, error)
}

type GormVoteRepository struct{ db *gorm.DB }

func NewVoteRepository(db *gorm.DB) VoteRepository { return &GormVoteRepository{db: db} }

func (r *GormVoteRepository) FindAnswerVote(questionID uint, identityHash string) (*domain.AnswerVote, error) {
	var v domain.AnswerVote
	err := r.db.Where("question_id = ? AND identity_hash = ?", questionID, identityHash).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "answer_vote", "find", "not_found")
			return nil, ErrVoteNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "answer_vote", "find", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "answer_vote", "find", "success")
	return &v, nil
}

func (r *GormVoteRepository) CreateAnswerVote(v *domain.AnswerVote) error {
	if err := r.db.Create(v).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(context.Background(), "answer_vote", "create", "conflict")
			return ErrDuplicateVote
		}
		observability.RecordRepositoryOperation(context.Background(), "answer_vote", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "answer_vote", "create", "success")
	return nil
}

// MoveAnswerVote retargets an existing vote row in a single UPDATE so there is
// no window where the identity's vote is absent.
func (r *GormVoteRepository) MoveAnswerVote(id, answerID uint, subnetHash string, at time.Time) error {
	res := r.db.Model(&domain.AnswerVote{}).
		Where("id = ?", id).
		Updates(map[string]any{"answer_id": answerID, "subnet_hash": subnetHash, "created_at": at})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "answer_vote", "move", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "answer_vote", "move", "not_found")
		return ErrVoteNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "answer_vote", "move", "success")
	return nil
}

func (r *GormVoteRepository) DeleteAnswerVote(id uint) error {
	res := r.db.Delete(&domain.AnswerVote{}, id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "answer_vote", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "answer_vote", "delete", "not_found")
		return ErrVoteNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "answer_vote", "delete", "success")
	return nil
}

func (r *GormVoteRepository) CountByAnswer(answerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&domain.AnswerVote{}).Where("answer_id = ?", answerID).Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "answer_vote", "count_by_answer", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "answer_vote", "count_by_answer", "success")
	return count, nil
}

func (r *GormVoteRepository) CountsByQuestion(questionID uint) (map[uint]int64, error) {
	var rows []struct {
		AnswerID uint
		Count    int64
	}
	err := r.db.Model(&domain.AnswerVote{}).
		Select("answer_id, COUNT(*) AS count").
		Where("question_id = ?", questionID).
		Group("answer_id").
		Scan(&rows).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "answer_vote", "counts_by_question", "error")
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.AnswerID] = row.Count
	}
	observability.RecordRepositoryOperation(context.Background(), "answer_vote", "counts_by_question", "success")
	return counts, nil
}

// SubnetSeenSince reports whether a different identity on the same coarse
// subnet voted on this question after the cutoff. It is a sliding lookback
// over live rows, re-evaluated on every call.
func (r *GormVoteRepository) SubnetSeenSince(questionID uint, subnetHash, identityHash string, since time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&domain.AnswerVote{}).
		Where("question_id = ? AND subnet_hash = ? AND identity_hash <> ? AND created_at > ?",
			questionID, subnetHash, identityHash, since).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "answer_vote", "subnet_seen_since", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "answer_vote", "subnet_seen_since", "success")
	return count > 0, nil
}

func (r *GormVoteRepository) FindQuestionVote(questionID uint, identityHash string) (*domain.QuestionVote, error) {
	var v domain.QuestionVote
	err := r.db.Where("question_id = ? AND identity_hash = ?", questionID, identityHash).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "question_vote", "find", "not_found")
			return nil, ErrVoteNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "question_vote", "find", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "question_vote", "find", "success")
	return &v, nil
}

func (r *GormVoteRepository) CreateQuestionVote(v *domain.QuestionVote) error {
	if err := r.db.Create(v).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(context.Background(), "question_vote", "create", "conflict")
			return ErrDuplicateVote
		}
		observability.RecordRepositoryOperation(context.Background(), "question_vote", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "question_vote", "create", "success")
	return nil
}

func (r *GormVoteRepository) DeleteQuestionVote(id uint) error {
	res := r.db.Delete(&domain.QuestionVote{}, id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "question_vote", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "question_vote", "delete", "not_found")
		return ErrVoteNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "question_vote", "delete", "success")
	return nil
}

func (r *GormVoteRepository) CountQuestionVotes(questionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&domain.QuestionVote{}).Where("question_id = ?", questionID).Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "question_vote", "count", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "question_vote", "count", "success")
	return count, nil
}

func (r *GormVoteRepository) CountAll() (int64, error) {
	var answerVotes, questionVotes int64
	if err := r.db.Model(&domain.AnswerVote{}).Count(&answerVotes).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "vote", "count_all", "error")
		return 0, err
	}
	if err := r.db.Model(&domain.QuestionVote{}).Count(&questionVotes).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "vote", "count_all", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "vote", "count_all", "success")
	return answerVotes + questionVotes, nil
}
