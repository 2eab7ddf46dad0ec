package repository

import (
	"context"
	"errors"
	"time"

	"github.com/debatehq/debate-service/internal/domain"
	"github.com/debatehq/debate-service/internal/observability"

	"gorm.io/gorm"
)

var ErrQuestionNotFound = errors.New("question not found")

// QuestionSummary is the admin list row: a question plus its live answer count.
type QuestionSummary struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	AnswerCount int64     `json:"answer_count"`
}

type QuestionRepository interface {
	Create(q *domain.Question) error
	FindByID(id uint) (*domain.Question, error)
	Exists(id uint) (bool, error)
	ListRecent(limit int) ([]domain.Question, error)
	ListPaged(req PageRequest) (PageResult[QuestionSummary], error)
	DeleteCascade(id uint) error
	Count() (int64, error)
}

type GormQuestionRepository struct{ db *gorm.DB }

func NewQuestionRepository(db *gorm.DB) QuestionRepository { return &GormQuestionRepository{db: db} }

func (r *GormQuestionRepository) Create(q *domain.Question) error {
	if err := r.db.Create(q).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "question", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "question", "create", "success")
	return nil
}

func (r *GormQuestionRepository) FindByID(id uint) (*domain.Question, error) {
	var q domain.Question
	if err := r.db.First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "question", "find_by_id", "not_found")
			return nil, ErrQuestionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "question", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "question", "find_by_id", "success")
	return &q, nil
}

func (r *GormQuestionRepository) Exists(id uint) (bool, error) {
	var count int64
	if err := r.db.Model(&domain.Question{}).Where("id = ?", id).Count(&count).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "question", "exists", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "question", "exists", "success")
	return count > 0, nil
}

func (r *GormQuestionRepository) ListRecent(limit int) ([]domain.Question, error) {
	var questions []domain.Question
	err := r.db.Order("id DESC").Limit(limit).Find(&questions).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "question", "list_recent", "error")
		return questions, err
	}
	observability.RecordRepositoryOperation(context.Background(), "question", "list_recent", "success")
	return questions, nil
}

func (r *GormQuestionRepository) ListPaged(req PageRequest) (PageResult[QuestionSummary], error) {
	normalized := normalizePageRequest(req)
	result := PageResult[QuestionSummary]{
		Page:     normalized.Page,
		PageSize: normalized.PageSize,
	}

	if err := r.db.Model(&domain.Question{}).Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "question", "list_paged", "error")
		return PageResult[QuestionSummary]{}, err
	}

	offset := (normalized.Page - 1) * normalized.PageSize
	err := r.db.Model(&domain.Question{}).
		Select("questions.id, questions.title, questions.created_at, (SELECT COUNT(*) FROM answers WHERE answers.question_id = questions.id) AS answer_count").
		Order("questions.id DESC").
		Offset(offset).Limit(normalized.PageSize).
		Scan(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "question", "list_paged", "error")
		return PageResult[QuestionSummary]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, normalized.PageSize)
	observability.RecordRepositoryOperation(context.Background(), "question", "list_paged", "success")
	return result, nil
}

// DeleteCascade removes the question with its answers and every vote row that
// references it, in one transaction.
func (r *GormQuestionRepository) DeleteCascade(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Question{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrQuestionNotFound
		}
		if err := tx.Where("question_id = ?", id).Delete(&domain.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&domain.AnswerVote{}).Error; err != nil {
			return err
		}
		return tx.Where("question_id = ?", id).Delete(&domain.QuestionVote{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrQuestionNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "question", "delete_cascade", "not_found")
		} else {
			observability.RecordRepositoryOperation(context.Background(), "question", "delete_cascade", "error")
		}
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "question", "delete_cascade", "success")
	return nil
}

func (r *GormQuestionRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&domain.Question{}).Count(&count).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "question", "count", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "question", "count", "success")
	return count, nil
}
