package repository

import (
	"context"
	"errors"
	"time"

	"github.com/debatehq/debate-service/internal/domain"
	"github.com/debatehq/debate-service/internal/observability"

	"gorm.io/gorm"
)

var ErrAnswerNotFound = errors.New("answer not found")

type AnswerListRow struct {
	ID         uint      `json:"id"`
	QuestionID uint      `json:"question_id"`
	Body       string    `json:"body"`
	Name       string    `json:"name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type AnswerRepository interface {
	Create(a *domain.Answer) error
	FindByID(id uint) (*domain.Answer, error)
	ListByQuestion(questionID uint) ([]domain.Answer, error)
	ListPaged(req PageRequest) (PageResult[AnswerListRow], error)
	DeleteCascade(id uint) error
	Count() (int64, error)
}

type GormAnswerRepository struct{ db *gorm.DB }

func NewAnswerRepository(db *gorm.DB) AnswerRepository { return &GormAnswerRepository{db: db} }

func (r *GormAnswerRepository) Create(a *domain.Answer) error {
	if err := r.db.Create(a).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "answer", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "answer", "create", "success")
	return nil
}

func (r *GormAnswerRepository) FindByID(id uint) (*domain.Answer, error) {
	var a domain.Answer
	if err := r.db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "answer", "find_by_id", "not_found")
			return nil, ErrAnswerNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "answer", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "answer", "find_by_id", "success")
	return &a, nil
}

func (r *GormAnswerRepository) ListByQuestion(questionID uint) ([]domain.Answer, error) {
	var answers []domain.Answer
	err := r.db.Where("question_id = ?", questionID).Order("id ASC").Find(&answers).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "answer", "list_by_question", "error")
		return answers, err
	}
	observability.RecordRepositoryOperation(context.Background(), "answer", "list_by_question", "success")
	return answers, nil
}

func (r *GormAnswerRepository) ListPaged(req PageRequest) (PageResult[AnswerListRow], error) {
	normalized := normalizePageRequest(req)
	result := PageResult[AnswerListRow]{
		Page:     normalized.Page,
		PageSize: normalized.PageSize,
	}

	if err := r.db.Model(&domain.Answer{}).Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "answer", "list_paged", "error")
		return PageResult[AnswerListRow]{}, err
	}

	offset := (normalized.Page - 1) * normalized.PageSize
	err := r.db.Model(&domain.Answer{}).
		Order("id DESC").
		Offset(offset).Limit(normalized.PageSize).
		Scan(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "answer", "list_paged", "error")
		return PageResult[AnswerListRow]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, normalized.PageSize)
	observability.RecordRepositoryOperation(context.Background(), "answer", "list_paged", "success")
	return result, nil
}

// DeleteCascade removes the answer together with the answer votes backing it.
func (r *GormAnswerRepository) DeleteCascade(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Answer{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAnswerNotFound
		}
		return tx.Where("answer_id = ?", id).Delete(&domain.AnswerVote{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrAnswerNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "answer", "delete_cascade", "not_found")
		} else {
			observability.RecordRepositoryOperation(context.Background(), "answer", "delete_cascade", "error")
		}
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "answer", "delete_cascade", "success")
	return nil
}

func (r *GormAnswerRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&domain.Answer{}).Count(&count).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "answer", "count", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "answer", "count", "success")
	return count, nil
}
