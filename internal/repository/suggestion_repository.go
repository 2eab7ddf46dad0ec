package repository

import (
	"context"
	"errors"

	"github.com/debatehq/debate-service/internal/domain"
	"github.com/debatehq/debate-service/internal/observability"

	"gorm.io/gorm"
)

var ErrSuggestionNotFound = errors.New("suggestion not found")

type SuggestionRepository interface {
	Create(s *domain.Suggestion) error
	ListPaged(req PageRequest) (PageResult[domain.Suggestion], error)
	DeleteByID(id uint) error
	Count() (int64, error)
}

type GormSuggestionRepository struct{ db *gorm.DB }

func NewSuggestionRepository(db *gorm.DB) SuggestionRepository {
	return &GormSuggestionRepository{db: db}
}

func (r *GormSuggestionRepository) Create(s *domain.Suggestion) error {
	if err := r.db.Create(s).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "suggestion", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "suggestion", "create", "success")
	return nil
}

func (r *GormSuggestionRepository) ListPaged(req PageRequest) (PageResult[domain.Suggestion], error) {
	normalized := normalizePageRequest(req)
	result := PageResult[domain.Suggestion]{
		Page:     normalized.Page,
		PageSize: normalized.PageSize,
	}

	if err := r.db.Model(&domain.Suggestion{}).Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "suggestion", "list_paged", "error")
		return PageResult[domain.Suggestion]{}, err
	}

	offset := (normalized.Page - 1) * normalized.PageSize
	err := r.db.Order("id DESC").Offset(offset).Limit(normalized.PageSize).Find(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "suggestion", "list_paged", "error")
		return PageResult[domain.Suggestion]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, normalized.PageSize)
	observability.RecordRepositoryOperation(context.Background(), "suggestion", "list_paged", "success")
	return result, nil
}

func (r *GormSuggestionRepository) DeleteByID(id uint) error {
	res := r.db.Delete(&domain.Suggestion{}, id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "suggestion", "delete_by_id", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "suggestion", "delete_by_id", "not_found")
		return ErrSuggestionNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "suggestion", "delete_by_id", "success")
	return nil
}

func (r *GormSuggestionRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&domain.Suggestion{}).Count(&count).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "suggestion", "count", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "suggestion", "count", "success")
	return count, nil
}
