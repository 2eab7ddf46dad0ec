package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/debatehq/debate-service/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Question{},
		&domain.Answer{},
		&domain.Suggestion{},
		&domain.QuestionVote{},
		&domain.AnswerVote{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
