package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/debatehq/debate-service/internal/domain"
	"github.com/debatehq/debate-service/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "service-test-secret"

var ctx = context.Background()

type fixture struct {
	db          *gorm.DB
	questions   repository.QuestionRepository
	answers     repository.AnswerRepository
	suggestions repository.SuggestionRepository
	votes       repository.VoteRepository
}

func newFixture(t *testing.T) *fixture {
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
	return &fixture{
		db:          db,
		questions:   repository.NewQuestionRepository(db),
		answers:     repository.NewAnswerRepository(db),
		suggestions: repository.NewSuggestionRepository(db),
		votes:       repository.NewVoteRepository(db),
	}
}

func (f *fixture) voteService(t *testing.T, window time.Duration) *VoteService {
	t.Helper()
	return NewVoteService(f.questions, f.answers, f.votes, testSecret, window)
}

func (f *fixture) seedQuestion(t *testing.T, title string, answerBodies ...string) (*domain.Question, []domain.Answer) {
	t.Helper()
	q := &domain.Question{Title: title, CreatedAt: time.Now().UTC()}
	if err := f.questions.Create(q); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	answers := make([]domain.Answer, 0, len(answerBodies))
	for _, body := range answerBodies {
		a := &domain.Answer{QuestionID: q.ID, Body: body, CreatedAt: time.Now().UTC()}
		if err := f.answers.Create(a); err != nil {
			t.Fatalf("seed answer: %v", err)
		}
		answers = append(answers, *a)
	}
	return q, answers
}

func (f *fixture) seedSuggestion(t *testing.T) domain.Suggestion {
	t.Helper()
	s := domain.Suggestion{Body: "test suggestion", Contact: "t@example.com", CreatedAt: time.Now().UTC()}
	if err := f.suggestions.Create(&s); err != nil {
		t.Fatalf("seed suggestion: %v", err)
	}
	return s
}

func (f *fixture) answerVoteRows(t *testing.T, questionID uint) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&domain.AnswerVote{}).Where("question_id = ?", questionID).Count(&n).Error; err != nil {
		t.Fatalf("count answer votes: %v", err)
	}
	return n
}
