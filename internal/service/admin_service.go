package service

import (
	"context"
	"errors"
	"time"

	"github.com/debatehq/debate-service/internal/domain"
	"github.com/debatehq/debate-service/internal/observability"
	"github.com/debatehq/debate-service/internal/repository"
	"github.com/debatehq/debate-service/internal/security"
)

var ErrInvalidCredentials = errors.New("invalid admin credentials")

type AdminStats struct {
	Questions   int64 `json:"questions"`
	Answers     int64 `json:"answers"`
	Votes       int64 `json:"votes"`
	Suggestions int64 `json:"suggestions"`
}

type AdminService struct {
	questions   repository.QuestionRepository
	answers     repository.AnswerRepository
	suggestions repository.SuggestionRepository
	votes       repository.VoteRepository

	username     string
	passwordHash string
	tokens       *security.AdminTokenManager
	tokenTTL     time.Duration
}

func NewAdminService(
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	suggestions repository.SuggestionRepository,
	votes repository.VoteRepository,
	username, passwordHash string,
	tokens *security.AdminTokenManager,
	tokenTTL time.Duration,
) *AdminService {
	return &AdminService{
		questions:    questions,
		answers:      answers,
		suggestions:  suggestions,
		votes:        votes,
		username:     username,
		passwordHash: passwordHash,
		tokens:       tokens,
		tokenTTL:     tokenTTL,
	}
}

// Login verifies the configured credential pair and mints a short-lived admin
// token. The bcrypt check runs even when the username mismatches so both
// failure paths cost the same.
func (s *AdminService) Login(ctx context.Context, username, password string) (string, error) {
	passwordOK := security.VerifyPassword(s.passwordHash, password)
	if username != s.username || !passwordOK {
		observability.RecordAdminLogin("failure")
		return "", ErrInvalidCredentials
	}
	token, err := s.tokens.Sign(username, s.tokenTTL)
	if err != nil {
		observability.RecordAdminLogin("error")
		return "", err
	}
	observability.RecordAdminLogin("success")
	return token, nil
}

func (s *AdminService) VerifyToken(raw string) (*security.AdminClaims, error) {
	return s.tokens.Parse(raw)
}

func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}
	var err error
	if stats.Questions, err = s.questions.Count(); err != nil {
		return nil, err
	}
	if stats.Answers, err = s.answers.Count(); err != nil {
		return nil, err
	}
	if stats.Votes, err = s.votes.CountAll(); err != nil {
		return nil, err
	}
	if stats.Suggestions, err = s.suggestions.Count(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *AdminService) ListQuestions(ctx context.Context, req repository.PageRequest) (repository.PageResult[repository.QuestionSummary], error) {
	return s.questions.ListPaged(req)
}

func (s *AdminService) ListAnswers(ctx context.Context, req repository.PageRequest) (repository.PageResult[repository.AnswerListRow], error) {
	return s.answers.ListPaged(req)
}

func (s *AdminService) ListSuggestions(ctx context.Context, req repository.PageRequest) (repository.PageResult[domain.Suggestion], error) {
	return s.suggestions.ListPaged(req)
}

// DeleteQuestion removes the question together with its answers and every
// vote row pointing at it.
func (s *AdminService) DeleteQuestion(ctx context.Context, id uint) error {
	if err := s.questions.DeleteCascade(id); err != nil {
		return err
	}
	observability.RecordAdminMutation("question", "delete")
	return nil
}

func (s *AdminService) DeleteAnswer(ctx context.Context, id uint) error {
	if err := s.answers.DeleteCascade(id); err != nil {
		return err
	}
	observability.RecordAdminMutation("answer", "delete")
	return nil
}

func (s *AdminService) DeleteSuggestion(ctx context.Context, id uint) error {
	if err := s.suggestions.DeleteByID(id); err != nil {
		return err
	}
	observability.RecordAdminMutation("suggestion", "delete")
	return nil
}
