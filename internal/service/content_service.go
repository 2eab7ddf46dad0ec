package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/debatehq/debate-service/internal/domain"
	"github.com/debatehq/debate-service/internal/repository"
)

const (
	maxTitleLen   = 180
	maxNameLen    = 80
	maxContactLen = 180
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrTitleTooLong  = errors.New("title exceeds 180 characters")
	ErrBodyRequired  = errors.New("body is required")
	ErrNameTooLong   = errors.New("display name exceeds 80 characters")
)

// QuestionDetail is the full public view of one question: answers with their
// live vote counts, the question-level tally, and the caller's current state.
type QuestionDetail struct {
	Question      domain.Question `json:"question"`
	Answers       []AnswerView    `json:"answers"`
	QuestionVotes int64           `json:"question_votes"`
	QuestionVoted bool            `json:"question_voted"`
	CurrentAnswer *uint           `json:"current_answer_id,omitempty"`
}

type AnswerView struct {
	domain.Answer
	VoteCount int64 `json:"vote_count"`
}

type ContentService struct {
	questions   repository.QuestionRepository
	answers     repository.AnswerRepository
	suggestions repository.SuggestionRepository
	votes       *VoteService
	listLimit   int
}

func NewContentService(
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	suggestions repository.SuggestionRepository,
	votes *VoteService,
	listLimit int,
) *ContentService {
	if listLimit <= 0 {
		listLimit = 50
	}
	return &ContentService{
		questions:   questions,
		answers:     answers,
		suggestions: suggestions,
		votes:       votes,
		listLimit:   listLimit,
	}
}

func (s *ContentService) CreateQuestion(ctx context.Context, title, body string) (*domain.Question, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, ErrTitleTooLong
	}
	q := &domain.Question{Title: title, Body: body, CreatedAt: time.Now().UTC()}
	if err := s.questions.Create(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *ContentService) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.questions.ListRecent(s.listLimit)
}

func (s *ContentService) GetQuestion(ctx context.Context, id uint, identityToken string) (*QuestionDetail, error) {
	q, err := s.questions.FindByID(id)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListByQuestion(id)
	if err != nil {
		return nil, err
	}
	counts, err := s.votes.VoteCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	views := make([]AnswerView, 0, len(answers))
	for _, a := range answers {
		views = append(views, AnswerView{Answer: a, VoteCount: counts[a.ID]})
	}

	detail := &QuestionDetail{Question: *q, Answers: views}
	if detail.QuestionVotes, err = s.votes.QuestionVoteCount(ctx, id); err != nil {
		return nil, err
	}
	if identityToken != "" {
		if detail.QuestionVoted, err = s.votes.CurrentQuestionVote(ctx, id, identityToken); err != nil {
			return nil, err
		}
		answerID, ok, err := s.votes.CurrentVote(ctx, id, identityToken)
		if err != nil {
			return nil, err
		}
		if ok {
			detail.CurrentAnswer = &answerID
		}
	}
	return detail, nil
}

func (s *ContentService) CreateAnswer(ctx context.Context, questionID uint, body, name string) (*domain.Answer, error) {
	body = strings.TrimSpace(body)
	name = strings.TrimSpace(name)
	if body == "" {
		return nil, ErrBodyRequired
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return nil, ErrNameTooLong
	}
	exists, err := s.questions.Exists(questionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrQuestionNotFound
	}
	a := &domain.Answer{QuestionID: questionID, Body: body, Name: name, CreatedAt: time.Now().UTC()}
	if err := s.answers.Create(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ContentService) CreateSuggestion(ctx context.Context, body, contact string) (*domain.Suggestion, error) {
	body = strings.TrimSpace(body)
	contact = strings.TrimSpace(contact)
	if body == "" {
		return nil, ErrBodyRequired
	}
	// Limits count runes, not bytes; truncation must not split one.
	if utf8.RuneCountInString(contact) > maxContactLen {
		contact = string([]rune(contact)[:maxContactLen])
	}
	sg := &domain.Suggestion{Body: body, Contact: contact, CreatedAt: time.Now().UTC()}
	if err := s.suggestions.Create(sg); err != nil {
		return nil, err
	}
	return sg, nil
}
