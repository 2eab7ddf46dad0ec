package service

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/debatehq/debate-service/internal/repository"
)

func newContentService(f *fixture, t *testing.T) *ContentService {
	t.Helper()
	votes := f.voteService(t, 24*time.Hour)
	return NewContentService(f.questions, f.answers, f.suggestions, votes, 50)
}

func TestCreateQuestionValidation(t *testing.T) {
	f := newFixture(t)
	svc := newContentService(f, t)

	if _, err := svc.CreateQuestion(ctx, "   ", "body"); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("blank title: got %v", err)
	}
	if _, err := svc.CreateQuestion(ctx, strings.Repeat("x", 181), ""); !errors.Is(err, ErrTitleTooLong) {
		t.Fatalf("long title: got %v", err)
	}
	// The 180 limit counts characters; 180 two-byte runes must pass.
	if _, err := svc.CreateQuestion(ctx, strings.Repeat("ü", 180), ""); err != nil {
		t.Fatalf("180-rune title: got %v", err)
	}
	if _, err := svc.CreateQuestion(ctx, strings.Repeat("ü", 181), ""); !errors.Is(err, ErrTitleTooLong) {
		t.Fatalf("181-rune title: got %v", err)
	}

	q, err := svc.CreateQuestion(ctx, "  valid title  ", "  some body  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if q.ID == 0 || q.Title != "valid title" || q.Body != "some body" {
		t.Fatalf("created question: %+v", q)
	}
}

func TestCreateAnswerValidation(t *testing.T) {
	f := newFixture(t)
	svc := newContentService(f, t)
	q, _ := f.seedQuestion(t, "host question")

	if _, err := svc.CreateAnswer(ctx, q.ID, "  ", "name"); !errors.Is(err, ErrBodyRequired) {
		t.Fatalf("blank body: got %v", err)
	}
	if _, err := svc.CreateAnswer(ctx, q.ID, "body", strings.Repeat("n", 81)); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("long name: got %v", err)
	}
	if _, err := svc.CreateAnswer(ctx, q.ID, "body", strings.Repeat("ü", 80)); err != nil {
		t.Fatalf("80-rune name: got %v", err)
	}
	if _, err := svc.CreateAnswer(ctx, q.ID+999, "body", ""); !errors.Is(err, repository.ErrQuestionNotFound) {
		t.Fatalf("missing question: got %v", err)
	}

	a, err := svc.CreateAnswer(ctx, q.ID, "an answer", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.QuestionID != q.ID || a.Body != "an answer" {
		t.Fatalf("created answer: %+v", a)
	}
}

func TestListQuestionsNewestFirst(t *testing.T) {
	f := newFixture(t)
	svc := newContentService(f, t)

	for _, title := range []string{"oldest", "middle", "newest"} {
		if _, err := svc.CreateQuestion(ctx, title, ""); err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
	}
	list, err := svc.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Title != "newest" || list[2].Title != "oldest" {
		t.Fatalf("ordering: %+v", list)
	}
}

func TestGetQuestionDetail(t *testing.T) {
	f := newFixture(t)
	votes := f.voteService(t, 24*time.Hour)
	svc := NewContentService(f.questions, f.answers, f.suggestions, votes, 50)
	q, answers := f.seedQuestion(t, "detail", "a", "b")

	if _, err := votes.CastAnswerVote(ctx, q.ID, answers[1].ID, "alice", addrA); err != nil {
		t.Fatalf("seed vote: %v", err)
	}
	if _, err := votes.CastQuestionVote(ctx, q.ID, "alice"); err != nil {
		t.Fatalf("seed question vote: %v", err)
	}

	detail, err := svc.GetQuestion(ctx, q.ID, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.Question.ID != q.ID || len(detail.Answers) != 2 {
		t.Fatalf("detail shape: %+v", detail)
	}
	if detail.Answers[0].VoteCount != 0 || detail.Answers[1].VoteCount != 1 {
		t.Fatalf("answer counts: %+v", detail.Answers)
	}
	if detail.QuestionVotes != 1 || !detail.QuestionVoted {
		t.Fatalf("question tally: %+v", detail)
	}
	if detail.CurrentAnswer == nil || *detail.CurrentAnswer != answers[1].ID {
		t.Fatalf("current answer: %v", detail.CurrentAnswer)
	}

	// A fresh identity sees counts but no current-vote state.
	other, err := svc.GetQuestion(ctx, q.ID, "bob")
	if err != nil {
		t.Fatalf("get as bob: %v", err)
	}
	if other.QuestionVoted || other.CurrentAnswer != nil {
		t.Fatalf("bob should have no vote state: %+v", other)
	}

	if _, err := svc.GetQuestion(ctx, q.ID+999, "alice"); !errors.Is(err, repository.ErrQuestionNotFound) {
		t.Fatalf("missing question: got %v", err)
	}
}

func TestCreateSuggestion(t *testing.T) {
	f := newFixture(t)
	svc := newContentService(f, t)

	if _, err := svc.CreateSuggestion(ctx, "  ", ""); !errors.Is(err, ErrBodyRequired) {
		t.Fatalf("blank body: got %v", err)
	}
	s, err := svc.CreateSuggestion(ctx, "add dark mode", "a@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID == 0 || s.Body != "add dark mode" || s.Contact != "a@example.com" {
		t.Fatalf("created suggestion: %+v", s)
	}

	long, err := svc.CreateSuggestion(ctx, "body", strings.Repeat("c", 300))
	if err != nil {
		t.Fatalf("long contact: %v", err)
	}
	if len(long.Contact) != 180 {
		t.Fatalf("contact should be truncated to 180, got %d", len(long.Contact))
	}

	wide, err := svc.CreateSuggestion(ctx, "body", strings.Repeat("é", 300))
	if err != nil {
		t.Fatalf("long multibyte contact: %v", err)
	}
	if utf8.RuneCountInString(wide.Contact) != 180 || !utf8.ValidString(wide.Contact) {
		t.Fatalf("contact should be 180 whole runes, got %d bytes", len(wide.Contact))
	}
}
