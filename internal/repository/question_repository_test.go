package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/debatehq/debate-service/internal/domain"
)

func TestQuestionListRecentOrdersNewestFirst(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))

	for _, title := range []string{"first", "second", "third"} {
		if err := repo.Create(&domain.Question{Title: title, CreatedAt: time.Now()}); err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
	}

	questions, err := repo.ListRecent(2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].Title != "third" || questions[1].Title != "second" {
		t.Fatalf("unexpected order: %q, %q", questions[0].Title, questions[1].Title)
	}
}

func TestQuestionDeleteCascadeRemovesAnswersAndVotes(t *testing.T) {
	db := newTestDB(t)
	questions := NewQuestionRepository(db)
	answers := NewAnswerRepository(db)
	votes := NewVoteRepository(db)

	q := &domain.Question{Title: "to be deleted", CreatedAt: time.Now()}
	if err := questions.Create(q); err != nil {
		t.Fatalf("create question: %v", err)
	}
	a := &domain.Answer{QuestionID: q.ID, Body: "an answer", CreatedAt: time.Now()}
	if err := answers.Create(a); err != nil {
		t.Fatalf("create answer: %v", err)
	}
	if err := votes.CreateAnswerVote(&domain.AnswerVote{QuestionID: q.ID, AnswerID: a.ID, IdentityHash: "h1", SubnetHash: "s1", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("create answer vote: %v", err)
	}
	if err := votes.CreateQuestionVote(&domain.QuestionVote{QuestionID: q.ID, IdentityHash: "h1", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("create question vote: %v", err)
	}

	if err := questions.DeleteCascade(q.ID); err != nil {
		t.Fatalf("delete cascade: %v", err)
	}

	if _, err := questions.FindByID(q.ID); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected question gone, got %v", err)
	}
	if _, err := answers.FindByID(a.ID); !errors.Is(err, ErrAnswerNotFound) {
		t.Fatalf("expected answer gone, got %v", err)
	}
	total, err := votes.CountAll()
	if err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected vote rows cascaded, got %d", total)
	}

	if err := questions.DeleteCascade(q.ID); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound on second delete, got %v", err)
	}
}

func TestQuestionListPagedIncludesAnswerCounts(t *testing.T) {
	db := newTestDB(t)
	questions := NewQuestionRepository(db)
	answers := NewAnswerRepository(db)

	q1 := &domain.Question{Title: "q1", CreatedAt: time.Now()}
	q2 := &domain.Question{Title: "q2", CreatedAt: time.Now()}
	if err := questions.Create(q1); err != nil {
		t.Fatalf("create q1: %v", err)
	}
	if err := questions.Create(q2); err != nil {
		t.Fatalf("create q2: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := answers.Create(&domain.Answer{QuestionID: q1.ID, Body: "a", CreatedAt: time.Now()}); err != nil {
			t.Fatalf("create answer: %v", err)
		}
	}

	page, err := questions.ListPaged(PageRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: total=%d items=%d", page.Total, len(page.Items))
	}
	// Newest first: q2 leads, q1 carries the answers.
	if page.Items[0].ID != q2.ID || page.Items[0].AnswerCount != 0 {
		t.Fatalf("unexpected first row: %+v", page.Items[0])
	}
	if page.Items[1].ID != q1.ID || page.Items[1].AnswerCount != 3 {
		t.Fatalf("unexpected second row: %+v", page.Items[1])
	}
	if page.Items[0].CreatedAt.IsZero() {
		t.Fatal("created_at must scan as a time value")
	}
}

func TestAnswerDeleteCascadeRemovesItsVotes(t *testing.T) {
	db := newTestDB(t)
	questions := NewQuestionRepository(db)
	answers := NewAnswerRepository(db)
	votes := NewVoteRepository(db)

	q := &domain.Question{Title: "q", CreatedAt: time.Now()}
	if err := questions.Create(q); err != nil {
		t.Fatalf("create question: %v", err)
	}
	keep := &domain.Answer{QuestionID: q.ID, Body: "keep", CreatedAt: time.Now()}
	drop := &domain.Answer{QuestionID: q.ID, Body: "drop", CreatedAt: time.Now()}
	if err := answers.Create(keep); err != nil {
		t.Fatalf("create keep: %v", err)
	}
	if err := answers.Create(drop); err != nil {
		t.Fatalf("create drop: %v", err)
	}
	if err := votes.CreateAnswerVote(&domain.AnswerVote{QuestionID: q.ID, AnswerID: keep.ID, IdentityHash: "h1", SubnetHash: "s1", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("vote keep: %v", err)
	}
	if err := votes.CreateAnswerVote(&domain.AnswerVote{QuestionID: q.ID, AnswerID: drop.ID, IdentityHash: "h2", SubnetHash: "s2", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("vote drop: %v", err)
	}

	if err := answers.DeleteCascade(drop.ID); err != nil {
		t.Fatalf("delete cascade: %v", err)
	}

	n, err := votes.CountByAnswer(drop.ID)
	if err != nil {
		t.Fatalf("count dropped: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected dropped answer's votes gone, got %d", n)
	}
	n, err = votes.CountByAnswer(keep.ID)
	if err != nil {
		t.Fatalf("count kept: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected kept answer's vote intact, got %d", n)
	}
}
