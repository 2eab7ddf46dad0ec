package domain

import "time"

// QuestionVote is one question-level upvote per anonymous identity. The raw
// identity token never reaches storage, only its keyed hash.
type QuestionVote struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	QuestionID   uint      `gorm:"not null;uniqueIndex:uq_question_identity,priority:1" json:"question_id"`
	IdentityHash string    `gorm:"size:64;not null;uniqueIndex:uq_question_identity,priority:2" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AnswerVote is the answer-level ledger row. The unique key is scoped to the
// question, not the answer: an identity backs at most one answer per question,
// and switching answers updates this row in place.
type AnswerVote struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	QuestionID   uint      `gorm:"not null;uniqueIndex:uq_answer_vote_identity,priority:1" json:"question_id"`
	AnswerID     uint      `gorm:"index;not null" json:"answer_id"`
	IdentityHash string    `gorm:"size:64;not null;uniqueIndex:uq_answer_vote_identity,priority:2" json:"-"`
	SubnetHash   string    `gorm:"size:64;index;not null" json:"-"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
