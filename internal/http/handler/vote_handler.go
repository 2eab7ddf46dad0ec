package handler

import (
	"net/http"

	"github.com/debatehq/debate-service/internal/http/middleware"
	"github.com/debatehq/debate-service/internal/http/response"
	"github.com/debatehq/debate-service/internal/security"
	"github.com/debatehq/debate-service/internal/service"
)

type VoteHandler struct {
	votes *service.VoteService
}

func NewVoteHandler(votes *service.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

func (h *VoteHandler) CastAnswerVote(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	answerID, ok := pathID(w, r, "answerID")
	if !ok {
		return
	}
	result, err := h.votes.CastAnswerVote(
		r.Context(),
		questionID,
		answerID,
		middleware.IdentityFromContext(r.Context()),
		security.ClientAddress(r),
	)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

func (h *VoteHandler) CastQuestionVote(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.votes.CastQuestionVote(r.Context(), questionID, middleware.IdentityFromContext(r.Context()))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

func (h *VoteHandler) Counts(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	counts, err := h.votes.VoteCounts(r.Context(), questionID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	questionVotes, err := h.votes.QuestionVoteCount(r.Context(), questionID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"answer_votes":   counts,
		"question_votes": questionVotes,
	})
}
