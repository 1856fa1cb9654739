package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abhisek/quizly/internal/grading"
	"github.com/abhisek/quizly/internal/quiz"
	"github.com/abhisek/quizly/internal/store"
)

type updateAnswersRequest struct {
	QuizID  string   `json:"quiz_id" validate:"required"`
	Answers []string `json:"your_answers" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type explainResponse struct {
	Explanation string `json:"explanation"`
}

type registerResponse struct {
	QuizID string `json:"quiz_id"`
}

type quizResponse struct {
	Quiz      quiz.Quiz `json:"quiz"`
	Answers   []string  `json:"your_answers"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newQuizResponse(rec store.QuizRecord) quizResponse {
	return quizResponse{
		Quiz:      rec.Quiz,
		Answers:   rec.Answers,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "database unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpdateAnswers(w http.ResponseWriter, r *http.Request) {
	var req updateAnswersRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.deps.Quizzes.UpdateAnswers(r.Context(), req.QuizID, req.Answers); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Quiz answers updated successfully"})
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req grading.Request
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.AnswerType == "" {
		req.AnswerType = quiz.AnswerKind(req.ExpectedAnswer)
	}
	if err := s.check(&req); err != nil {
		s.writeError(w, r, err)
		return
	}

	g, err := s.deps.Grader.Grade(r.Context(), req)
	if err == nil && g == nil {
		err = grading.ErrNoGrade
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g.Score = grading.ClampScore(g.Score)
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req grading.ExplainRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	explanation, err := s.deps.Explainer.Explain(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, explainResponse{Explanation: explanation})
}

func (s *Server) handleRegisterQuiz(w http.ResponseWriter, r *http.Request) {
	var q quiz.Quiz
	if err := s.decode(w, r, &q); err != nil {
		s.writeError(w, r, err)
		return
	}
	if q.Len() == 0 {
		s.writeError(w, r, badRequest("quiz has no questions"))
		return
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	for _, issue := range quiz.Validate(&q) {
		s.logger.Warn("registered quiz has data issue", "quiz_id", q.ID, "issue", issue.String())
	}

	if err := s.deps.Quizzes.SaveQuiz(r.Context(), &q); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{QuizID: q.ID})
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Quizzes.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuizResponse(*rec))
}

// handleListQuizzes lists stored quizzes, optionally filtered by ?topic=.
// An empty result is reported as 404.
func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	recs, err := s.deps.Quizzes.ListQuizzes(r.Context(), topic)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(recs) == 0 {
		msg := "No quizzes found."
		if topic != "" {
			msg = "No quizzes found for this topic"
		}
		writeJSON(w, http.StatusNotFound, errorResponse{Error: msg})
		return
	}

	out := make([]quizResponse, len(recs))
	for i, rec := range recs {
		out[i] = newQuizResponse(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Quizzes.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Quiz deleted successfully."})
}
