package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/fluentia-app/fluentia/internal/lesson"
)

// lessonBody is the create/update request payload.
type lessonBody struct {
	Title    string `json:"title"`
	Article  string `json:"article"`
	Dialogue string `json:"dialogue"`
}

// lessonsResponse is the GET /api/lessons reply.
type lessonsResponse struct {
	Lessons []lesson.Summary `json:"lessons"`
}

// lessonResponse wraps a full lesson for the mutator replies.
type lessonResponse struct {
	Lesson *lesson.Lesson `json:"lesson"`
}

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.lessons.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []lesson.Summary{}
	}
	s.writeJSON(w, http.StatusOK, lessonsResponse{Lessons: summaries})
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	l, err := s.lessons.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	var body lessonBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, badRequestf("invalid JSON body"))
		return
	}

	l := &lesson.Lesson{
		Title:    body.Title,
		Article:  body.Article,
		Dialogue: body.Dialogue,
	}
	if err := l.Validate(); err != nil {
		s.writeError(w, r, badRequestf(err.Error()))
		return
	}
	if err := s.lessons.Create(r.Context(), l); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("lesson created", "id", l.ID, "title", l.Title)
	s.writeJSON(w, http.StatusCreated, lessonResponse{Lesson: l})
}

func (s *Server) handleUpdateLesson(w http.ResponseWriter, r *http.Request) {
	var body lessonBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, badRequestf("invalid JSON body"))
		return
	}

	l := &lesson.Lesson{
		ID:       r.PathValue("id"),
		Title:    body.Title,
		Article:  body.Article,
		Dialogue: body.Dialogue,
	}
	if err := l.Validate(); err != nil {
		s.writeError(w, r, badRequestf(err.Error()))
		return
	}
	if err := s.lessons.Update(r.Context(), l); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("lesson updated", "id", l.ID)
	s.writeJSON(w, http.StatusOK, lessonResponse{Lesson: l})
}

func (s *Server) handleDeleteLesson(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.lessons.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("lesson deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
