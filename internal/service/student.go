package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"menza/internal/apperr"
	"menza/internal/models"
	"menza/internal/store"
)

// StudentService registers and resolves students. Students are immutable
// once created.
type StudentService struct {
	store  store.Store
	logger *zerolog.Logger
}

// NewStudentService constructs the service.
func NewStudentService(st store.Store, logger *zerolog.Logger) *StudentService {
	return &StudentService{store: st, logger: logger}
}

// RegisterStudentInput is the payload for Register.
type RegisterStudentInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Register creates a student. Emails are unique.
func (s *StudentService) Register(ctx context.Context, in RegisterStudentInput) (*models.Student, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if name == "" {
		return nil, apperr.InvalidInput("name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.InvalidInput("valid email is required")
	}

	existing, err := s.store.GetStudentByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Store(err, "look up email")
	}
	if existing != nil {
		return nil, apperr.Conflict("student with email %s already exists", email)
	}

	created, err := s.store.AddStudent(ctx, &models.Student{
		Name:    name,
		Email:   email,
		IsAdmin: in.IsAdmin,
	})
	if err != nil {
		return nil, apperr.Store(err, "persist student")
	}
	s.logger.Info().Str("student_id", created.ID).Msg("student registered")
	return created, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return nil, apperr.Store(err, "look up student")
	}
	if student == nil {
		return nil, apperr.NotFound("student %s not found", id)
	}
	return student, nil
}
