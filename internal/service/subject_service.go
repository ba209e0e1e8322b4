package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-results/internal/model"
	"github.com/stemsi/exstem-results/internal/repository"
)

type SubjectService struct {
	repo *repository.SubjectRepository
}

func NewSubjectService(repo *repository.SubjectRepository) *SubjectService {
	return &SubjectService{repo: repo}
}

func (s *SubjectService) List(ctx context.Context) ([]model.Subject, error) {
	return s.repo.GetAll(ctx)
}

func (s *SubjectService) Create(ctx context.Context, subject *model.Subject) error {
	return s.repo.Create(ctx, subject)
}

func (s *SubjectService) Update(ctx context.Context, subject *model.Subject) error {
	return s.repo.Update(ctx, subject)
}

func (s *SubjectService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
