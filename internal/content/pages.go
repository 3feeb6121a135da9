package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/garnizeh/intake/internal/apperr"
	"github.com/garnizeh/intake/internal/validation"
	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository"
	"github.com/google/uuid"
)

// ServiceInput is the staff form for a service page. An empty slug is
// derived from the title.
type ServiceInput struct {
	Slug      string `json:"slug" validate:"max=120"`
	Title     string `json:"title" validate:"required,max=200"`
	Summary   string `json:"summary" validate:"max=500"`
	Body      string `json:"body"`
	Position  int    `json:"position" validate:"min=0"`
	Published bool   `json:"published"`
}

func (s *Service) CreateService(ctx context.Context, in ServiceInput) (*models.Service, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	svc := &models.Service{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Summary:   strings.TrimSpace(in.Summary),
		Body:      in.Body,
		Position:  in.Position,
		Published: in.Published,
		UpdatedAt: s.stamp(),
	}
	base, explicit := slugFor(in.Slug, in.Title)
	err := withUniqueSlug(base, explicit, func(slug string) error {
		svc.Slug = slug
		return s.store.CreateService(ctx, svc)
	})
	if err != nil {
		return nil, pageError("create service", err)
	}
	s.logger.Info("service created", slog.String("id", svc.ID), slog.String("slug", svc.Slug))
	return svc, nil
}

func (s *Service) UpdateService(ctx context.Context, id string, in ServiceInput) (*models.Service, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	svc := &models.Service{
		ID:        id,
		Title:     in.Title,
		Summary:   strings.TrimSpace(in.Summary),
		Body:      in.Body,
		Position:  in.Position,
		Published: in.Published,
		UpdatedAt: s.stamp(),
	}
	base, explicit := slugFor(in.Slug, in.Title)
	err := withUniqueSlug(base, explicit, func(slug string) error {
		svc.Slug = slug
		return s.store.UpdateService(ctx, svc)
	})
	if err != nil {
		return nil, pageError("update service "+id, err)
	}
	return svc, nil
}

func (s *Service) DeleteService(ctx context.Context, id string) error {
	return pageError("delete service "+id, s.store.DeleteService(ctx, id))
}

func (s *Service) ListServices(ctx context.Context, publishedOnly bool) ([]models.Service, error) {
	list, err := s.store.ListServices(ctx, publishedOnly)
	if err != nil {
		return nil, apperr.Gateway("list services", err)
	}
	return list, nil
}

// ProjectInput is the staff form for a portfolio project.
type ProjectInput struct {
	Slug      string `json:"slug" validate:"max=120"`
	Title     string `json:"title" validate:"required,max=200"`
	Summary   string `json:"summary" validate:"max=500"`
	ImageURL  string `json:"imageUrl" validate:"omitempty,url"`
	ServiceID string `json:"serviceId"`
	Published bool   `json:"published"`
}

func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (*models.Project, error) {
	p, err := s.project(ctx, uuid.NewString(), in)
	if err != nil {
		return nil, err
	}
	base, explicit := slugFor(in.Slug, p.Title)
	err = withUniqueSlug(base, explicit, func(slug string) error {
		p.Slug = slug
		return s.store.CreateProject(ctx, p)
	})
	if err != nil {
		return nil, pageError("create project", err)
	}
	s.logger.Info("project created", slog.String("id", p.ID), slog.String("slug", p.Slug))
	return p, nil
}

func (s *Service) UpdateProject(ctx context.Context, id string, in ProjectInput) (*models.Project, error) {
	p, err := s.project(ctx, id, in)
	if err != nil {
		return nil, err
	}
	base, explicit := slugFor(in.Slug, p.Title)
	err = withUniqueSlug(base, explicit, func(slug string) error {
		p.Slug = slug
		return s.store.UpdateProject(ctx, p)
	})
	if err != nil {
		return nil, pageError("update project "+id, err)
	}
	return p, nil
}

// project validates in and checks the linked service exists.
func (s *Service) project(ctx context.Context, id string, in ProjectInput) (*models.Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.ServiceID = strings.TrimSpace(in.ServiceID)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.ServiceID != "" {
		svc, err := s.store.GetService(ctx, in.ServiceID)
		if err != nil {
			return nil, apperr.Gateway("load service", err)
		}
		if svc == nil {
			return nil, apperr.NewValidationError(map[string]string{"serviceId": "unknown service"})
		}
	}
	return &models.Project{
		ID:        id,
		Title:     in.Title,
		Summary:   strings.TrimSpace(in.Summary),
		ImageURL:  strings.TrimSpace(in.ImageURL),
		ServiceID: in.ServiceID,
		Published: in.Published,
		UpdatedAt: s.stamp(),
	}, nil
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	return pageError("delete project "+id, s.store.DeleteProject(ctx, id))
}

func (s *Service) ListProjects(ctx context.Context, publishedOnly bool) ([]models.Project, error) {
	list, err := s.store.ListProjects(ctx, publishedOnly)
	if err != nil {
		return nil, apperr.Gateway("list projects", err)
	}
	return list, nil
}

func pageError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case errors.Is(err, apperr.ErrConflict):
		return err
	default:
		return apperr.Gateway(op, err)
	}
}
