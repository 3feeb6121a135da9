// Package lifecycle is the single place staff status changes go through.
// Every change loads the current status, checks it against a transition
// table and writes with a compare-and-set keyed on the status it read.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garnizeh/intake/internal/apperr"
	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository"
)

// Store is the slice of the Persistence Gateway the manager mutates.
type Store interface {
	repository.QuoteRepo
	repository.JobListingRepo
	repository.ApplicationRepo
}

type Manager struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, logger: logger, now: time.Now}
}

// WithClock replaces the clock used for updatedAt.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) stamp() time.Time {
	return m.now().UTC().Truncate(time.Millisecond)
}

// casError maps a failed compare-and-set write.
func casError(entity, id string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s %s: %w", entity, id, apperr.ErrNotFound)
	case errors.Is(err, repository.ErrStaleStatus):
		return fmt.Errorf("%s %s changed while updating: %w", entity, id, apperr.ErrConflict)
	default:
		return apperr.Gateway("update "+entity+" status", err)
	}
}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, apperr.ErrNotFound)
}

// TransitionJob moves a job listing to status to.
func (m *Manager) TransitionJob(ctx context.Context, id string, to models.JobStatus) (*models.JobListing, error) {
	if err := checkTarget(JobTransitions, to); err != nil {
		return nil, err
	}
	j, err := m.store.GetJobListing(ctx, id)
	if err != nil {
		return nil, apperr.Gateway("load job listing", err)
	}
	if j == nil {
		return nil, notFound("job listing", id)
	}
	if !JobTransitions.Allowed(j.Status, to) {
		return nil, &apperr.TransitionError{Entity: "job listing", From: string(j.Status), To: string(to)}
	}

	at := m.stamp()
	if err := m.store.UpdateJobListingStatus(ctx, id, j.Status, to, at); err != nil {
		return nil, casError("job listing", id, err)
	}
	m.logger.Info("job listing status changed", slog.String("id", id), slog.String("from", string(j.Status)), slog.String("to", string(to)))
	j.Status, j.UpdatedAt = to, at
	return j, nil
}

// TransitionApplication moves an application to status to.
func (m *Manager) TransitionApplication(ctx context.Context, id string, to models.ApplicationStatus) (*models.Application, error) {
	if err := checkTarget(ApplicationTransitions, to); err != nil {
		return nil, err
	}
	a, err := m.store.GetApplication(ctx, id)
	if err != nil {
		return nil, apperr.Gateway("load application", err)
	}
	if a == nil {
		return nil, notFound("application", id)
	}
	if !ApplicationTransitions.Allowed(a.Status, to) {
		return nil, &apperr.TransitionError{Entity: "application", From: string(a.Status), To: string(to)}
	}

	at := m.stamp()
	if err := m.store.UpdateApplicationStatus(ctx, id, a.Status, to, at); err != nil {
		return nil, casError("application", id, err)
	}
	m.logger.Info("application status changed", slog.String("id", id), slog.String("from", string(a.Status)), slog.String("to", string(to)))
	a.Status, a.UpdatedAt = to, at
	return a, nil
}

// TransitionQuote moves a quote request to status to.
func (m *Manager) TransitionQuote(ctx context.Context, id string, to models.QuoteStatus) (*models.QuoteRequest, error) {
	if err := checkTarget(QuoteTransitions, to); err != nil {
		return nil, err
	}
	q, err := m.store.GetQuote(ctx, id)
	if err != nil {
		return nil, apperr.Gateway("load quote request", err)
	}
	if q == nil {
		return nil, notFound("quote request", id)
	}
	if !QuoteTransitions.Allowed(q.Status, to) {
		return nil, &apperr.TransitionError{Entity: "quote request", From: string(q.Status), To: string(to)}
	}

	at := m.stamp()
	if err := m.store.UpdateQuoteStatus(ctx, id, q.Status, to, at); err != nil {
		return nil, casError("quote request", id, err)
	}
	m.logger.Info("quote request status changed", slog.String("id", id), slog.String("from", string(q.Status)), slog.String("to", string(to)))
	q.Status, q.UpdatedAt = to, at
	return q, nil
}

// UpdateNotes replaces the staff notes on an application in any status.
func (m *Manager) UpdateNotes(ctx context.Context, id, notes string) (*models.Application, error) {
	at := m.stamp()
	if err := m.store.UpdateApplicationNotes(ctx, id, notes, at); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("application", id)
		}
		return nil, apperr.Gateway("update application notes", err)
	}
	a, err := m.store.GetApplication(ctx, id)
	if err != nil {
		return nil, apperr.Gateway("load application", err)
	}
	if a == nil {
		return nil, notFound("application", id)
	}
	return a, nil
}

// DeleteJobListing removes a listing that has no applications. Listings
// with applications are refused with ErrConflict.
func (m *Manager) DeleteJobListing(ctx context.Context, id string) error {
	err := m.store.DeleteJobListing(ctx, id)
	switch {
	case err == nil:
		m.logger.Info("job listing deleted", slog.String("id", id))
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound("job listing", id)
	case errors.Is(err, repository.ErrHasApplications):
		return fmt.Errorf("job listing %s has applications: %w", id, apperr.ErrConflict)
	default:
		return apperr.Gateway("delete job listing", err)
	}
}
