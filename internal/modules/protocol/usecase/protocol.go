package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carepath/internal/modules/protocol/domain"
	"carepath/internal/modules/protocol/dto"
	protocolin "carepath/internal/modules/protocol/port/in"
	"carepath/internal/modules/protocol/service"
	apperrors "carepath/internal/platform/errors"
)

type Interactor struct {
	svc *service.LifecycleService
}

func NewInteractor(svc *service.LifecycleService) protocolin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) ListAssignments(ctx context.Context) ([]dto.AssignmentOutput, error) {
	list, err := i.svc.Assignments(ctx)
	if err != nil {
		return nil, err
	}
	return i.toOutputs(list), nil
}

func (i *Interactor) Refresh(ctx context.Context) ([]dto.AssignmentOutput, error) {
	list, err := i.svc.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return i.toOutputs(list), nil
}

func (i *Interactor) GetAssignment(ctx context.Context, id string) (dto.AssignmentDetailOutput, error) {
	if strings.TrimSpace(id) == "" {
		return dto.AssignmentDetailOutput{}, fmt.Errorf("%w: assignment id is required", apperrors.ErrInvalidInput)
	}
	a, phase, err := i.svc.Get(ctx, id)
	if err != nil {
		return dto.AssignmentDetailOutput{}, err
	}
	return toDetail(a, phase, i.svc.Now()), nil
}

func (i *Interactor) RequestStart(ctx context.Context, input dto.StartInput) (dto.AssignmentDetailOutput, error) {
	if strings.TrimSpace(input.AssignmentID) == "" {
		return dto.AssignmentDetailOutput{}, fmt.Errorf("%w: assignment id is required", apperrors.ErrInvalidInput)
	}
	a, err := i.svc.RequestStart(ctx, input.AssignmentID)
	if err != nil {
		return dto.AssignmentDetailOutput{}, err
	}
	return toDetail(a, i.svc.Phase(a.ID), i.svc.Now()), nil
}

func (i *Interactor) CancelStart(_ context.Context, input dto.StartInput) error {
	i.svc.CancelStart(input.AssignmentID)
	return nil
}

func (i *Interactor) ConfirmStart(ctx context.Context, input dto.StartInput) (dto.StartOutput, error) {
	if strings.TrimSpace(input.AssignmentID) == "" {
		return dto.StartOutput{}, fmt.Errorf("%w: assignment id is required", apperrors.ErrInvalidInput)
	}
	a, err := i.svc.ConfirmStart(ctx, input.AssignmentID)
	if err != nil {
		return dto.StartOutput{}, err
	}
	return dto.StartOutput{AssignmentID: a.ID, Status: string(a.Status), StartedAt: a.ActualStartDate}, nil
}

func (i *Interactor) toOutputs(list []domain.Assignment) []dto.AssignmentOutput {
	now := i.svc.Now()
	out := make([]dto.AssignmentOutput, 0, len(list))
	for _, a := range list {
		out = append(out, toOutput(a, i.svc.Phase(a.ID), now))
	}
	return out
}

func toOutput(a domain.Assignment, phase domain.Phase, now time.Time) dto.AssignmentOutput {
	av := domain.Resolve(a, now)
	return dto.AssignmentOutput{
		ID:            a.ID,
		ProtocolID:    a.ProtocolID,
		Name:          a.Title(),
		Status:        string(a.Status),
		DisplayStatus: av.DisplayStatus,
		DisplayColor:  string(av.DisplayColor),
		CanStart:      av.CanStart,
		IsActive:      av.IsActive,
		Phase:         string(phase),
		CurrentDay:    a.CurrentDay,
		AdherenceRate: a.AdherenceRate,
		Progress:      a.Progress,
	}
}

func toDetail(a domain.Assignment, phase domain.Phase, now time.Time) dto.AssignmentDetailOutput {
	return dto.AssignmentDetailOutput{
		AssignmentOutput: toOutput(a, phase, now),
		Description:      a.Protocol.Description,
		DurationDays:     a.Protocol.DurationDays,
		CoverImage:       a.Protocol.CoverImage,
		Doctor:           a.Protocol.Doctor,
		BlockReason:      domain.BlockReason(a, now),
		PlannedStartDate: a.PlannedStartDate,
		PlannedEndDate:   a.PlannedEndDate,
		ActualStartDate:  a.ActualStartDate,
		AvailableFrom:    a.AvailableFrom,
	}
}
