package in

import (
	"context"

	"carepath/internal/modules/protocol/dto"
)

type Usecase interface {
	ListAssignments(ctx context.Context) ([]dto.AssignmentOutput, error)
	Refresh(ctx context.Context) ([]dto.AssignmentOutput, error)
	GetAssignment(ctx context.Context, id string) (dto.AssignmentDetailOutput, error)
	RequestStart(ctx context.Context, input dto.StartInput) (dto.AssignmentDetailOutput, error)
	CancelStart(ctx context.Context, input dto.StartInput) error
	ConfirmStart(ctx context.Context, input dto.StartInput) (dto.StartOutput, error)
}
