package in

import (
	"context"

	"carepath/internal/modules/protocol/dto"
	protocolin "carepath/internal/modules/protocol/port/in"
)

type CLIHandler struct {
	usecase protocolin.Usecase
}

func NewCLIHandler(usecase protocolin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.AssignmentOutput, error) {
	return h.usecase.ListAssignments(ctx)
}

func (h CLIHandler) Refresh(ctx context.Context) ([]dto.AssignmentOutput, error) {
	return h.usecase.Refresh(ctx)
}

func (h CLIHandler) Get(ctx context.Context, id string) (dto.AssignmentDetailOutput, error) {
	return h.usecase.GetAssignment(ctx, id)
}

func (h CLIHandler) RequestStart(ctx context.Context, id string) (dto.AssignmentDetailOutput, error) {
	return h.usecase.RequestStart(ctx, dto.StartInput{AssignmentID: id})
}

func (h CLIHandler) CancelStart(ctx context.Context, id string) error {
	return h.usecase.CancelStart(ctx, dto.StartInput{AssignmentID: id})
}

func (h CLIHandler) ConfirmStart(ctx context.Context, id string) (dto.StartOutput, error) {
	return h.usecase.ConfirmStart(ctx, dto.StartInput{AssignmentID: id})
}
