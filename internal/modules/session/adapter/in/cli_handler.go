package in

import (
	"context"

	sessiondto "carepath/internal/modules/session/dto"
	sessionin "carepath/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Login(ctx context.Context, token, expiresAt string) (sessiondto.StatusOutput, error) {
	return h.usecase.Login(ctx, sessiondto.LoginInput{Token: token, ExpiresAt: expiresAt})
}

func (h CLIHandler) Logout(ctx context.Context) error {
	return h.usecase.Logout(ctx)
}

func (h CLIHandler) Status(ctx context.Context) (sessiondto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}
