package bootstrap

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	habitinadapter "carepath/internal/modules/habit/adapter/in"
	habitoutadapter "carepath/internal/modules/habit/adapter/out"
	habitservice "carepath/internal/modules/habit/service"
	habitusecase "carepath/internal/modules/habit/usecase"
	protocolinadapter "carepath/internal/modules/protocol/adapter/in"
	protocoloutadapter "carepath/internal/modules/protocol/adapter/out"
	protocolservice "carepath/internal/modules/protocol/service"
	protocolusecase "carepath/internal/modules/protocol/usecase"
	sessioninadapter "carepath/internal/modules/session/adapter/in"
	sessionoutadapter "carepath/internal/modules/session/adapter/out"
	sessionservice "carepath/internal/modules/session/service"
	sessionusecase "carepath/internal/modules/session/usecase"
	"carepath/internal/platform/clock"
	"carepath/internal/platform/config"
	"carepath/internal/platform/httpapi"
	"carepath/internal/platform/id"
	"carepath/internal/platform/logging"
	uiapp "carepath/internal/ui/app"
)

type App struct {
	ProtocolCLI protocolinadapter.CLIHandler
	HabitCLI    habitinadapter.CLIHandler
	SessionCLI  sessioninadapter.CLIHandler
	Nav         *protocoloutadapter.NavigationBus
	Logger      *slog.Logger

	closer io.Closer
}

func New(cfg config.Config) (*App, error) {
	logger, closer, err := openLogger(cfg)
	if err != nil {
		return nil, err
	}
	clk := clock.SystemClock{}

	sessionSvc := sessionservice.NewSessionService(
		clk,
		sessionoutadapter.NewFileCredentialStore(cfg.CredentialsPath),
		cfg.EnvToken,
		logger,
	)

	api, err := httpapi.New(cfg.APIBaseURL, cfg.Timeout, sessionSvc, id.UUID{}, logger)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("new api client: %w", err)
	}

	nav := protocoloutadapter.NewNavigationBus()
	protocolUC := protocolusecase.NewInteractor(protocolservice.NewLifecycleService(
		clk,
		protocoloutadapter.NewHTTPPrescriptionGateway(api, cfg.Endpoints.Prescriptions, cfg.Endpoints.PrescriptionStart),
		nav,
		sessionSvc,
		logger,
	))

	habitUC := habitusecase.NewInteractor(habitservice.NewProgressService(
		clk,
		habitoutadapter.NewHTTPHabitGateway(api, cfg.Endpoints.Habits, cfg.Endpoints.HabitProgress),
		sessionSvc,
		logger,
	))

	return &App{
		ProtocolCLI: protocolinadapter.NewCLIHandler(protocolUC),
		HabitCLI:    habitinadapter.NewCLIHandler(habitUC),
		SessionCLI:  sessioninadapter.NewCLIHandler(sessionusecase.NewInteractor(sessionSvc)),
		Nav:         nav,
		Logger:      logger,
		closer:      closer,
	}, nil
}

// Close flushes and releases the log file.
func (a *App) Close() error {
	if a == nil || a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.ProtocolCLI, app.HabitCLI, app.SessionCLI, app.Nav)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func openLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := logging.OpenFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return logger.With("app", "carepath"), closer, nil
}
