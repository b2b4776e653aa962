// Package app provides application-level wiring and dependency injection.
package app

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"formgrid/internal/config"
	"formgrid/internal/engine"
	"formgrid/internal/repository"
	"formgrid/internal/service"
)

// Deps holds the external dependencies that main() must provide: config,
// database handles, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// Services groups all service pointers the API handler and scheduler need.
type Services struct {
	Record   *service.RecordService
	Resource *service.ResourceService
	Form     *service.FormService
	Role     *service.RoleService
	PullJob  *service.PullJobService
	Export   *service.ExportService
}

// App holds the fully-wired application. UserRepo is exposed for the auth
// middleware's principal resolution.
type App struct {
	Services Services
	UserRepo *repository.UserRepo
}

// New wires all repositories, the engine, and services from the provided
// deps, then applies the optional seed file.
func New(ctx context.Context, deps Deps) (*App, error) {
	// Repositories on the write pool for mutation paths, read pool for
	// query-only consumers.
	recordRepo := repository.NewRecordRepo(deps.WriteDB)
	resourceRepo := repository.NewResourceRepo(deps.WriteDB)
	formRepo := repository.NewFormRepo(deps.WriteDB)
	roleRepo := repository.NewRoleRepo(deps.WriteDB)
	userRepo := repository.NewUserRepo(deps.WriteDB)
	pullJobRepo := repository.NewPullJobRepo(deps.WriteDB)

	queryRecordRepo := repository.NewRecordRepo(deps.ReadDB)
	authUserRepo := repository.NewUserRepo(deps.ReadDB)

	eng := engine.New(queryRecordRepo)

	abilitySvc := service.NewAbilityService(roleRepo)
	recordSvc := service.NewRecordService(recordRepo, resourceRepo, formRepo, abilitySvc, eng, deps.Logger)
	resourceSvc := service.NewResourceService(resourceRepo, deps.Logger)
	formSvc := service.NewFormService(formRepo, resourceRepo)
	roleSvc := service.NewRoleService(roleRepo, userRepo)
	pullJobSvc := service.NewPullJobService(pullJobRepo, recordRepo, resourceRepo,
		&http.Client{Timeout: 30 * time.Second}, deps.Logger)
	exportSvc := service.NewExportService(recordSvc)

	if deps.Cfg.SeedFile != "" {
		if err := ApplySeedFile(ctx, deps.Cfg.SeedFile, SeedRepos{
			Resources: resourceRepo,
			Forms:     formRepo,
			Roles:     roleRepo,
			Users:     userRepo,
			PullJobs:  pullJobRepo,
		}, deps.Logger); err != nil {
			return nil, err
		}
	}

	return &App{
		Services: Services{
			Record:   recordSvc,
			Resource: resourceSvc,
			Form:     formSvc,
			Role:     roleSvc,
			PullJob:  pullJobSvc,
			Export:   exportSvc,
		},
		UserRepo: authUserRepo,
	}, nil
}
