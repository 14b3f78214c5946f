package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/afero"

	appconfig "github.com/anchorworks/sprintflow/internal/app/config"
	"github.com/anchorworks/sprintflow/internal/application/port/output"
	"github.com/anchorworks/sprintflow/internal/application/service"
	projectuc "github.com/anchorworks/sprintflow/internal/application/usecase/project"
	reportuc "github.com/anchorworks/sprintflow/internal/application/usecase/report"
	sprintuc "github.com/anchorworks/sprintflow/internal/application/usecase/sprint"
	taskuc "github.com/anchorworks/sprintflow/internal/application/usecase/task"
	"github.com/anchorworks/sprintflow/internal/infrastructure/auth"
	"github.com/anchorworks/sprintflow/internal/infrastructure/notification"
	"github.com/anchorworks/sprintflow/internal/infrastructure/persistence/sqlite"
	"github.com/anchorworks/sprintflow/internal/infrastructure/transaction"
)

// App wires repositories, services and use cases for command handlers
type App struct {
	db        *sql.DB
	ProjectUC *projectuc.ProjectUseCaseImpl
	TaskUC    *taskuc.TaskUseCaseImpl
	SprintUC  *sprintuc.SprintUseCaseImpl
	ReportUC  *reportuc.ReportUseCaseImpl
	Config    appconfig.Config
}

// openApp opens the database, runs migrations and builds the object graph
func openApp(cfg appconfig.Config) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath()), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir failed: %w", err)
	}

	// _txlock=immediate makes writers take the write lock at BEGIN, so
	// concurrent mutations queue on the busy timeout instead of failing on
	// a deferred lock upgrade
	db, err := sql.Open("sqlite3", cfg.DatabasePath()+"?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}

	if err := sqlite.NewMigrator(db).Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	projectRepo := sqlite.NewProjectRepository(db)
	taskRepo := sqlite.NewTaskRepository(db)
	sprintRepo := sqlite.NewSprintRepository(db)
	commentRepo := sqlite.NewCommentRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	txManager := transaction.NewSQLiteTransactionManager(db)
	authPort := auth.NewStaticAuth(cfg.ActorName(), output.Role(cfg.ActorRole()))
	fs := afero.NewOsFs()
	notifier := notification.NewDigestNotifier(fs, cfg.DigestDir())

	chainSvc := service.NewChainService(taskRepo, sprintRepo, commentRepo)
	reorderSvc := service.NewReorderService(taskRepo, sprintRepo, txManager)
	splitSvc := service.NewSplitService(projectRepo, taskRepo, sprintRepo, commentRepo, activityRepo, chainSvc)

	return &App{
		db:        db,
		ProjectUC: projectuc.NewProjectUseCaseImpl(projectRepo, txManager, authPort),
		TaskUC: taskuc.NewTaskUseCaseImpl(
			projectRepo, taskRepo, sprintRepo, commentRepo, activityRepo,
			chainSvc, reorderSvc, splitSvc, txManager, authPort, notifier,
		),
		SprintUC: sprintuc.NewSprintUseCaseImpl(
			projectRepo, taskRepo, sprintRepo, activityRepo,
			splitSvc, txManager, authPort, notifier,
		),
		ReportUC: reportuc.NewReportUseCaseImpl(projectRepo, sprintRepo, taskRepo, chainSvc, fs),
		Config:   cfg,
	}, nil
}

// Close releases the database handle
func (a *App) Close() error {
	return a.db.Close()
}
