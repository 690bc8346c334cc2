package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/rotagrid/rotagrid/internal/config"
	"github.com/rotagrid/rotagrid/pkg/postgres"
)

// AppContext holds the application dependencies shared by all commands
type AppContext struct {
	Cfg      *config.Config
	Database *postgres.DB
	Logger   *zap.Logger
	Ctx      context.Context
}
