// Package infrastructure contains infrastructure layer components
package infrastructure

import (
	"go.uber.org/fx"

	"github.com/clipfetch/clipfetch/internal/infrastructure/logger"
	"github.com/clipfetch/clipfetch/internal/infrastructure/telegram"
	"github.com/clipfetch/clipfetch/internal/infrastructure/ytdlp"
)

// Module provides all infrastructure components for fx dependency injection
var Module = fx.Module("infrastructure",
	logger.Module,
	telegram.Module,
	ytdlp.Module,
)
