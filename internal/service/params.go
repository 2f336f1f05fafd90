package service

import (
	"github.com/creatorly/churnalytics/internal/cache"
	"github.com/creatorly/churnalytics/internal/config"
	"github.com/creatorly/churnalytics/internal/domain/events"
	"github.com/creatorly/churnalytics/internal/domain/product"
	"github.com/creatorly/churnalytics/internal/logger"
)

// ServiceParams holds the dependencies shared by all services. Services embed
// it and pick what they need; construction happens once at wiring time.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Cache  cache.Cache

	ProductRepo product.Repository
	EventRepo   events.Repository
}
