package pipeline

import (
	"github.com/nguyentantai21042004/minutes-flow/internal/audio"
	"github.com/nguyentantai21042004/minutes-flow/internal/config"
	"github.com/nguyentantai21042004/minutes-flow/internal/history"
	"github.com/nguyentantai21042004/minutes-flow/internal/inference"
	"github.com/nguyentantai21042004/minutes-flow/internal/logger"
	"github.com/nguyentantai21042004/minutes-flow/internal/objectstore"
)

type implPipeline struct {
	cfg       *config.Config
	models    inference.Models
	loader    audio.Loader
	logger    logger.Logger
	history   history.Store
	publisher objectstore.Publisher
}

// Option configures optional pipeline collaborators.
type Option func(*implPipeline)

// WithHistory records every Run in store.
func WithHistory(store history.Store) Option {
	return func(p *implPipeline) { p.history = store }
}

// WithPublisher uploads the artifacts of every completed Run.
func WithPublisher(pub objectstore.Publisher) Option {
	return func(p *implPipeline) { p.publisher = pub }
}

// New creates a new Pipeline instance
func New(cfg *config.Config, models inference.Models, loader audio.Loader, log logger.Logger, opts ...Option) Pipeline {
	p := &implPipeline{
		cfg:    cfg,
		models: models,
		loader: loader,
		logger: log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}
