package catalog

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/camila-duarte/galleria/internal/domain"
)

// Origin labels which backend actually answered a read.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginStatic Origin = "static"
)

// Source is the read contract the handlers depend on. Get returns nil
// without error when no product matches.
type Source interface {
	ListActive(ctx context.Context) ([]domain.Product, Origin, error)
	Get(ctx context.Context, identifier string) (*domain.Product, Origin, error)
}

// Fallback prefers the database and silently degrades to the static
// catalog on any remote failure. Remote errors never reach the caller.
type Fallback struct {
	repo   *Repository
	static *Static
	logger *slog.Logger
}

// NewFallback accepts a nil repo, which forces every read onto the static
// catalog (the no-database deployment mode).
func NewFallback(repo *Repository, static *Static, logger *slog.Logger) *Fallback {
	return &Fallback{repo: repo, static: static, logger: logger}
}

func (f *Fallback) ListActive(ctx context.Context) ([]domain.Product, Origin, error) {
	if f.repo != nil {
		products, err := f.repo.ListActive(ctx)
		if err == nil {
			return products, OriginRemote, nil
		}
		f.logger.Warn("remote catalog unavailable, serving static data", "error", err)
	}

	products, _ := f.static.ListActive(ctx)
	return products, OriginStatic, nil
}

func (f *Fallback) Get(ctx context.Context, identifier string) (*domain.Product, Origin, error) {
	if f.repo != nil {
		product, err := f.remoteGet(ctx, identifier)
		if err == nil {
			return product, OriginRemote, nil
		}
		f.logger.Warn("remote catalog unavailable, serving static data", "error", err, "identifier", identifier)
	}

	product, _ := f.static.Get(ctx, identifier)
	return product, OriginStatic, nil
}

func (f *Fallback) remoteGet(ctx context.Context, identifier string) (*domain.Product, error) {
	if number, err := strconv.Atoi(identifier); err == nil {
		return f.repo.GetByInventoryNumber(ctx, number)
	}
	return f.repo.GetBySlug(ctx, identifier)
}
