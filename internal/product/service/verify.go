package service

import (
	"context"
	"errors"
	"time"

	"custos/internal/product/models"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
)

// Verify returns the current snapshot of a product. Public: no access
// control, no side effects beyond cache warming. Callers needing full
// custody history must query the audit log; this returns only the
// latest state.
func (s *Service) Verify(ctx context.Context, productID id.ProductID) (*models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "product.Verify")
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveVerify(start)

	if s.cache != nil {
		if product, ok := s.cache.Get(ctx, productID); ok {
			return product, nil
		}
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
	}

	if s.cache != nil {
		s.cache.Set(ctx, product)
	}
	return product, nil
}
