package service

import (
	"context"
	"errors"
	"time"

	"custos/internal/audit"
	"custos/internal/product/models"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
	"custos/pkg/requestcontext"
)

// Register creates a product record under the given id.
//
// Preconditions, in order: the caller must be the registering
// authority, the id must be valid, and the id must not already be
// registered. On success exactly one product exists under the id, owned
// by the authority, and a ProductRegistered event is committed with it.
// On any failure neither store nor log change.
func (s *Service) Register(ctx context.Context, caller id.PartyID, rawID string, detailsURI string) (*models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "product.Register")
	defer span.End()
	start := time.Now()

	if !s.guard.IsAuthority(caller) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller is not the registering authority")
	}

	productID, err := id.ParseProductID(rawID)
	if err != nil {
		return nil, err
	}

	var product *models.Product
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		p, err := models.NewProduct(productID, s.guard.Authority(), detailsURI, now)
		if err != nil {
			return err
		}

		if err := s.products.CreateIfAbsent(txCtx, p); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "product id is already registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create product")
		}

		event := audit.NewProductRegistered(p.ID, p.CurrentOwner, now, detailsURI)
		if err := s.auditLog.Emit(txCtx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append registration event")
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementRegistered()
	s.metrics.ObserveRegister(start)
	s.logger.InfoContext(ctx, "product registered",
		"product_id", product.ID.String(),
		"authority", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return product, nil
}
