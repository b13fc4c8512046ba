package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"custos/internal/audit"
	"custos/internal/product/models"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
	"custos/pkg/requestcontext"
)

// Transfer moves custody of a product to newOwner and records the new
// status, as one atomic step.
//
// Preconditions, in order: the product must exist (NotFound — so "not
// my product" and "product doesn't exist" stay distinguishable), the
// caller must be the current owner (Unauthorized), newOwner must be a
// real identity (validation), newStatus must be non-empty (validation).
// Validation and mutation run inside store.Execute with the record lock
// held, so the ownership check and the write are one step: after
// success only newOwner may author the next transfer, and the previous
// owner has permanently lost write capability over this product.
func (s *Service) Transfer(ctx context.Context, caller id.PartyID, productID id.ProductID, newStatus string, newOwner id.PartyID) (*models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "product.Transfer")
	defer span.End()
	start := time.Now()

	newStatus = strings.TrimSpace(newStatus)

	var (
		updated  *models.Product
		oldOwner id.PartyID
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		p, err := s.products.Execute(txCtx, productID,
			func(p *models.Product) error {
				oldOwner = p.CurrentOwner
				return p.CanTransfer(caller, newOwner, newStatus)
			},
			func(p *models.Product) {
				p.ApplyTransfer(newOwner, newStatus)
			},
		)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "product not found")
			}
			return err
		}

		event := audit.NewStatusUpdated(productID, oldOwner, newOwner, newStatus, now)
		if err := s.auditLog.Emit(txCtx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append transfer event")
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, productID)
	}

	s.metrics.IncrementTransferred()
	s.metrics.ObserveTransfer(start)
	s.logger.InfoContext(ctx, "custody transferred",
		"product_id", productID.String(),
		"old_owner", oldOwner.String(),
		"new_owner", newOwner.String(),
		"status", newStatus,
		"request_id", requestcontext.RequestID(ctx),
	)
	return updated, nil
}
