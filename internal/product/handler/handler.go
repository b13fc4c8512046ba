// Package handler exposes the product registry over HTTP.
//
// Registration and transfer require an authenticated caller; the
// middleware puts the caller identity in the request context and the
// service decides whether that identity may act. Verification is public
// by design so anyone holding a product id can check authenticity.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custos/internal/product/service"
	id "custos/pkg/domain"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: svc, logger: logger}
}

// Register mounts the product routes. requireAuth guards the two
// mutating endpoints; the verify endpoint stays open.
func (h *Handler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/products", h.registerProduct)
		r.Post("/products/{productID}/transfer", h.transferProduct)
	})
	r.Get("/products/{productID}", h.verifyProduct)
}

func (h *Handler) registerProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	product, err := h.service.Register(ctx, requestcontext.CallerID(ctx), req.ProductID, req.DetailsURI)
	if err != nil {
		h.logger.WarnContext(ctx, "register rejected",
			"product_id", req.ProductID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, product)
}

func (h *Handler) transferProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req transferRequest
	if err := decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	product, err := h.service.Transfer(ctx, requestcontext.CallerID(ctx), productID, req.Status, req.NewOwner)
	if err != nil {
		h.logger.WarnContext(ctx, "transfer rejected",
			"product_id", productID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, product)
}

func (h *Handler) verifyProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	product, err := h.service.Verify(ctx, productID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, product)
}
