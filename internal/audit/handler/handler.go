// Package handler exposes the custody event log over HTTP.
//
// Both endpoints are public reads for external indexers and history
// UIs: events are already committed facts and carry no secrets.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"custos/internal/audit"
	id "custos/pkg/domain"
	"custos/pkg/platform/httputil"
)

type Handler struct {
	log *audit.Publisher
}

func New(log *audit.Publisher) *Handler {
	return &Handler{log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/products/{productID}/events", h.productEvents)
	r.Get("/parties/{partyID}/events", h.partyEvents)
}

type eventsResponse struct {
	Events []audit.Event `json:"events"`
}

// productEvents returns the committed custody events for one product in
// commit order. An unknown product id yields an empty list, not a 404:
// the log cannot distinguish "never registered" from "no events yet".
func (h *Handler) productEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.log.ListByProduct(ctx, productID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// partyEvents returns every event a party appears in, as authority, old
// owner, or new owner, in commit order.
func (h *Handler) partyEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	partyID, err := id.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.log.ListByOwner(ctx, partyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, eventsResponse{Events: events})
}
