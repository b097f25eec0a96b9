package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/dealfinder/internal/apperr"
	"github.com/dukerupert/dealfinder/internal/auth"
	"github.com/dukerupert/dealfinder/internal/category"
	"github.com/dukerupert/dealfinder/internal/display"
	"github.com/dukerupert/dealfinder/internal/linkcheck"
	"github.com/dukerupert/dealfinder/internal/model"
	"github.com/dukerupert/dealfinder/internal/service"
	"github.com/dukerupert/dealfinder/internal/websocket"
)

type DealHandler struct {
	deals   *service.DealService
	checker *linkcheck.Checker
	hub     *websocket.Hub
	now     func() time.Time
	logger  *slog.Logger
}

func NewDealHandler(ds *service.DealService, checker *linkcheck.Checker, hub *websocket.Hub, logger *slog.Logger) *DealHandler {
	return &DealHandler{deals: ds, checker: checker, hub: hub, now: time.Now, logger: logger}
}

func (h *DealHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// dealResponse is the public deal projection plus the values the list and
// detail views display next to it.
type dealResponse struct {
	model.Deal
	Retailer  string           `json:"retailer"`
	PostedAgo string           `json:"posted_ago"`
	Savings   *display.Savings `json:"savings"`
}

func (h *DealHandler) present(d *model.Deal) dealResponse {
	return dealResponse{
		Deal:      *d,
		Retailer:  display.Retailer(d.ProductURL),
		PostedAgo: display.TimeSince(d.CreatedAt, h.now()),
		Savings:   display.CalculateSavings(d.Price, d.OriginalPrice),
	}
}

func (h *DealHandler) presentAll(deals []model.Deal) []dealResponse {
	out := make([]dealResponse, len(deals))
	for i := range deals {
		out[i] = h.present(&deals[i])
	}
	return out
}

type dealEnvelope struct {
	Message string       `json:"message"`
	Deal    dealResponse `json:"deal"`
}

func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	deals, err := h.deals.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.presentAll(deals))
}

func (h *DealHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId", "Invalid user ID")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	deals, err := h.deals.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.presentAll(deals))
}

func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id", "Invalid deal ID")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	deal, err := h.deals.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.present(deal))
}

func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.DealFields
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	deal, err := h.deals.Create(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.DealEvent(websocket.ActionCreated, deal.ID))
	writeJSON(w, http.StatusCreated, dealEnvelope{Message: "Deal created successfully", Deal: h.present(deal)})
}

func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id", "Invalid deal ID")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req model.DealFields
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	deal, err := h.deals.Update(r.Context(), id, auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.DealEvent(websocket.ActionUpdated, deal.ID))
	writeJSON(w, http.StatusOK, dealEnvelope{Message: "Deal updated successfully", Deal: h.present(deal)})
}

func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id", "Invalid deal ID")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.deals.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.DealEvent(websocket.ActionDeleted, id))
	writeJSON(w, http.StatusOK, messageResponse{Message: "Deal deleted successfully"})
}

type verifyLinkRequest struct {
	URL string `json:"url"`
}

// VerifyLink probes a product URL so the posting form can warn about dead links.
func (h *DealHandler) VerifyLink(w http.ResponseWriter, r *http.Request) {
	var req verifyLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.URL == "" {
		writeError(w, r, h.logger, apperr.Validation("URL is required"))
		return
	}

	res, err := h.checker.Check(r.Context(), req.URL)
	if errors.Is(err, linkcheck.ErrInvalidURL) {
		writeError(w, r, h.logger, apperr.Validation("Invalid product URL"))
		return
	}
	if err != nil {
		writeError(w, r, h.logger, apperr.Internal("verify link", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

func (h *DealHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: category.All})
}

type suggestionResponse struct {
	Category string `json:"category"`
}

// SuggestCategory guesses a category from ?title= so the posting form can
// preselect one.
func (h *DealHandler) SuggestCategory(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeError(w, r, h.logger, apperr.Validation("Title is required"))
		return
	}
	writeJSON(w, http.StatusOK, suggestionResponse{Category: category.Suggest(title)})
}
