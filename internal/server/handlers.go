package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/generator"
	"github.com/shouni/go-comico-kit/pkg/runner"

	"github.com/go-chi/chi/v5"
)

// ComicService はハンドラーが利用するコミックのライフサイクル操作です。
type ComicService interface {
	CreateDraft(ctx context.Context, in runner.DraftInput) (*domain.ComicRecord, error)
	Generate(ctx context.Context, comicID string, opts runner.GenerateOptions) (*domain.GeneratedComic, domain.Outcome, error)
	Get(ctx context.Context, comicID string) (*domain.ComicRecord, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.ComicRecord, error)
	Delete(ctx context.Context, comicID string) error
	RegeneratePanel(ctx context.Context, comicID string, panelNumber int, description, style string) (*domain.GeneratedComic, error)
	PlaceOrder(ctx context.Context, in runner.OrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
}

// Assistant は analyze-photo / generate-story の呼び出しです。
type Assistant interface {
	AnalyzePhoto(ctx context.Context, imageURL string) (string, error)
	DraftStory(ctx context.Context, story string, photoDescriptions []string) (json.RawMessage, error)
}

var (
	_ ComicService = (*runner.ComicService)(nil)
	_ Assistant    = (*generator.Assistant)(nil)
)

type handlers struct {
	comics    ComicService
	assistant Assistant
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Proxy endpoints ---

type analyzePhotoRequest struct {
	ImageURL string `json:"imageUrl"`
}

func (h *handlers) analyzePhoto(w http.ResponseWriter, r *http.Request) {
	var req analyzePhotoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, false)
		return
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		writeError(w, http.StatusBadRequest, "imageUrl is required")
		return
	}

	description, err := h.assistant.AnalyzePhoto(r.Context(), req.ImageURL)
	if err != nil {
		respondError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"description": description})
}

type generateStoryRequest struct {
	Story         string `json:"story"`
	PhotoAnalyses []struct {
		Description string `json:"description"`
	} `json:"photoAnalyses"`
}

func (h *handlers) generateStory(w http.ResponseWriter, r *http.Request) {
	var req generateStoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, false)
		return
	}

	descriptions := make([]string, len(req.PhotoAnalyses))
	for i, a := range req.PhotoAnalyses {
		descriptions[i] = a.Description
	}

	draft, err := h.assistant.DraftStory(r.Context(), req.Story, descriptions)
	if err != nil {
		respondError(w, r, err, false)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(draft)
}

// --- Comics ---

type createComicRequest struct {
	UserID       string   `json:"userId"`
	Story        string   `json:"story"`
	Photos       []string `json:"photos"`
	SelectedPlan string   `json:"selectedPlan"`
}

func (h *handlers) createComic(w http.ResponseWriter, r *http.Request) {
	var req createComicRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, false)
		return
	}

	photos := make([]domain.PhotoInput, 0, len(req.Photos))
	for i, ref := range req.Photos {
		p, err := domain.ParsePhotoRef(ref)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("photo %d: %v", i+1, err))
			return
		}
		photos = append(photos, p)
	}

	rec, err := h.comics.CreateDraft(r.Context(), runner.DraftInput{
		UserID:       req.UserID,
		Story:        req.Story,
		Photos:       photos,
		SelectedPlan: req.SelectedPlan,
	})
	if err != nil {
		respondError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *handlers) getComic(w http.ResponseWriter, r *http.Request) {
	rec, err := h.comics.Get(r.Context(), chi.URLParam(r, "comicID"))
	if err != nil {
		respondError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handlers) deleteComic(w http.ResponseWriter, r *http.Request) {
	if err := h.comics.Delete(r.Context(), chi.URLParam(r, "comicID")); err != nil {
		respondError(w, r, err, false)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listComics(w http.ResponseWriter, r *http.Request) {
	recs, err := h.comics.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, err, false)
		return
	}
	if recs == nil {
		recs = []*domain.ComicRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

type generateComicRequest struct {
	Panels int    `json:"panels"`
	Style  string `json:"style"`
}

type generateComicResponse struct {
	*domain.GeneratedComic
	Outcome domain.Outcome `json:"outcome"`
}

func (h *handlers) generateComic(w http.ResponseWriter, r *http.Request) {
	var req generateComicRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, err, false)
			return
		}
	}
	if req.Panels < 0 {
		writeError(w, http.StatusBadRequest, "panels must not be negative")
		return
	}

	comic, outcome, err := h.comics.Generate(r.Context(), chi.URLParam(r, "comicID"), runner.GenerateOptions{
		Panels: req.Panels,
		Style:  req.Style,
	})
	if err != nil {
		respondError(w, r, err, true)
		return
	}
	writeJSON(w, http.StatusOK, generateComicResponse{GeneratedComic: comic, Outcome: outcome})
}

type regeneratePanelRequest struct {
	Description string `json:"description"`
	Style       string `json:"style"`
}

func (h *handlers) regeneratePanel(w http.ResponseWriter, r *http.Request) {
	panelNumber, err := strconv.Atoi(chi.URLParam(r, "panelNumber"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "panelNumber must be an integer")
		return
	}
	var req regeneratePanelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, false)
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	comic, err := h.comics.RegeneratePanel(r.Context(), chi.URLParam(r, "comicID"), panelNumber, req.Description, req.Style)
	if err != nil {
		respondError(w, r, err, true)
		return
	}
	writeJSON(w, http.StatusOK, generateComicResponse{GeneratedComic: comic, Outcome: comic.Outcome()})
}

// --- Orders ---

type placeOrderRequest struct {
	UserID          string                 `json:"userId"`
	ComicID         string                 `json:"comicId"`
	Plan            string                 `json:"plan"`
	Amount          float64                `json:"amount"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
}

func (h *handlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, false)
		return
	}

	order, err := h.comics.PlaceOrder(r.Context(), runner.OrderInput(req))
	if err != nil {
		respondError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.comics.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *handlers) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.comics.ListOrders(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, err, false)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}
