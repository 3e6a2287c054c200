package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"plycraft.dev/backend/internal/catalog"
	"plycraft.dev/backend/internal/core"
	"plycraft.dev/backend/internal/mailer"
	"plycraft.dev/backend/internal/store"
)

type Handler struct {
	catalog    *catalog.Reader
	store      *store.SQLiteStore
	mailer     *mailer.Mailer
	chat       *core.ChatService
	exportFile string
	logger     zerolog.Logger
}

func NewHandler(cat *catalog.Reader, st *store.SQLiteStore, ml *mailer.Mailer, chat *core.ChatService, exportFile string, logger zerolog.Logger) *Handler {
	return &Handler{
		catalog:    cat,
		store:      st,
		mailer:     ml,
		chat:       chat,
		exportFile: exportFile,
		logger:     logger,
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError mirrors the {"detail": ...} error payload the storefront
// frontend already consumes.
func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list products")
		respondError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Product id must be an integer")
		return
	}

	product, err := h.catalog.Get(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error().Err(err).Int("product_id", id).Msg("failed to read product")
		respondError(w, http.StatusInternalServerError, "Failed to load product")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(product)
}

type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (h *Handler) NewsletterSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "firstName, lastName and email are required")
		return
	}

	id, err := h.store.CreateSignup(req.FirstName, req.LastName, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			respondError(w, http.StatusBadRequest, "Email already signed up")
			return
		}
		h.logger.Error().Err(err).Msg("failed to save newsletter signup")
		respondError(w, http.StatusInternalServerError, "Failed to save signup")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (h *Handler) NewsletterExport(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.ExportToFile(h.exportFile)
	if err != nil {
		h.logger.Error().Err(err).Str("file", h.exportFile).Msg("newsletter export failed")
		respondError(w, http.StatusInternalServerError, "Failed to export data: "+err.Error())
		return
	}

	h.logger.Info().Int("rows", count).Str("file", h.exportFile).Msg("newsletter export written")
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "Data exported to " + h.exportFile})
}

type ContactRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Product   string `json:"product"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

func (h *Handler) ContactSend(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Message == "" {
		respondError(w, http.StatusBadRequest, "firstName, lastName, email and message are required")
		return
	}

	err := h.mailer.Send(mailer.ContactMessage{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Product:   req.Product,
		Subject:   req.Subject,
		Message:   req.Message,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("from", req.Email).Msg("contact mail dispatch failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req core.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.chat.Complete(r.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrEmptyMessages) || errors.Is(err, core.ErrInvalidRole) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("chat completion failed")
		respondError(w, http.StatusInternalServerError, "Failed to process chat request")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
