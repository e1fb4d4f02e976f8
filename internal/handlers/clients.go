package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/avc/commerce-backoffice/internal/domain"
)

// ClientService определяет методы работы с клиентами
type ClientService interface {
	Create(ctx context.Context, c *domain.Client) (*domain.Client, error)
	Update(ctx context.Context, c *domain.Client) (*domain.Client, error)
	Get(ctx context.Context, id int64) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
	Orders(ctx context.Context, clientID int64) ([]*domain.Order, error)
}

type ClientsHandler struct {
	clientService ClientService
	logger        *zap.Logger
}

func NewClientsHandler(clientService ClientService, logger *zap.Logger) *ClientsHandler {
	return &ClientsHandler{
		clientService: clientService,
		logger:        logger,
	}
}

func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c domain.Client
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	created, err := h.clientService.Create(r.Context(), &c)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, created)
}

func (h *ClientsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var c domain.Client
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	c.ID = id

	updated, err := h.clientService.Update(r.Context(), &c)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, updated)
}

func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	client, err := h.clientService.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, client)
}

func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clientService.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, clients)
}

// Orders возвращает заказы клиента
func (h *ClientsHandler) Orders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	orders, err := h.clientService.Orders(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, orders)
}
