package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avc/commerce-backoffice/internal/domain"
)

// ClientService предоставляет операции с клиентами
type ClientService struct {
	clientRepo domain.ClientRepository
	orderRepo  domain.OrderRepository
}

// NewClientService создает новый ClientService
func NewClientService(clientRepo domain.ClientRepository, orderRepo domain.OrderRepository) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		orderRepo:  orderRepo,
	}
}

func validateClient(c *domain.Client) error {
	if c.Name == "" {
		return domain.NewValidationError("name", "name is required")
	}
	if c.Email == "" || !strings.Contains(c.Email, "@") {
		return domain.NewValidationError("email", "valid email is required")
	}
	if c.Tier == "" {
		c.Tier = domain.TierBasic
	}
	if !c.Tier.Valid() {
		return domain.NewValidationError("tier", fmt.Sprintf("unknown tier %q", c.Tier))
	}
	return nil
}

// Create создает клиента
func (s *ClientService) Create(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	if err := validateClient(c); err != nil {
		return nil, err
	}

	created, err := s.clientRepo.Create(ctx, c)
	if err != nil {
		if errors.Is(err, domain.ErrClientExists) {
			return nil, err
		}
		return nil, fmt.Errorf("client service: failed to create client: %w", err)
	}

	return created, nil
}

// Update обновляет имя, email и уровень клиента
func (s *ClientService) Update(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	if err := validateClient(c); err != nil {
		return nil, err
	}

	updated, err := s.clientRepo.Update(ctx, c)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) || errors.Is(err, domain.ErrClientExists) {
			return nil, err
		}
		return nil, fmt.Errorf("client service: failed to update client %d: %w", c.ID, err)
	}

	return updated, nil
}

// Get получает клиента по ID
func (s *ClientService) Get(ctx context.Context, id int64) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("client service: failed to get client %d: %w", id, err)
	}

	return client, nil
}

// List получает всех клиентов
func (s *ClientService) List(ctx context.Context) ([]*domain.Client, error) {
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("client service: failed to list clients: %w", err)
	}
	return clients, nil
}

// Orders получает заказы клиента
func (s *ClientService) Orders(ctx context.Context, clientID int64) ([]*domain.Order, error) {
	if _, err := s.clientRepo.GetByID(ctx, clientID); err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("client service: failed to get client %d: %w", clientID, err)
	}

	orders, err := s.orderRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("client service: failed to list orders for client %d: %w", clientID, err)
	}

	return orders, nil
}
