package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/menu/db"
	"ms-ordering/internal/models"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/utils"
)

type Service struct {
	DB     *db.DB
	Logger *logger.Logger
	now    func() time.Time
}

func NewService(store *db.DB, log *logger.Logger) *Service {
	return &Service{DB: store, Logger: log, now: func() time.Time { return time.Now().UTC() }}
}

// List returns the available items shown on channel. An empty channel
// means web.
func (s *Service) List(ctx context.Context, channel string) ([]models.MenuItem, error) {
	channel = strings.ToLower(strings.TrimSpace(channel))
	if channel == "" {
		channel = ChannelWeb
	}
	if !IsChannel(channel) {
		return nil, utils.NewValidationError("channel", fmt.Sprintf("unknown channel %q", channel))
	}

	items, err := s.DB.AvailableItems(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.MenuItem, 0, len(items))
	for _, it := range items {
		if VisibleOn(it, channel) {
			out = append(out, it)
		}
	}
	return out, nil
}

type CreateItemRequest struct {
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	IsAvailable        *bool           `json:"is_available"`
	VisibilityChannels []string        `json:"visibility_channels"`
}

func (s *Service) CreateItem(ctx context.Context, p *rbac.Principal, req CreateItemRequest) (*models.MenuItem, error) {
	if err := rbac.Require(p, rbac.PermMenuManage); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, utils.NewValidationError("name", "name is required")
	}
	if !req.Price.IsPositive() {
		return nil, utils.NewValidationError("price", "price must be positive")
	}

	item := &models.MenuItem{
		ID:                 utils.GenerateID(),
		Name:               name,
		Description:        strings.TrimSpace(req.Description),
		Price:              req.Price.Round(2),
		IsAvailable:        req.IsAvailable == nil || *req.IsAvailable,
		VisibilityChannels: NormalizeVisibilityChannels(req.VisibilityChannels),
		CreatedAt:          s.now(),
	}
	if err := s.DB.InsertItem(ctx, item); err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("INSERT", "menu_items", fmt.Sprintf("%s %q channels=%v by %s", item.ID, item.Name, item.VisibilityChannels, p.UserID))
	return item, nil
}

type UpdateItemRequest struct {
	IsAvailable        *bool    `json:"is_available"`
	VisibilityChannels []string `json:"visibility_channels"`
}

// UpdateItem toggles availability and/or replaces the channel list. A nil
// field is left unchanged.
func (s *Service) UpdateItem(ctx context.Context, p *rbac.Principal, id string, req UpdateItemRequest) (*models.MenuItem, error) {
	if err := rbac.Require(p, rbac.PermMenuManage); err != nil {
		return nil, err
	}
	item, err := s.DB.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	var cols []string
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
		cols = append(cols, "is_available")
	}
	if req.VisibilityChannels != nil {
		item.VisibilityChannels = NormalizeVisibilityChannels(req.VisibilityChannels)
		cols = append(cols, "visibility_channels")
	}
	if len(cols) == 0 {
		return item, nil
	}
	if err := s.DB.UpdateItem(ctx, item, cols...); err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("UPDATE", "menu_items", fmt.Sprintf("%s %v by %s", item.ID, cols, p.UserID))
	return item, nil
}
