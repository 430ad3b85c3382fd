// Package screen manages branch screens: which kitchen screen cooks which
// menu items and which staff members work each screen.
package screen

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/screen/db"
	"ms-ordering/internal/utils"
)

var ErrRoutingNotKitchen = utils.NewValidationError("screen_type", "menu items can only be routed to kitchen screens")

type Service struct {
	DB     *db.DB
	Logger *logger.Logger
	now    func() time.Time
}

func NewService(store *db.DB, log *logger.Logger) *Service {
	return &Service{DB: store, Logger: log, now: func() time.Time { return time.Now().UTC() }}
}

// Detail is a screen with its routing and assignments.
type Detail struct {
	models.BranchScreen
	MenuItemIDs []string `json:"menu_item_ids"`
	UserIDs     []string `json:"user_ids"`
}

type CreateRequest struct {
	BranchID   string            `json:"pickup_location_id"`
	Name       string            `json:"name"`
	ScreenType models.ScreenType `json:"screen_type"`
}

func (s *Service) Create(ctx context.Context, p *rbac.Principal, req CreateRequest) (*models.BranchScreen, error) {
	if err := rbac.Require(p, rbac.PermScreensManage); err != nil {
		return nil, err
	}
	if err := rbac.RequireBranch(p, req.BranchID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, utils.NewValidationError("name", "name is required")
	}
	if !req.ScreenType.Valid() {
		return nil, utils.NewValidationError("screen_type", "screen type must be waiter, kitchen or cashier")
	}
	loc, err := s.DB.GetPickupLocation(ctx, req.BranchID)
	if errors.Is(err, utils.ErrNotFound) || (err == nil && !loc.IsActive) {
		return nil, utils.NewValidationError("pickup_location_id", "unknown or inactive pickup location")
	}
	if err != nil {
		return nil, err
	}

	screen := &models.BranchScreen{
		ID:               utils.GenerateID(),
		PickupLocationID: req.BranchID,
		Name:             name,
		ScreenType:       req.ScreenType,
		IsActive:         true,
		CreatedAt:        s.now(),
	}
	if err := s.DB.InsertScreen(ctx, screen); err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("INSERT", "branch_screens", fmt.Sprintf("%s %s/%s by %s", screen.ID, screen.ScreenType, screen.Name, p.UserID))
	return screen, nil
}

// manageable loads a screen the principal may change.
func (s *Service) manageable(ctx context.Context, p *rbac.Principal, screenID string) (*models.BranchScreen, error) {
	if err := rbac.Require(p, rbac.PermScreensManage); err != nil {
		return nil, err
	}
	screen, err := s.DB.GetScreen(ctx, screenID)
	if err != nil {
		return nil, err
	}
	if err := rbac.RequireBranch(p, screen.PickupLocationID); err != nil {
		return nil, err
	}
	return screen, nil
}

func (s *Service) SetActive(ctx context.Context, p *rbac.Principal, screenID string, active bool) (*models.BranchScreen, error) {
	screen, err := s.manageable(ctx, p, screenID)
	if err != nil {
		return nil, err
	}
	screen.IsActive = active
	if err := s.DB.UpdateScreen(ctx, screen, "is_active"); err != nil {
		return nil, err
	}
	return screen, nil
}

// SetRouting replaces the menu items a kitchen screen receives. Orders
// already confirmed keep the rows they were given.
func (s *Service) SetRouting(ctx context.Context, p *rbac.Principal, screenID string, menuItemIDs []string) (*Detail, error) {
	screen, err := s.manageable(ctx, p, screenID)
	if err != nil {
		return nil, err
	}
	if screen.ScreenType != models.ScreenKitchen {
		return nil, ErrRoutingNotKitchen
	}

	ids := dedupe(menuItemIDs)
	n, err := s.DB.CountMenuItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	if n != len(ids) {
		return nil, utils.NewValidationError("menu_item_ids", "unknown menu item in routing")
	}

	err = s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
		return tx.ReplaceMenuItems(ctx, screenID, ids)
	})
	if err != nil {
		return nil, err
	}
	s.Logger.LogKitchen(screenID, "-", fmt.Sprintf("routing set to %d items by %s", len(ids), p.UserID))
	return s.detail(ctx, *screen)
}

// AssignUsers replaces the staff assigned to a screen. Users must be active
// and either belong to the screen's branch or have no branch.
func (s *Service) AssignUsers(ctx context.Context, p *rbac.Principal, screenID string, userIDs []string) (*Detail, error) {
	screen, err := s.manageable(ctx, p, screenID)
	if err != nil {
		return nil, err
	}

	ids := dedupe(userIDs)
	users, err := s.DB.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, utils.NewValidationError("user_ids", "unknown user")
	}
	for _, u := range users {
		if !u.IsActive {
			return nil, utils.NewValidationError("user_ids", fmt.Sprintf("user %s is inactive", u.ID))
		}
		if u.PickupLocationID != nil && *u.PickupLocationID != screen.PickupLocationID {
			return nil, utils.NewValidationError("user_ids", fmt.Sprintf("user %s works at another branch", u.ID))
		}
	}

	err = s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
		return tx.ReplaceUsers(ctx, screenID, ids)
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("SCREEN", fmt.Sprintf("%s assigned %v by %s", screenID, ids, p.UserID))
	return s.detail(ctx, *screen)
}

// List returns every screen of a branch with routing and assignments.
func (s *Service) List(ctx context.Context, p *rbac.Principal, branchID string) ([]Detail, error) {
	if err := rbac.Require(p, rbac.PermOrdersView); err != nil {
		return nil, err
	}
	if err := rbac.RequireBranch(p, branchID); err != nil {
		return nil, err
	}
	screens, err := s.DB.ScreensForBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, screens)
}

// Mine lists the active screens the principal is assigned to.
func (s *Service) Mine(ctx context.Context, p *rbac.Principal) ([]models.BranchScreen, error) {
	if p == nil {
		return nil, rbac.ErrNoPrincipal
	}
	screens, err := s.DB.ScreensForUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if screens == nil {
		screens = []models.BranchScreen{}
	}
	return screens, nil
}

func (s *Service) detail(ctx context.Context, screen models.BranchScreen) (*Detail, error) {
	out, err := s.details(ctx, []models.BranchScreen{screen})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *Service) details(ctx context.Context, screens []models.BranchScreen) ([]Detail, error) {
	ids := make([]string, len(screens))
	for i, sc := range screens {
		ids[i] = sc.ID
	}
	items, err := s.DB.MenuItemLinks(ctx, ids)
	if err != nil {
		return nil, err
	}
	users, err := s.DB.UserLinks(ctx, ids)
	if err != nil {
		return nil, err
	}

	routed := make(map[string][]string)
	for _, l := range items {
		routed[l.BranchScreenID] = append(routed[l.BranchScreenID], l.MenuItemID)
	}
	assigned := make(map[string][]string)
	for _, l := range users {
		assigned[l.BranchScreenID] = append(assigned[l.BranchScreenID], l.UserID)
	}

	out := make([]Detail, len(screens))
	for i, sc := range screens {
		d := Detail{BranchScreen: sc, MenuItemIDs: routed[sc.ID], UserIDs: assigned[sc.ID]}
		if d.MenuItemIDs == nil {
			d.MenuItemIDs = []string{}
		}
		if d.UserIDs == nil {
			d.UserIDs = []string{}
		}
		sort.Strings(d.MenuItemIDs)
		sort.Strings(d.UserIDs)
		out[i] = d
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
