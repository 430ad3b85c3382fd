// Package tablesession tracks dine-in guests who scanned a table QR code.
// Sessions start unverified; staff confirm them, but ordering never waits
// for that.
package tablesession

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/tablesession/db"
	"ms-ordering/internal/utils"
)

// DefaultActiveWindow bounds how far back ListUnverified looks.
const DefaultActiveWindow = 6 * time.Hour

type Service struct {
	DB           *db.DB
	Logger       *logger.Logger
	ActiveWindow time.Duration
	now          func() time.Time
}

func NewService(store *db.DB, log *logger.Logger) *Service {
	return &Service{
		DB:           store,
		Logger:       log,
		ActiveWindow: DefaultActiveWindow,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type StartResult struct {
	Session models.TableSession `json:"session"`
	Table   models.DiningTable  `json:"table"`
}

// Start opens a session for the table behind qrToken.
func (s *Service) Start(ctx context.Context, qrToken string) (*StartResult, error) {
	qrToken = strings.TrimSpace(qrToken)
	if qrToken == "" {
		return nil, utils.NewValidationError("qr_token", "qr token is required")
	}
	table, err := s.DB.TableByQRToken(ctx, qrToken)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := models.TableSession{
		ID:            utils.GenerateID(),
		DiningTableID: table.ID,
		SessionToken:  utils.GenerateToken(),
		StartedAt:     now,
		LastSeenAt:    now,
	}
	if err := s.DB.InsertSession(ctx, &session); err != nil {
		return nil, err
	}
	s.Logger.Info("TABLE", fmt.Sprintf("session %s started at table %s (%s)", session.ID, table.Label, table.PickupLocationID))
	return &StartResult{Session: session, Table: *table}, nil
}

// Touch records guest activity on a session.
func (s *Service) Touch(ctx context.Context, token string) (*models.TableSession, error) {
	session, err := s.DB.SessionByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	session.LastSeenAt = s.now()
	if err := s.DB.UpdateSession(ctx, session, "last_seen_at"); err != nil {
		return nil, err
	}
	return session, nil
}

// Verify marks a session as checked by staff. Verifying twice keeps the
// first stamp.
func (s *Service) Verify(ctx context.Context, p *rbac.Principal, sessionID string) (*models.TableSession, error) {
	if err := rbac.Require(p, rbac.PermTablesVerify); err != nil {
		return nil, err
	}
	session, err := s.DB.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	table, err := s.DB.GetTable(ctx, session.DiningTableID)
	if err != nil {
		return nil, err
	}
	if err := rbac.RequireBranch(p, table.PickupLocationID); err != nil {
		return nil, err
	}
	if session.Verified() {
		return session, nil
	}

	now := s.now()
	session.VerifiedAt = &now
	session.VerifiedBy = &p.UserID
	ok, err := s.DB.MarkVerified(ctx, session)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.DB.GetSession(ctx, sessionID)
	}
	s.Logger.Info("TABLE", fmt.Sprintf("session %s at table %s verified by %s", session.ID, table.Label, p.UserID))
	return session, nil
}

type UnverifiedSession struct {
	models.TableSession
	TableLabel string `json:"table_label"`
}

// ListUnverified returns recently active sessions staff have not checked.
func (s *Service) ListUnverified(ctx context.Context, p *rbac.Principal, branchID string) ([]UnverifiedSession, error) {
	if err := rbac.Require(p, rbac.PermTablesVerify); err != nil {
		return nil, err
	}
	if err := rbac.RequireBranch(p, branchID); err != nil {
		return nil, err
	}
	sessions, tables, err := s.DB.UnverifiedSince(ctx, branchID, s.now().Add(-s.ActiveWindow))
	if err != nil {
		return nil, err
	}
	out := make([]UnverifiedSession, len(sessions))
	for i, sess := range sessions {
		out[i] = UnverifiedSession{TableSession: sess, TableLabel: tables[sess.DiningTableID].Label}
	}
	return out, nil
}
