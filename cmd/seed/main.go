package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/config"
	"ms-ordering/internal/database"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/rbac"
	rbacdb "ms-ordering/internal/rbac/db"
)

const branchID = "demo-branch"

func strPtr(s string) *string { return &s }

func main() {
	reset := flag.Bool("reset", false, "delete existing rows before seeding")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(logger.Options{Service: "ms-ordering-seed", Dir: cfg.Log.Dir, MinLevel: logger.ParseLevel(cfg.Log.Level)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("open: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	ctx := context.Background()
	if *reset {
		if err := database.ClearData(ctx, bunDB); err != nil {
			log.Fatal("SEED", err.Error())
		}
		log.Warn("SEED", "existing data cleared")
	}

	if err := bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return seed(ctx, tx, time.Now().UTC())
	}); err != nil {
		log.Fatal("SEED", err.Error())
	}

	report, err := rbac.MigrateLegacyRoles(ctx, &rbacdb.DB{Bun: bunDB})
	if err != nil {
		log.Fatal("RBAC", err.Error())
	}
	log.Info("SEED", fmt.Sprintf("demo data ready, users assigned: %v", report.UsersAssigned))

	fmt.Println("Dev bearer tokens:")
	for _, id := range []string{"demo-admin", "demo-manager", "demo-waiter", "demo-pastry", "demo-barista"} {
		token, err := auth.GenerateToken(cfg.Auth.JWTSecret, id, cfg.Auth.TokenTTL)
		if err != nil {
			log.Fatal("AUTH", err.Error())
		}
		fmt.Printf("  %-13s %s\n", id, token)
	}
}

func seed(ctx context.Context, db bun.IDB, now time.Time) error {
	price := decimal.RequireFromString

	rows := []interface{}{
		&[]models.PickupLocation{
			{ID: branchID, Name: "Demo Bakery", Address: "1 Amir Temur St", IsActive: true, CreatedAt: now},
		},
		&[]models.DiningTable{
			{ID: "demo-t1", PickupLocationID: branchID, Label: "Table 1", QRToken: "demo-qr-1"},
			{ID: "demo-t2", PickupLocationID: branchID, Label: "Table 2", QRToken: "demo-qr-2"},
			{ID: "demo-t3", PickupLocationID: branchID, Label: "Terrace", QRToken: "demo-qr-3"},
		},
		&[]models.MenuItem{
			{ID: "demo-napoleon", Name: "Napoleon", Price: price("4.50"), IsAvailable: true, VisibilityChannels: []string{"telegram", "web", "qr_menu"}, CreatedAt: now},
			{ID: "demo-medovik", Name: "Medovik", Price: price("4.00"), IsAvailable: true, VisibilityChannels: []string{"web", "qr_menu"}, CreatedAt: now},
			{ID: "demo-latte", Name: "Latte", Price: price("3.00"), IsAvailable: true, VisibilityChannels: []string{"qr_menu"}, CreatedAt: now},
			{ID: "demo-espresso", Name: "Espresso", Price: price("2.00"), IsAvailable: true, VisibilityChannels: []string{"qr_menu"}, CreatedAt: now},
			{ID: "demo-water", Name: "Still water", Price: price("1.00"), IsAvailable: true, VisibilityChannels: []string{"web", "qr_menu"}, CreatedAt: now},
		},
		&[]models.BranchScreen{
			{ID: "demo-floor", PickupLocationID: branchID, Name: "Floor", ScreenType: models.ScreenWaiter, IsActive: true, CreatedAt: now},
			{ID: "demo-pastry-screen", PickupLocationID: branchID, Name: "Pastry", ScreenType: models.ScreenKitchen, IsActive: true, CreatedAt: now},
			{ID: "demo-bar-screen", PickupLocationID: branchID, Name: "Bar", ScreenType: models.ScreenKitchen, IsActive: true, CreatedAt: now},
			{ID: "demo-till", PickupLocationID: branchID, Name: "Till", ScreenType: models.ScreenCashier, IsActive: true, CreatedAt: now},
		},
		// water is routed nowhere and needs no kitchen
		&[]models.BranchScreenMenuItem{
			{BranchScreenID: "demo-pastry-screen", MenuItemID: "demo-napoleon"},
			{BranchScreenID: "demo-pastry-screen", MenuItemID: "demo-medovik"},
			{BranchScreenID: "demo-bar-screen", MenuItemID: "demo-latte"},
			{BranchScreenID: "demo-bar-screen", MenuItemID: "demo-espresso"},
		},
		&[]models.User{
			{ID: "demo-admin", Name: "Admin", LegacyRole: "owner", IsActive: true, CreatedAt: now},
			{ID: "demo-manager", Name: "Manager", LegacyRole: "manager", PickupLocationID: strPtr(branchID), IsActive: true, CreatedAt: now},
			{ID: "demo-waiter", Name: "Waiter", LegacyRole: "waiter", PickupLocationID: strPtr(branchID), IsActive: true, CreatedAt: now},
			{ID: "demo-pastry", Name: "Pastry cook", LegacyRole: "cook", PickupLocationID: strPtr(branchID), IsActive: true, CreatedAt: now},
			{ID: "demo-barista", Name: "Barista", LegacyRole: "barista", PickupLocationID: strPtr(branchID), IsActive: true, CreatedAt: now},
		},
		&[]models.BranchScreenUser{
			{BranchScreenID: "demo-floor", UserID: "demo-waiter"},
			{BranchScreenID: "demo-pastry-screen", UserID: "demo-pastry"},
			{BranchScreenID: "demo-bar-screen", UserID: "demo-barista"},
			{BranchScreenID: "demo-till", UserID: "demo-manager"},
		},
	}

	for _, r := range rows {
		if _, err := db.NewInsert().Model(r).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("seed %T: %w", r, err)
		}
	}
	return nil
}
