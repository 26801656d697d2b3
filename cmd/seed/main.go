// seed inserts a demo church with sample events, inventory and files for local testing.
// Idempotent: skips inserts if the demo church already exists. Pass -admin=<profile id> to make
// an existing profile (created by signing up) the demo church's CHURCH_ADMIN.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	churchdomain "church-portal/internal/church/domain"
	churchrepo "church-portal/internal/church/repository"
	"church-portal/internal/config"
	"church-portal/internal/db"
	profiledomain "church-portal/internal/profile/domain"
	profilerepo "church-portal/internal/profile/repository"
)

const (
	demoChurchID = "5eed0000-0000-4000-8000-000000000001"
	// seedAuthor is recorded as creator of demo rows when no -admin is given.
	seedAuthor = "5eed0000-0000-4000-8000-000000000000"
)

func main() {
	adminID := flag.String("admin", "", "profile id to promote to CHURCH_ADMIN of the demo church")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	churches := churchrepo.NewPostgresChurchRepository(conn)
	existing, err := churches.GetByID(ctx, demoChurchID)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (demo church exists). Skipping inserts.")
	} else if err := seedChurch(ctx, conn, author(*adminID)); err != nil {
		log.Fatalf("seed: %v", err)
	} else {
		log.Println("Seed completed successfully.")
	}

	if *adminID != "" {
		profiles := profilerepo.NewPostgresRepository(conn)
		if err := profiles.Assign(ctx, *adminID, profiledomain.RoleChurchAdmin, demoChurchID); err != nil {
			log.Fatalf("promote %s: %v", *adminID, err)
		}
		fmt.Printf("Profile %s is now CHURCH_ADMIN of %s\n", *adminID, demoChurchID)
	}
}

func author(adminID string) string {
	if adminID != "" {
		return adminID
	}
	return seedAuthor
}

func seedChurch(ctx context.Context, conn *sql.DB, createdBy string) error {
	churches := churchrepo.NewPostgresChurchRepository(conn)
	events := churchrepo.NewPostgresEventRepository(conn)
	inventory := churchrepo.NewPostgresInventoryRepository(conn)
	files := churchrepo.NewPostgresFileRepository(conn)

	now := time.Now().UTC()
	church := &churchdomain.Church{
		ID:           demoChurchID,
		Name:         "Grace Community Church",
		Slug:         churchdomain.Slugify("Grace Community Church"),
		Address:      "100 Main Street",
		City:         "Springfield",
		State:        "IL",
		Zip:          "62701",
		Phone:        "(217) 555-0100",
		Email:        "office@grace.example.com",
		Website:      "https://grace.example.com",
		Denomination: "Non-denominational",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := churches.Create(ctx, church); err != nil {
		return fmt.Errorf("create church: %w", err)
	}

	sunday := nextWeekday(now, time.Sunday).Add(10 * time.Hour)
	sundayEnd := sunday.Add(90 * time.Minute)
	wednesday := nextWeekday(now, time.Wednesday).Add(19 * time.Hour)
	for _, e := range []*churchdomain.Event{
		{Title: "Sunday Worship", Type: churchdomain.EventService, Location: "Sanctuary", StartTime: sunday, EndTime: &sundayEnd, Visibility: churchdomain.VisibilityPublic},
		{Title: "Midweek Bible Study", Type: churchdomain.EventBibleStudy, Location: "Room 2", StartTime: wednesday, Visibility: churchdomain.VisibilityMembers},
		{Title: "Elders Meeting", Type: churchdomain.EventMeeting, Location: "Office", StartTime: wednesday.Add(24 * time.Hour), Visibility: churchdomain.VisibilityAdmin},
	} {
		e.ID, e.ChurchID, e.CreatedBy, e.CreatedAt = uuid.NewString(), demoChurchID, createdBy, now
		if err := events.Create(ctx, e); err != nil {
			return fmt.Errorf("create event %q: %w", e.Title, err)
		}
	}

	piano := int64(450000)
	for _, item := range []*churchdomain.InventoryItem{
		{Name: "Grand Piano", Category: "Instruments", Quantity: 1, Location: "Sanctuary", Condition: churchdomain.ConditionGood, ValueCents: &piano},
		{Name: "Folding Chairs", Category: "Furniture", Quantity: 120, Unit: "chairs", Location: "Fellowship Hall", Condition: churchdomain.ConditionFair},
	} {
		item.ID, item.ChurchID, item.CreatedAt = uuid.NewString(), demoChurchID, now
		if err := inventory.Create(ctx, item); err != nil {
			return fmt.Errorf("create inventory %q: %w", item.Name, err)
		}
	}

	bulletin := int64(248_000)
	for _, f := range []*churchdomain.File{
		{Name: "Bulletins", Kind: churchdomain.KindFolder, Category: "Worship"},
		{Name: "bulletin-this-week.pdf", Kind: churchdomain.KindDocument, Category: "Worship", SizeBytes: &bulletin},
	} {
		f.ID, f.ChurchID, f.UploadedBy, f.CreatedAt = uuid.NewString(), demoChurchID, createdBy, now
		if err := files.Create(ctx, f); err != nil {
			return fmt.Errorf("create file %q: %w", f.Name, err)
		}
	}
	return nil
}

// nextWeekday returns midnight UTC of the next day after t that falls on wd.
func nextWeekday(t time.Time, wd time.Weekday) time.Time {
	d := int(wd-t.Weekday()+7) % 7
	if d == 0 {
		d = 7
	}
	y, m, day := t.AddDate(0, 0, d).Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
