package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"fitlesson-settlement/internal/config"
	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/repository"
	pg "fitlesson-settlement/internal/infra/db/postgres"
)

// Seeds a pair of demo trainers with settled lessons so the dashboard,
// payout and cancellation flows have data to work against.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	lessonRepo := pg.NewLessonRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)

	seed := []struct {
		Trainer string
		Client  string
		Amount  int64
		Net     int64
		StartIn time.Duration
		Settled bool
	}{
		{"f3b1c6de-0000-4000-8000-000000000001", "a1d2e3f4-0000-4000-8000-000000000011", 10000, 9500, 72 * time.Hour, true},
		{"f3b1c6de-0000-4000-8000-000000000001", "a1d2e3f4-0000-4000-8000-000000000012", 5000, 4800, 96 * time.Hour, true},
		{"f3b1c6de-0000-4000-8000-000000000002", "a1d2e3f4-0000-4000-8000-000000000013", 8000, 7700, 48 * time.Hour, true},
		{"f3b1c6de-0000-4000-8000-000000000002", "a1d2e3f4-0000-4000-8000-000000000014", 12000, 11500, 24 * time.Hour, false},
	}

	now := time.Now()
	for i, s := range seed {
		lesson := &model.Lesson{
			ID:        uuid.NewString(),
			TrainerID: s.Trainer,
			Price:     s.Amount,
			StartAt:   now.Add(s.StartIn),
			Status:    model.LessonStatusScheduled,
		}
		if err := lessonRepo.Save(ctx, repository.NoTX, lesson); err != nil {
			log.Fatalf("save lesson %d: %v", i, err)
		}

		p, err := model.NewPayment(uuid.NewString(), lesson.ID, s.Client, s.Trainer, s.Amount)
		if err != nil {
			log.Fatalf("new payment %d: %v", i, err)
		}
		if s.Settled {
			p.NetAmount = s.Net
			p.Status = model.PaymentStatusPaid
			paidAt := now
			p.PaidAt = &paidAt
		}
		if err := paymentRepo.Save(ctx, repository.NoTX, p); err != nil {
			log.Fatalf("save payment %d: %v", i, err)
		}
		fmt.Printf("seeded: lesson=%s payment=%s trainer=%s amount=%d settled=%v\n",
			lesson.ID, p.ID, s.Trainer, s.Amount, s.Settled)
	}

	fmt.Println("Seeding complete.")
}
