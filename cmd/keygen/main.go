// Command keygen mints a batch of license keys without going through the
// API, for operators preparing offline distribution. Records are printed to
// stdout and inserted when -dsn is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/adapter/repo"
	"server/internal/domain"
	"server/internal/license"
)

func main() {
	plan := flag.String("plan", "Classic", "plan to mint keys for (Classic or Pro)")
	count := flag.Int("count", 1, "number of keys to mint (1-100)")
	days := flag.Int("days", 30, "expiration in days from now (1-365)")
	dsn := flag.String("dsn", "", "postgres DSN; omit to only print keys")
	flag.Parse()

	p := domain.Plan(*plan)
	if !p.Paid() {
		log.Fatalf("plan %q has no license keys", *plan)
	}
	if *count < license.MinBatchSize || *count > license.MaxBatchSize {
		log.Fatalf("count must be between %d and %d", license.MinBatchSize, license.MaxBatchSize)
	}
	if *days < license.MinExpirationDays || *days > license.MaxExpirationDays {
		log.Fatalf("days must be between %d and %d", license.MinExpirationDays, license.MaxExpirationDays)
	}

	if *dsn == "" {
		for i := 0; i < *count; i++ {
			key, err := license.GenerateKey(p)
			if err != nil {
				log.Fatalf("generate key: %v", err)
			}
			fmt.Println(key)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, *dsn)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	now := time.Now()
	expiresAt := now.AddDate(0, 0, *days)
	licenses := repo.NewLicenseRepository(pool)
	for i := 0; i < *count; i++ {
		key, err := license.GenerateKey(p)
		if err != nil {
			log.Fatalf("generate key: %v", err)
		}
		record := &domain.LicenseRecord{
			ID:        uuid.NewString(),
			Key:       key,
			Plan:      p,
			Status:    domain.LicenseStatusActive,
			CreatedAt: now,
			ExpiresAt: &expiresAt,
		}
		if err := licenses.Create(ctx, record); err != nil {
			log.Fatalf("insert license: %v", err)
		}
		fmt.Println(key)
	}
}
