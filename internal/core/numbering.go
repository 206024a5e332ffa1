package core

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	minGeneratedNumber = 1000
	maxGeneratedNumber = 9999
	maxNumberAttempts  = 20
)

// NumberingService hands out invoice numbers. Uniqueness per owner is ultimately
// enforced by the invoices (owner_id, invoice_number) unique index; the lookup here
// lets clients pick a free number before submitting.
type NumberingService interface {
	// IsUnique reports whether number is unused among the owner's invoices.
	IsUnique(ctx context.Context, ownerID int, number int) (bool, error)
	// Generate returns an unused random number in [1000, 9999].
	Generate(ctx context.Context, ownerID int) (int, error)
}

type numberingService struct {
	pool *pgxpool.Pool
	rand func() int
}

func NewNumberingService(pool *pgxpool.Pool) NumberingService {
	return &numberingService{pool: pool, rand: randomInvoiceNumber}
}

func randomInvoiceNumber() int {
	return minGeneratedNumber + rand.IntN(maxGeneratedNumber-minGeneratedNumber+1)
}

func (s *numberingService) IsUnique(ctx context.Context, ownerID int, number int) (bool, error) {
	if number < 1 {
		return false, newValidationError("invoice_number", "Minimum invoice number of 1")
	}
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE owner_id = $1 AND invoice_number = $2)`,
		ownerID, number,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check invoice number: %w", err)
	}
	return !exists, nil
}

func (s *numberingService) Generate(ctx context.Context, ownerID int) (int, error) {
	return generateNumber(ctx, s.rand, func(n int) (bool, error) {
		return s.IsUnique(ctx, ownerID, n)
	})
}

// generateNumber draws candidates until isUnique accepts one or the attempt budget runs out.
func generateNumber(ctx context.Context, next func() int, isUnique func(int) (bool, error)) (int, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n := next()
		ok, err := isUnique(n)
		if err != nil {
			return 0, err
		}
		if ok {
			return n, nil
		}
	}
	return 0, fmt.Errorf("failed to find a free invoice number after %d attempts", maxNumberAttempts)
}
