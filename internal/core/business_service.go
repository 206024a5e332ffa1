package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BusinessInput is the editable part of a business profile.
type BusinessInput struct {
	Name         string `json:"business_name" validate:"required" jsonschema:"required"`
	Type         string `json:"business_type" validate:"required" jsonschema:"required"`
	Address      string `json:"address" validate:"required" jsonschema:"required"`
	Phone        string `json:"phone" validate:"required" jsonschema:"required"`
	Email        string `json:"email" validate:"required,email" jsonschema:"required,format=email"`
	EIN          string `json:"ein,omitempty" jsonschema_description:"Employer Identification Number"`
	VATNumber    string `json:"vat_number,omitempty"`
	LogoURL      string `json:"logo_url,omitempty" validate:"omitempty,url" jsonschema:"format=uri"`
	ReturnPolicy string `json:"return_policy,omitempty"`
}

// BusinessService manages the one-per-owner business profile.
type BusinessService interface {
	GetBusiness(ctx context.Context, ownerID int) (*Business, error)
	// SaveBusiness creates the owner's profile or replaces it.
	SaveBusiness(ctx context.Context, ownerID int, in BusinessInput) (*Business, error)
}

type businessService struct {
	pool *pgxpool.Pool
}

func NewBusinessService(pool *pgxpool.Pool) BusinessService {
	return &businessService{pool: pool}
}

const businessColumns = `id, owner_id, business_name, business_type, address, phone, email,
	ein, vat_number, logo_url, return_policy, created_at, updated_at`

func scanBusiness(row pgx.Row) (*Business, error) {
	b := &Business{}
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Type, &b.Address, &b.Phone, &b.Email,
		&b.EIN, &b.VATNumber, &b.LogoURL, &b.ReturnPolicy, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (s *businessService) GetBusiness(ctx context.Context, ownerID int) (*Business, error) {
	b, err := scanBusiness(s.pool.QueryRow(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE owner_id = $1`, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "business for owner", ID: strconv.Itoa(ownerID)}
		}
		return nil, fmt.Errorf("failed to fetch business: %w", err)
	}
	return b, nil
}

func (s *businessService) SaveBusiness(ctx context.Context, ownerID int, in BusinessInput) (*Business, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	b, err := scanBusiness(s.pool.QueryRow(ctx, `
		INSERT INTO businesses (id, owner_id, business_name, business_type, address, phone, email,
		                        ein, vat_number, logo_url, return_policy)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (owner_id) DO UPDATE
		SET business_name = EXCLUDED.business_name,
		    business_type = EXCLUDED.business_type,
		    address       = EXCLUDED.address,
		    phone         = EXCLUDED.phone,
		    email         = EXCLUDED.email,
		    ein           = EXCLUDED.ein,
		    vat_number    = EXCLUDED.vat_number,
		    logo_url      = EXCLUDED.logo_url,
		    return_policy = EXCLUDED.return_policy,
		    updated_at    = now()
		RETURNING `+businessColumns,
		uuid.NewString(), ownerID, in.Name, in.Type, in.Address, in.Phone, in.Email,
		in.EIN, in.VATNumber, in.LogoURL, in.ReturnPolicy,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to save business: %w", err)
	}
	return b, nil
}
