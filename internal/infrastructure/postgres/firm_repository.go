package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/firmbill-api/internal/domain"
	"github.com/jhoicas/firmbill-api/internal/domain/entity"
	"github.com/jhoicas/firmbill-api/internal/domain/repository"
)

var _ repository.FirmRepository = (*FirmRepo)(nil)

// FirmRepo implementación del puerto FirmRepository sobre PostgreSQL (usable con pool o tx).
type FirmRepo struct {
	q Querier
}

// NewFirmRepository construye el adaptador de persistencia para firmas. Pasar pool o tx (Querier).
func NewFirmRepository(q Querier) *FirmRepo {
	return &FirmRepo{q: q}
}

// Create persiste una nueva firma. El email es único global.
func (r *FirmRepo) Create(firm *entity.Firm) error {
	query := `
		INSERT INTO firms (id, name, email, address, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		firm.ID, firm.Name, firm.Email, nullIfEmpty(firm.Address), nullIfEmpty(firm.Phone),
		firm.CreatedAt, firm.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrFirmEmailExists
		}
		return fmt.Errorf("insert firm: %w", err)
	}
	return nil
}

// GetByID obtiene una firma por ID.
func (r *FirmRepo) GetByID(id string) (*entity.Firm, error) {
	query := `
		SELECT id, name, email, COALESCE(address, ''), COALESCE(phone, ''), created_at, updated_at
		FROM firms WHERE id = $1`
	var f entity.Firm
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&f.ID, &f.Name, &f.Email, &f.Address, &f.Phone, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get firm: %w", err)
	}
	return &f, nil
}

// GetByEmail obtiene una firma por email (único global).
func (r *FirmRepo) GetByEmail(email string) (*entity.Firm, error) {
	query := `
		SELECT id, name, email, COALESCE(address, ''), COALESCE(phone, ''), created_at, updated_at
		FROM firms WHERE email = $1`
	var f entity.Firm
	err := r.q.QueryRow(context.Background(), query, email).Scan(
		&f.ID, &f.Name, &f.Email, &f.Address, &f.Phone, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get firm by email: %w", err)
	}
	return &f, nil
}

// Update actualiza una firma existente.
func (r *FirmRepo) Update(firm *entity.Firm) error {
	query := `
		UPDATE firms SET name = $2, email = $3, address = $4, phone = $5, updated_at = $6
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		firm.ID, firm.Name, firm.Email, nullIfEmpty(firm.Address), nullIfEmpty(firm.Phone), firm.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrFirmEmailExists
		}
		return fmt.Errorf("update firm: %w", err)
	}
	return nil
}
