package repository

import "github.com/jhoicas/firmbill-api/internal/domain/entity"

// FirmRepository define el puerto de persistencia para Firm (DIP).
type FirmRepository interface {
	Create(firm *entity.Firm) error
	GetByID(id string) (*entity.Firm, error)
	GetByEmail(email string) (*entity.Firm, error)
	Update(firm *entity.Firm) error
}
