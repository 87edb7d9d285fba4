package usecase

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/firmbill-api/internal/application/dto"
	"github.com/jhoicas/firmbill-api/internal/domain"
	"github.com/jhoicas/firmbill-api/internal/domain/entity"
	"github.com/jhoicas/firmbill-api/internal/domain/repository"
)

// UserUseCase gestión de cuentas dentro de una firma. Los mutadores asumen que
// la cadena de políticas ya verificó el rol owner; aquí se aplican las reglas
// de tenant y los invariantes de dominio (auto-borrado, unicidad de email).
type UserUseCase struct {
	repo repository.UserRepository
}

// NewUserUseCase construye el caso de uso.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo}
}

// Create crea una cuenta en la firma del caller. El firm_id sale siempre de la
// identidad resuelta, nunca del body: no es posible crear cuentas en otra firma.
func (uc *UserUseCase) Create(firmID string, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if !entity.ValidRole(in.Role) {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetByEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String(),
		FirmID:       firmID,
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         in.Name,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// List lista las cuentas de la firma con paginación.
func (uc *UserUseCase) List(firmID string, limit, offset int) (*dto.UserListResponse, error) {
	list, err := uc.repo.ListByFirm(firmID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *toUserResponse(u))
	}
	return &dto.UserListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina una cuenta de la firma del caller. Se carga primero el target
// para verificar el tenant antes de mutar; una cuenta nunca puede borrarse a
// sí misma.
func (uc *UserUseCase) Delete(firmID, callerID, targetID string) error {
	target, err := uc.repo.GetByID(targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return domain.ErrNotFound
	}
	if target.FirmID != firmID {
		return domain.ErrForbidden
	}
	if target.ID == callerID {
		return domain.ErrSelfDeletion
	}
	return uc.repo.Delete(targetID)
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		FirmID:    u.FirmID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
