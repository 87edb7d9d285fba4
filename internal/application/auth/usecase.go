package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/firmbill-api/internal/application/dto"
	"github.com/jhoicas/firmbill-api/internal/domain"
	"github.com/jhoicas/firmbill-api/internal/domain/entity"
	"github.com/jhoicas/firmbill-api/internal/domain/repository"
	"github.com/jhoicas/firmbill-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int // 10080 = 7 días
	Issuer     string
}

// Identity identidad resuelta de una petición: cuenta, firma y rol leídos de
// la DB, no del token. Es la única resolución por petición; todas las puertas
// de la cadena de políticas consumen este valor.
type Identity struct {
	UserID string
	FirmID string
	Role   string
}

// AuthUseCase casos de uso de autenticación: alta de firma, login y
// resolución de identidad por petición.
type AuthUseCase struct {
	userRepo repository.UserRepository
	firmRepo repository.FirmRepository
	txRunner SignupTxRunner
	jwtCfg   JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, firmRepo repository.FirmRepository, txRunner SignupTxRunner, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, firmRepo: firmRepo, txRunner: txRunner, jwtCfg: jwtCfg}
}

// SignUpFirm crea la firma y su primer owner como una unidad atómica y emite
// el token inicial. Si el email de la firma o del owner ya existe, no se
// escribe nada.
func (uc *AuthUseCase) SignUpFirm(ctx context.Context, in dto.SignUpFirmRequest) (*dto.AuthResponse, error) {
	existing, err := uc.firmRepo.GetByEmail(in.FirmEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrFirmEmailExists
	}
	existingUser, err := uc.userRepo.GetByEmail(in.OwnerEmail)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, domain.ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	firm := &entity.Firm{
		ID:        uuid.New().String(),
		Name:      in.FirmName,
		Email:     in.FirmEmail,
		Address:   in.FirmAddress,
		Phone:     in.FirmPhone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := &entity.User{
		ID:           uuid.New().String(),
		FirmID:       firm.ID,
		Email:        in.OwnerEmail,
		PasswordHash: string(hash),
		Name:         in.OwnerName,
		Role:         entity.RoleOwner,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Firma y owner en la misma transacción: el chequeo de unicidad de arriba
	// es cortesía, la constraint única de la DB dentro de la tx es la garantía.
	err = uc.txRunner.RunSignup(ctx, func(firmRepo repository.FirmRepository, userRepo repository.UserRepository) error {
		if err := firmRepo.Create(firm); err != nil {
			return err
		}
		return userRepo.Create(owner)
	})
	if err != nil {
		return nil, err
	}

	token, err := jwt.Generate(uc.jwtCfg.Secret, owner.ID, firm.ID, owner.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token: token,
		User:  *toUserResponse(owner),
		Firm:  toFirmResponse(firm),
	}, nil
}

// Login verifica email/password, genera JWT y retorna token + usuario + firma.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := uc.userRepo.GetByEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	firm, err := uc.firmRepo.GetByID(user.FirmID)
	if err != nil {
		return nil, err
	}
	if firm == nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.FirmID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token: token,
		User:  *toUserResponse(user),
		Firm:  toFirmResponse(firm),
	}, nil
}

// Resolve carga la cuenta autoritativa desde storage para un claim verificado.
// Defiende contra tokens de cuentas borradas y contra cambios de rol
// posteriores a la emisión: el rol que vale es el de la DB, y el firm_id del
// token debe coincidir con el de la fila. Devuelve nil si no hay identidad.
func (uc *AuthUseCase) Resolve(ctx context.Context, userID, firmID string) (*Identity, error) {
	user, err := uc.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.FirmID != firmID {
		return nil, nil
	}
	return &Identity{UserID: user.ID, FirmID: user.FirmID, Role: user.Role}, nil
}

// Me devuelve la cuenta actual.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return toUserResponse(user), nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
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

func toFirmResponse(f *entity.Firm) dto.FirmResponse {
	return dto.FirmResponse{
		ID:        f.ID,
		Name:      f.Name,
		Email:     f.Email,
		Address:   f.Address,
		Phone:     f.Phone,
		CreatedAt: f.CreatedAt,
	}
}
