package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/firmbill-api/internal/application/auth"
	"github.com/jhoicas/firmbill-api/internal/application/dto"
	"github.com/jhoicas/firmbill-api/internal/domain"
	"github.com/jhoicas/firmbill-api/internal/domain/entity"
	"github.com/jhoicas/firmbill-api/internal/domain/repository"
	pkgjwt "github.com/jhoicas/firmbill-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeFirmRepo struct {
	firms map[string]*entity.Firm
}

func (r *fakeFirmRepo) Create(f *entity.Firm) error {
	cp := *f
	r.firms[f.ID] = &cp
	return nil
}

func (r *fakeFirmRepo) GetByID(id string) (*entity.Firm, error) {
	return r.firms[id], nil
}

func (r *fakeFirmRepo) GetByEmail(email string) (*entity.Firm, error) {
	for _, f := range r.firms {
		if f.Email == email {
			return f, nil
		}
	}
	return nil, nil
}

func (r *fakeFirmRepo) Update(f *entity.Firm) error {
	r.firms[f.ID] = f
	return nil
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func (r *fakeUserRepo) Create(u *entity.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(id string) (*entity.User, error) { return r.users[id], nil }

func (r *fakeUserRepo) GetByEmail(email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ListByFirm(firmID string, limit, offset int) ([]*entity.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) Delete(id string) error { delete(r.users, id); return nil }

// fakeSignupRunner ejecuta fn sobre los mismos fakes; si fn falla no debe
// quedar nada escrito, igual que el rollback real. Para simularlo toma un
// snapshot y lo restaura.
type fakeSignupRunner struct {
	firms *fakeFirmRepo
	users *fakeUserRepo
	calls int
}

func (r *fakeSignupRunner) RunSignup(_ context.Context, fn func(repository.FirmRepository, repository.UserRepository) error) error {
	r.calls++
	firmSnap := make(map[string]*entity.Firm, len(r.firms.firms))
	for k, v := range r.firms.firms {
		firmSnap[k] = v
	}
	userSnap := make(map[string]*entity.User, len(r.users.users))
	for k, v := range r.users.users {
		userSnap[k] = v
	}
	if err := fn(r.firms, r.users); err != nil {
		r.firms.firms = firmSnap
		r.users.users = userSnap
		return err
	}
	return nil
}

const testSecret = "secret-para-tests"

func newAuthUC(t *testing.T) (*auth.AuthUseCase, *fakeFirmRepo, *fakeUserRepo, *fakeSignupRunner) {
	t.Helper()
	firms := &fakeFirmRepo{firms: make(map[string]*entity.Firm)}
	users := &fakeUserRepo{users: make(map[string]*entity.User)}
	runner := &fakeSignupRunner{firms: firms, users: users}
	uc := auth.NewAuthUseCase(users, firms, runner, auth.JWTConfig{
		Secret:     testSecret,
		ExpMinutes: 60,
		Issuer:     "firmbill-test",
	})
	return uc, firms, users, runner
}

func signupRequest() dto.SignUpFirmRequest {
	return dto.SignUpFirmRequest{
		FirmName:   "Estudio Pérez",
		FirmEmail:  "estudio@perez.com",
		OwnerName:  "Ana Pérez",
		OwnerEmail: "ana@perez.com",
		Password:   "password-segura",
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// SignUpFirm
// ──────────────────────────────────────────────────────────────────────────────

func TestSignUpFirm_CreaFirmaYOwnerYEmiteToken(t *testing.T) {
	uc, firms, users, runner := newAuthUC(t)

	out, err := uc.SignUpFirm(context.Background(), signupRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, runner.calls, "firma y owner deben escribirse en una transacción")
	assert.Len(t, firms.firms, 1)
	assert.Len(t, users.users, 1)

	assert.Equal(t, "owner", out.User.Role, "el primer usuario de la firma es owner")
	assert.Equal(t, out.Firm.ID, out.User.FirmID)

	// El token emitido debe llevar la identidad recién creada.
	userID, firmID, role, err := pkgjwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, userID)
	assert.Equal(t, out.Firm.ID, firmID)
	assert.Equal(t, "owner", role)

	// El hash almacenado verifica contra el password original.
	stored := users.users[out.User.ID]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password-segura")))
}

func TestSignUpFirm_EmailDeFirmaDuplicado_ConflictSinEscrituras(t *testing.T) {
	uc, firms, users, runner := newAuthUC(t)

	_, err := uc.SignUpFirm(context.Background(), signupRequest())
	require.NoError(t, err)

	req := signupRequest()
	req.OwnerEmail = "otra@perez.com"
	_, err = uc.SignUpFirm(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrFirmEmailExists)

	assert.Len(t, firms.firms, 1, "no debe crearse una segunda firma")
	assert.Len(t, users.users, 1)
	assert.Equal(t, 1, runner.calls, "el duplicado se detecta antes de abrir transacción")
}

func TestSignUpFirm_EmailDeOwnerDuplicado_Conflict(t *testing.T) {
	uc, firms, _, _ := newAuthUC(t)

	_, err := uc.SignUpFirm(context.Background(), signupRequest())
	require.NoError(t, err)

	req := signupRequest()
	req.FirmEmail = "otra-firma@perez.com"
	_, err = uc.SignUpFirm(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	assert.Len(t, firms.firms, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Login
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesValidas(t *testing.T) {
	uc, _, _, _ := newAuthUC(t)
	_, err := uc.SignUpFirm(context.Background(), signupRequest())
	require.NoError(t, err)

	out, err := uc.Login(context.Background(), dto.LoginRequest{
		Email:    "ana@perez.com",
		Password: "password-segura",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "ana@perez.com", out.User.Email)
}

func TestLogin_PasswordIncorrecta_Unauthorized(t *testing.T) {
	uc, _, _, _ := newAuthUC(t)
	_, err := uc.SignUpFirm(context.Background(), signupRequest())
	require.NoError(t, err)

	_, err = uc.Login(context.Background(), dto.LoginRequest{
		Email:    "ana@perez.com",
		Password: "equivocada",
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_EmailInexistente_Unauthorized(t *testing.T) {
	uc, _, _, _ := newAuthUC(t)

	_, err := uc.Login(context.Background(), dto.LoginRequest{
		Email:    "nadie@ninguna.com",
		Password: "da igual",
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized,
		"email inexistente y password mala deben ser indistinguibles")
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolve
// ──────────────────────────────────────────────────────────────────────────────

func TestResolve_CuentaExistente(t *testing.T) {
	uc, _, _, _ := newAuthUC(t)
	out, err := uc.SignUpFirm(context.Background(), signupRequest())
	require.NoError(t, err)

	id, err := uc.Resolve(context.Background(), out.User.ID, out.Firm.ID)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "owner", id.Role)
}

func TestResolve_CuentaBorrada_SinIdentidad(t *testing.T) {
	uc, _, users, _ := newAuthUC(t)
	out, err := uc.SignUpFirm(context.Background(), signupRequest())
	require.NoError(t, err)

	require.NoError(t, users.Delete(out.User.ID))

	id, err := uc.Resolve(context.Background(), out.User.ID, out.Firm.ID)
	require.NoError(t, err)
	assert.Nil(t, id, "el token de una cuenta borrada deja de identificar")
}

func TestResolve_FirmIDNoCoincide_SinIdentidad(t *testing.T) {
	uc, _, _, _ := newAuthUC(t)
	out, err := uc.SignUpFirm(context.Background(), signupRequest())
	require.NoError(t, err)

	id, err := uc.Resolve(context.Background(), out.User.ID, "firma-ajena")
	require.NoError(t, err)
	assert.Nil(t, id)
}

// El rol vigente es el de storage, no el del token: si el rol cambia después
// de emitir el token, Resolve devuelve el nuevo.
func TestResolve_RolActualizadoEnStorage(t *testing.T) {
	uc, _, users, _ := newAuthUC(t)
	out, err := uc.SignUpFirm(context.Background(), signupRequest())
	require.NoError(t, err)

	users.users[out.User.ID].Role = "member"

	id, err := uc.Resolve(context.Background(), out.User.ID, out.Firm.ID)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "member", id.Role)
}
