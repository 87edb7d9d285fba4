package usecase_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/firmbill-api/internal/application/dto"
	"github.com/jhoicas/firmbill-api/internal/application/usecase"
	"github.com/jhoicas/firmbill-api/internal/domain"
	"github.com/jhoicas/firmbill-api/internal/domain/entity"
)

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func (r *fakeProductRepo) Create(p *entity.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.products[id], nil
}

func (r *fakeProductRepo) ListByFirm(firmID string, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.products {
		if p.FirmID == firmID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Update(p *entity.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Delete(id string) error { delete(r.products, id); return nil }

func money(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newProductUC(t *testing.T) (*usecase.ProductUseCase, *fakeProductRepo) {
	t.Helper()
	repo := &fakeProductRepo{products: map[string]*entity.Product{
		"p1": {ID: "p1", FirmID: firmA, Name: "Asesoría", Price: money("40.00")},
		"px": {ID: "px", FirmID: firmB, Name: "Ajeno", Price: money("9.00")},
	}}
	return usecase.NewProductUseCase(repo), repo
}

func TestProductCreate_PrecioNegativo_Rechazado(t *testing.T) {
	uc, _ := newProductUC(t)

	_, err := uc.Create(firmA, dto.CreateProductRequest{Name: "Malo", Price: money("-1.00")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductCreate_PrecioCero_Permitido(t *testing.T) {
	uc, _ := newProductUC(t)

	out, err := uc.Create(firmA, dto.CreateProductRequest{Name: "Gratis", Price: decimal.Zero})
	require.NoError(t, err)
	assert.True(t, out.Price.IsZero())
}

func TestProductUpdate_SoloCamposPresentes(t *testing.T) {
	uc, repo := newProductUC(t)

	nuevo := money("55.00")
	out, err := uc.Update(firmA, "p1", dto.UpdateProductRequest{Price: &nuevo})
	require.NoError(t, err)

	assert.Equal(t, "Asesoría", out.Name, "el nombre no se toca si no viene")
	assert.True(t, repo.products["p1"].Price.Equal(nuevo))
}

func TestProductUpdate_OtraFirma_Forbidden(t *testing.T) {
	uc, repo := newProductUC(t)

	nombre := "Robado"
	_, err := uc.Update(firmA, "px", dto.UpdateProductRequest{Name: &nombre})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, "Ajeno", repo.products["px"].Name)
}

func TestProductGet_OtraFirma_Forbidden(t *testing.T) {
	uc, _ := newProductUC(t)

	_, err := uc.GetByID(firmA, "px")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestProductDelete_OtraFirma_Forbidden(t *testing.T) {
	uc, repo := newProductUC(t)

	err := uc.Delete(firmA, "px")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Contains(t, repo.products, "px")
}

func TestProductList_SoloLaFirma(t *testing.T) {
	uc, _ := newProductUC(t)

	out, err := uc.List(firmA, 20, 0)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "p1", out.Items[0].ID)
}
