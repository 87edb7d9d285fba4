package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/firmbill-api/internal/application/auth"
	"github.com/jhoicas/firmbill-api/internal/application/billing"
	"github.com/jhoicas/firmbill-api/internal/application/usecase"
	"github.com/jhoicas/firmbill-api/internal/domain/entity"
	"github.com/jhoicas/firmbill-api/internal/metrics"
	"github.com/jhoicas/firmbill-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	UserUC    *usecase.UserUseCase
	ProductUC *usecase.ProductUseCase
	BillUC    *billing.BillUseCase
	PDFUC     *billing.PDFUseCase
	Guard     *Guard
	Metrics   *metrics.Metrics
	Log       *logger.Logger
	JWTSecret string
}

// Router registra las rutas de la API con su política por operación. La
// política es el único punto de declaración de auth, rol, rate limit y
// límites de longitud; los handlers asumen que la cadena ya corrió.
func Router(app *fiber.App, deps RouterDeps) {
	ownerOnly := []string{entity.RoleOwner}

	api := app.Group("/api", Identify(deps.JWTSecret, deps.AuthUC, deps.Log))
	g := deps.Guard

	// Auth (público; signup y login rate-limited por key anónima)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	authGroup.Post("/signup", g.Protect("auth.signup", Policy{
		Rate: &RateLimit{Limit: 3, Window: 10 * time.Minute},
		Bounds: map[string]Bounds{
			"firm_name":  {Min: 2, Max: 100},
			"owner_name": {Min: 2, Max: 100},
			"password":   {Min: 8, Max: 72},
		},
	}), authHandler.SignUpFirm)
	authGroup.Post("/login", g.Protect("auth.login", Policy{
		Rate: &RateLimit{Limit: 5, Window: time.Minute},
	}), authHandler.Login)
	authGroup.Get("/me", g.Protect("auth.me", Policy{Auth: true}), authHandler.Me)

	// Users (mutaciones solo owner)
	users := api.Group("/users")
	userHandler := NewUserHandler(deps.UserUC, deps.Log)
	users.Get("/", g.Protect("users.list", Policy{Auth: true}), userHandler.List)
	users.Post("/", g.Protect("users.create", Policy{
		Roles: ownerOnly,
		Bounds: map[string]Bounds{
			"name":     {Min: 2, Max: 100},
			"password": {Min: 8, Max: 72},
		},
	}), userHandler.Create)
	users.Delete("/:id", g.Protect("users.delete", Policy{Roles: ownerOnly}), userHandler.Delete)

	// Products (mutaciones solo owner)
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Log)
	products.Get("/", g.Protect("products.list", Policy{Auth: true}), productHandler.List)
	products.Post("/", g.Protect("products.create", Policy{
		Roles:  ownerOnly,
		Bounds: map[string]Bounds{"name": {Min: 1, Max: 200}},
	}), productHandler.Create)
	products.Get("/:id", g.Protect("products.get", Policy{Auth: true}), productHandler.GetByID)
	products.Put("/:id", g.Protect("products.update", Policy{
		Roles:  ownerOnly,
		Bounds: map[string]Bounds{"name": {Max: 200}},
	}), productHandler.Update)
	products.Delete("/:id", g.Protect("products.delete", Policy{Roles: ownerOnly}), productHandler.Delete)

	// Bills (listado completo de la firma solo owner; el resto cualquier cuenta)
	bills := api.Group("/bills")
	billHandler := NewBillHandler(deps.BillUC, deps.PDFUC, deps.Metrics, deps.Log)
	bills.Get("/", g.Protect("bills.list", Policy{Roles: ownerOnly}), billHandler.ListFirm)
	bills.Get("/mine", g.Protect("bills.mine", Policy{Auth: true}), billHandler.ListMine)
	bills.Post("/", g.Protect("bills.create", Policy{
		Auth:   true,
		Rate:   &RateLimit{Limit: 30, Window: time.Minute},
		Bounds: map[string]Bounds{"title": {Min: 1, Max: 140}},
	}), billHandler.Create)
	bills.Get("/:id", g.Protect("bills.get", Policy{Auth: true}), billHandler.GetByID)
	bills.Put("/:id", g.Protect("bills.update", Policy{
		Auth:   true,
		Bounds: map[string]Bounds{"title": {Min: 1, Max: 140}},
	}), billHandler.Update)
	bills.Delete("/:id", g.Protect("bills.delete", Policy{Auth: true}), billHandler.Delete)
	bills.Get("/:id/pdf", g.Protect("bills.pdf", Policy{Auth: true}), billHandler.PDF)
}
