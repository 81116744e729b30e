// Package handler implements the HTTP handlers for the smart-agen API.
// All handlers are methods on Server. Methods are split into resource files
// (area.go, fleet.go, etc.) but share the same Server struct so they can
// access its dependencies. Routes wires them onto a chi router.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
	"github.com/adityardiansyah/smart-agen/internal/service"
)

// The interfaces below are the business operations the handlers depend on.
// Defining them here, in the consumer package, lets handler tests inject
// mocks without touching the database or service layer.

type AreaServicer interface {
	Create(ctx context.Context, scope domain.AreaScope, area domain.Area) (domain.Area, error)
	GetByID(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Area, error)
	ListPaged(ctx context.Context, f domain.AreaFilter, p domain.PaginationParams) ([]domain.Area, int, error)
	Stats(ctx context.Context, f domain.AreaFilter) (domain.StatusCounts, error)
	Update(ctx context.Context, scope domain.AreaScope, area domain.Area) (domain.Area, error)
	ToggleStatus(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Area, error)
	Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error
}

type RegionServicer interface {
	Create(ctx context.Context, scope domain.AreaScope, region domain.Region) (domain.Region, error)
	ListByArea(ctx context.Context, scope domain.AreaScope, areaID uuid.UUID) ([]domain.Region, error)
	Update(ctx context.Context, scope domain.AreaScope, region domain.Region) (domain.Region, error)
	Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error
}

type AgencyServicer interface {
	Create(ctx context.Context, scope domain.AreaScope, agency domain.Agency) (domain.Agency, error)
	GetTree(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.AgencyTree, error)
	ListPaged(ctx context.Context, f domain.AgencyFilter, p domain.PaginationParams) ([]domain.Agency, int, error)
	Stats(ctx context.Context, f domain.AgencyFilter) (domain.StatusCounts, error)
	Update(ctx context.Context, scope domain.AreaScope, agency domain.Agency) (domain.Agency, error)
	ToggleStatus(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Agency, error)
	Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error
}

type FleetServicer interface {
	Create(ctx context.Context, scope domain.AreaScope, fleet domain.Fleet) (domain.Fleet, error)
	Register(ctx context.Context, scope domain.AreaScope, reg domain.FleetRegistration) (domain.FleetView, error)
	GetView(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.FleetView, error)
	ListPaged(ctx context.Context, f domain.FleetFilter, p domain.PaginationParams) ([]domain.FleetView, int, error)
	Stats(ctx context.Context, f domain.FleetFilter) (domain.FleetStats, error)
	Update(ctx context.Context, scope domain.AreaScope, fleet domain.Fleet) (domain.Fleet, error)
	ToggleStatus(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Fleet, error)
	Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error
}

type DriverServicer interface {
	Create(ctx context.Context, scope domain.AreaScope, driver domain.Driver) (domain.Driver, error)
	GetByID(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Driver, error)
	ListPaged(ctx context.Context, f domain.DriverFilter, p domain.PaginationParams) ([]domain.Driver, int, error)
	Stats(ctx context.Context, f domain.DriverFilter) (domain.DriverStats, error)
	Candidates(ctx context.Context, scope domain.AreaScope, fleetID uuid.UUID) ([]domain.Driver, error)
	Update(ctx context.Context, scope domain.AreaScope, driver domain.Driver) (domain.Driver, error)
	ToggleStatus(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Driver, error)
	Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error
}

type AssignmentServicer interface {
	AssignDriver(ctx context.Context, scope domain.AreaScope, fleetID uuid.UUID, in domain.AssignDriverInput) (domain.FleetDrivers, error)
}

type DocumentServicer interface {
	Upload(ctx context.Context, scope domain.AreaScope, kind domain.DocumentKind, ownerID uuid.UUID, up service.Upload) (string, error)
	MaxBytes() int64
}

type DashboardServicer interface {
	Get(ctx context.Context, scope domain.AreaScope, areaID uuid.UUID) (domain.Dashboard, error)
}

type ExportServicer interface {
	FleetRows(ctx context.Context, scope domain.AreaScope, areaID *uuid.UUID) ([]domain.FleetExportRow, error)
	Now() time.Time
}

type AuthServicer interface {
	Login(ctx context.Context, email, password string) (service.Session, error)
}

type UserServicer interface {
	Create(ctx context.Context, actor, user domain.User, password string) (domain.User, error)
	GetByID(ctx context.Context, actor domain.User, id uuid.UUID) (domain.User, error)
	ListPaged(ctx context.Context, actor domain.User, f domain.UserFilter, p domain.PaginationParams) ([]domain.User, int, error)
	Update(ctx context.Context, actor, user domain.User, password string) (domain.User, error)
	ToggleStatus(ctx context.Context, actor domain.User, id uuid.UUID) (domain.User, error)
	Delete(ctx context.Context, actor domain.User, id uuid.UUID) error
}

// Services bundles every dependency of Server. A nil field disables nothing
// at construction time, but calling a route whose service is nil panics, so
// tests set only what they exercise.
type Services struct {
	Areas       AreaServicer
	Regions     RegionServicer
	Agencies    AgencyServicer
	Fleets      FleetServicer
	Drivers     DriverServicer
	Assignments AssignmentServicer
	Documents   DocumentServicer
	Dashboard   DashboardServicer
	Export      ExportServicer
	Auth        AuthServicer
	Users       UserServicer
}

// Server holds the handler dependencies.
type Server struct {
	svc Services
	log *slog.Logger
	now func() time.Time
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services, log *slog.Logger) *Server {
	return &Server{svc: svc, log: log, now: time.Now}
}

// WithClock replaces the clock used to derive statuses in responses.
// Intended for tests.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// RouteOptions configures the routes that are not plain API resources.
type RouteOptions struct {
	// Authenticate guards every /api route except login. Nil leaves the
	// API open, which only tests should do.
	Authenticate func(http.Handler) http.Handler
	// Files serves uploaded documents under /storage/. Nil disables it.
	Files http.FileSystem
	// Ready lists the dependency checks of GET /readyz.
	Ready map[string]ReadyCheck
}

// Routes registers every API route on r.
func (s *Server) Routes(r chi.Router, opts RouteOptions) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/readyz", s.readyHandler(opts.Ready))
	r.Post("/api/auth/login", s.Login)

	r.Group(func(r chi.Router) {
		if opts.Authenticate != nil {
			r.Use(opts.Authenticate)
		}

		r.Get("/api/auth/me", s.Me)

		r.Route("/api/areas", func(r chi.Router) {
			r.Get("/", s.ListAreas)
			r.Post("/", s.CreateArea)
			r.Get("/{id}", s.GetArea)
			r.Put("/{id}", s.UpdateArea)
			r.Delete("/{id}", s.DeleteArea)
			r.Patch("/{id}/toggle-status", s.ToggleAreaStatus)
			r.Get("/{id}/regions", s.ListRegions)
			r.Post("/{id}/regions", s.CreateRegion)
			r.Get("/{id}/dashboard", s.GetDashboard)
		})
		r.Route("/api/regions", func(r chi.Router) {
			r.Put("/{id}", s.UpdateRegion)
			r.Delete("/{id}", s.DeleteRegion)
		})
		r.Route("/api/agencies", func(r chi.Router) {
			r.Get("/", s.ListAgencies)
			r.Post("/", s.CreateAgency)
			r.Get("/{id}", s.GetAgency)
			r.Put("/{id}", s.UpdateAgency)
			r.Delete("/{id}", s.DeleteAgency)
			r.Patch("/{id}/toggle-status", s.ToggleAgencyStatus)
		})
		r.Route("/api/fleets", func(r chi.Router) {
			r.Get("/", s.ListFleets)
			r.Post("/", s.CreateFleet)
			r.Post("/register", s.RegisterFleet)
			r.Get("/export", s.ExportFleets)
			r.Get("/{id}", s.GetFleet)
			r.Put("/{id}", s.UpdateFleet)
			r.Delete("/{id}", s.DeleteFleet)
			r.Patch("/{id}/toggle-status", s.ToggleFleetStatus)
			r.Post("/{id}/assign-driver", s.AssignDriver)
			r.Get("/{id}/driver-candidates", s.ListDriverCandidates)
			r.Post("/{id}/documents/{kind}", s.UploadFleetDocument)
		})
		r.Route("/api/drivers", func(r chi.Router) {
			r.Get("/", s.ListDrivers)
			r.Post("/", s.CreateDriver)
			r.Get("/{id}", s.GetDriver)
			r.Put("/{id}", s.UpdateDriver)
			r.Delete("/{id}", s.DeleteDriver)
			r.Patch("/{id}/toggle-status", s.ToggleDriverStatus)
			r.Post("/{id}/documents/sim", s.UploadSimDocument)
		})
		r.Route("/api/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleSuperAdmin, domain.RoleAdmin))
			r.Get("/", s.ListUsers)
			r.Post("/", s.CreateUser)
			r.Get("/{id}", s.GetUser)
			r.Put("/{id}", s.UpdateUser)
			r.Delete("/{id}", s.DeleteUser)
			r.Patch("/{id}/toggle-status", s.ToggleUserStatus)
		})

		if opts.Files != nil {
			r.Handle("/storage/*", http.StripPrefix("/storage/", http.FileServer(opts.Files)))
		}
	})
}
