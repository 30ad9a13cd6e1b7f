// Package server assembles the HTTP surface over the platform core.
package server

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/complyhub/complyd/pkg/audit"
	"github.com/complyhub/complyd/pkg/authz"
	"github.com/complyhub/complyd/pkg/distribute"
	"github.com/complyhub/complyd/pkg/provision"
	"github.com/complyhub/complyd/pkg/tenant"
)

type Server struct {
	Router      *mux.Router
	DB          *gorm.DB
	Tenants     *tenant.Router
	Provisioner *provision.Provisioner
	Engine      *distribute.Engine
	Resolver    *authz.Resolver
	Admins      *authz.PlatformAdmins
	Auditor     *audit.Auditor
	Logger      *zap.Logger
	srv         *http.Server
}

func NewServer(
	db *gorm.DB,
	tenants *tenant.Router,
	provisioner *provision.Provisioner,
	engine *distribute.Engine,
	resolver *authz.Resolver,
	logger *zap.Logger,
	host string,
	port string,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    host + ":" + port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Router:      router,
		DB:          db,
		Tenants:     tenants,
		Provisioner: provisioner,
		Engine:      engine,
		Resolver:    resolver,
		Logger:      logger,
		srv:         srv,
	}
}

// Use installs middleware on all routes.
func (s *Server) Use(mw func(http.Handler) http.Handler) {
	s.Router.Use(mw)
}

func (s Server) Start() error {
	return s.srv.ListenAndServe()
}
