// Package grpc exposes the session API over gRPC as taskhub.v1.AuthService.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/logging"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/services"
	"google.golang.org/grpc"
)

// Sessions is the session lifecycle used by the service.
type Sessions interface {
	Register(ctx context.Context, login, password string) (*services.AuthResult, error)
	Login(ctx context.Context, login, password string) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutEverywhere(ctx context.Context, caller auth.Identity, userID string) error
}

// Users is the account API used by the service.
type Users interface {
	Me(ctx context.Context, caller auth.Identity) (*models.User, error)
	List(ctx context.Context, caller auth.Identity) ([]*models.User, error)
	SetRole(ctx context.Context, caller auth.Identity, userID, role string) (*models.User, error)
}

// IdentityResolver turns the authorization metadata into a caller identity.
type IdentityResolver interface {
	ResolveIdentity(authorization string) auth.Identity
}

// Observer receives one call per finished RPC.
type Observer interface {
	ObserveGRPC(method, code string)
}

// CookieConfig controls the refresh cookie sent in set-cookie headers.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

type Deps struct {
	Sessions Sessions
	Users    Users
	Guard    IdentityResolver
	Cookie   CookieConfig
	Observer Observer
}

type Server struct {
	address string
	logger  logging.Logger
	Deps
}

var _ AuthServiceServer = (*Server)(nil)

func NewServer(address string, l logging.Logger, d Deps) *Server {
	if l == nil {
		l = logging.Nop{}
	}
	return &Server{
		address: address,
		logger:  l.With("module", "grpc_server"),
		Deps:    d,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.unaryInterceptor))
	RegisterAuthServiceServer(srv, s)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			srv.GracefulStop()
		case <-done:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
