package grpc

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

func userValue(u *models.User) map[string]any {
	return map[string]any{"id": u.ID, "login": u.Login, "role": string(u.Role)}
}

// refreshToken extracts the refresh cookie from the cookie metadata.
func refreshToken(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	for _, line := range md.Get(cookieKey) {
		cookies, err := http.ParseCookie(line)
		if err != nil {
			continue
		}
		for _, c := range cookies {
			if c.Name == common.RefreshCookieName {
				return c.Value
			}
		}
	}
	return ""
}

func (s *Server) sendCookie(ctx context.Context, value string, maxAge int) {
	c := &http.Cookie{
		Name:     common.RefreshCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
	if maxAge < 0 {
		c.Expires = time.Unix(0, 0)
	}
	if err := grpc.SetHeader(ctx, metadata.Pairs(setCookieKey, c.String())); err != nil {
		s.logger.Warn(ctx, "set-cookie header not sent", "error", err)
	}
}

func (s *Server) authResult(ctx context.Context, res *services.AuthResult) (*structpb.Struct, error) {
	s.sendCookie(ctx, res.RefreshToken, int(s.Cookie.MaxAge.Seconds()))
	return structpb.NewStruct(map[string]any{
		"user":        userValue(res.User),
		"accessToken": res.AccessToken,
	})
}

func (s *Server) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.Sessions.Register(ctx, stringField(in, "login"), stringField(in, "password"))
	if err != nil {
		return nil, err
	}
	return s.authResult(ctx, res)
}

func (s *Server) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.Sessions.Login(ctx, stringField(in, "login"), stringField(in, "password"))
	if err != nil {
		return nil, err
	}
	return s.authResult(ctx, res)
}

// Refresh redeems the refresh cookie. A failed redemption clears it.
func (s *Server) Refresh(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	token := refreshToken(ctx)
	if token == "" {
		return nil, common.ErrUnauthenticated
	}
	res, err := s.Sessions.Refresh(ctx, token)
	if err != nil {
		s.sendCookie(ctx, "", -1)
		return nil, err
	}
	s.sendCookie(ctx, res.RefreshToken, int(s.Cookie.MaxAge.Seconds()))
	return structpb.NewStruct(map[string]any{"accessToken": res.AccessToken})
}

// Logout always succeeds and clears the cookie.
func (s *Server) Logout(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if token := refreshToken(ctx); token != "" {
		if err := s.Sessions.Logout(ctx, token); err != nil {
			s.logger.Debug(ctx, "logout without active session", "error", err)
		}
	}
	s.sendCookie(ctx, "", -1)
	return &emptypb.Empty{}, nil
}

func (s *Server) Me(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	u, err := s.Users.Me(ctx, auth.IdentityFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(userValue(u))
}

func (s *Server) ListUsers(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	list, err := s.Users.List(ctx, auth.IdentityFromContext(ctx))
	if err != nil {
		return nil, err
	}
	users := make([]any, 0, len(list))
	for _, u := range list {
		users = append(users, userValue(u))
	}
	return structpb.NewStruct(map[string]any{"users": users})
}

func (s *Server) UpdateUserRole(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	u, err := s.Users.SetRole(ctx, auth.IdentityFromContext(ctx), stringField(in, "userId"), stringField(in, "role"))
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(userValue(u))
}

func (s *Server) LogoutUserEverywhere(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	if err := s.Sessions.LogoutEverywhere(ctx, auth.IdentityFromContext(ctx), stringField(in, "userId")); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}
