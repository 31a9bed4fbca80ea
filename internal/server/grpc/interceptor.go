package grpc

import (
	"context"

	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// metadata keys are lower-case on the wire
const (
	authorizationKey = "authorization"
	cookieKey        = "cookie"
	setCookieKey     = "set-cookie"
)

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// unaryInterceptor resolves the caller identity for every RPC, maps service
// errors to status codes and reports the outcome.
func (s *Server) unaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := auth.Anonymous
	if s.Guard != nil {
		id = s.Guard.ResolveIdentity(firstMetadata(ctx, authorizationKey))
	}

	resp, err := handler(auth.WithIdentity(ctx, id), req)
	if err != nil {
		mapped := toStatus(err)
		if status.Code(mapped) == codes.Internal {
			s.logger.Error(ctx, "rpc failed", "method", info.FullMethod, "error", err)
		}
		resp, err = nil, mapped
	}

	if s.Observer != nil {
		s.Observer.ObserveGRPC(info.FullMethod, status.Code(err).String())
	}
	return resp, err
}
