package grpc

import (
	"errors"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps a service error to a gRPC status error. Status errors pass
// through unchanged.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrSessionNotActive):
		return status.Error(codes.Unauthenticated, common.ErrSessionNotActive.Error())
	case errors.Is(err, common.ErrUserNotFound):
		return status.Error(codes.Unauthenticated, common.ErrUserNotFound.Error())
	case errors.Is(err, common.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, common.ErrUnauthenticated.Error())
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, common.ErrForbidden.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, common.ErrorNotFound.Error())
	case errors.Is(err, common.ErrDuplicateLogin):
		return status.Error(codes.InvalidArgument, common.ErrDuplicateLogin.Error())
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}
