package grpc

import (
	"context"
	"errors"

	"github.com/olyamironova/auction-engine/internal/core"
	"github.com/olyamironova/auction-engine/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func codeOf(err error) codes.Code {
	switch domain.CodeOf(err) {
	case domain.CodeNotFound:
		return codes.NotFound
	case domain.CodeConflict:
		return codes.AlreadyExists
	case domain.CodeInvalidIncrement:
		return codes.InvalidArgument
	case domain.CodeInvalidState, domain.CodeNoActiveAuction, domain.CodeWrongLot,
		domain.CodeInsufficientBudget, domain.CodeNoItemsAvailable:
		return codes.FailedPrecondition
	}
	switch {
	case errors.Is(err, core.ErrEngineStopped):
		return codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	}
	return codes.Internal
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	c := codeOf(err)
	if c == codes.Internal {
		return status.Error(c, "internal error")
	}
	return status.Error(c, err.Error())
}
