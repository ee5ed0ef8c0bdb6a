package engine

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

// NewError builds an RPC error qualified by an engine error reason.
// Handlers use it so clients can tell which resource an error refers to.
func NewError(code connect.Code, reason, message string) *connect.Error {
	err := connect.NewError(code, errors.New(message))
	if reason != "" {
		err.Meta().Set(HeaderErrorReason, reason)
	}
	return err
}

// TranslateError maps an RPC error onto the domain error taxonomy.
//
// Transport failures become ErrEngineUnavailable, analysis failures
// ErrEngineError. Not-found and conflict errors keep their resource
// identity through the error reason header.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}

	var ce *connect.Error
	if !errors.As(err, &ce) {
		return domain.ErrEngineUnavailable.WithCause(err)
	}

	reason := ce.Meta().Get(HeaderErrorReason)
	msg := ce.Message()

	switch ce.Code() {
	case connect.CodeUnavailable, connect.CodeDeadlineExceeded, connect.CodeCanceled:
		return domain.ErrEngineUnavailable.WithDetails(msg).WithCause(err)

	case connect.CodeAlreadyExists:
		if reason == ReasonNetwork {
			return domain.ErrNetworkExists.WithDetails(msg).WithCause(err)
		}
		return domain.ErrSnapshotExists.WithDetails(msg).WithCause(err)

	case connect.CodeNotFound:
		switch reason {
		case ReasonNetwork:
			return domain.ErrNetworkNotFound.WithDetails(msg).WithCause(err)
		case ReasonSnapshot:
			return domain.ErrSnapshotNotFound.WithDetails(msg).WithCause(err)
		case ReasonQuery:
			return domain.ErrUnknownQuery.WithDetails(msg).WithCause(err)
		}

	case connect.CodeFailedPrecondition:
		if reason == ReasonEmptySnapshotList {
			return domain.ErrEmptySnapshotList.WithDetails(msg).WithCause(err)
		}
	}

	return domain.ErrEngineError.WithDetails(msg).WithCause(err)
}
