package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/apperr"
)

var connectCodes = map[apperr.Kind]connect.Code{
	apperr.KindNotFound:        connect.CodeNotFound,
	apperr.KindInvalidState:    connect.CodeFailedPrecondition,
	apperr.KindForbidden:       connect.CodePermissionDenied,
	apperr.KindBadRequest:      connect.CodeInvalidArgument,
	apperr.KindConflict:        connect.CodeAlreadyExists,
	apperr.KindPersistence:     connect.CodeUnavailable,
	apperr.KindUnauthenticated: connect.CodeUnauthenticated,
}

// CodeFor returns the Connect code for an error kind.
func CodeFor(kind apperr.Kind) connect.Code {
	if code, ok := connectCodes[kind]; ok {
		return code
	}
	return connect.CodeInternal
}

// toConnectError converts a domain error into a Connect error carrying only
// the client-safe message.
func toConnectError(err error) *connect.Error {
	cerr := connect.NewError(CodeFor(apperr.KindOf(err)), errors.New(apperr.MessageOf(err)))
	if kind := apperr.KindOf(err); kind != "" {
		cerr.Meta().Set("Fintrack-Error-Code", string(kind))
	}
	return cerr
}
