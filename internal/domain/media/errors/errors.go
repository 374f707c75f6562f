// Package errors contains domain-specific errors for the media pipeline
package errors

import (
	pkgerrors "github.com/clipfetch/clipfetch/pkg/errors"
)

// Domain errors for the fetch-verify-deliver pipeline. RESTRICTED is kept
// distinct from UNAVAILABLE: a restricted source needs credentials, not a
// retry, and the user must be told which one they hit.
var (
	ErrUnavailable     = pkgerrors.NewNotFoundError("media source unavailable")
	ErrRestricted      = pkgerrors.NewPermissionError("media is restricted (age gate, login, or private)")
	ErrRejectedSize    = pkgerrors.NewValidationError("media exceeds the upload size ceiling")
	ErrRetrievalFailed = pkgerrors.NewInternalError("media retrieval failed")
	ErrDeliveryFailed  = pkgerrors.NewInternalError("media delivery failed")
	ErrNoPendingLink   = pkgerrors.NewNotFoundError("no pending link for this user")
)
