package handlers

import (
	"errors"

	iauth "github.com/TarunSAkkatangerhal/PrismWorklet/internal/auth"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/services"
	apperrors "github.com/TarunSAkkatangerhal/PrismWorklet/pkg/errors"
)

// mapServiceError translates service sentinel errors into API errors.
// Unknown errors pass through and are rendered as a 500 with detail suppressed.
func mapServiceError(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, services.ErrAlreadyRegistered):
		return apperrors.NewConflict("Email already registered")
	case errors.Is(err, services.ErrOTPNotFound):
		return apperrors.NewNotFound("No verification pending for this email")
	case errors.Is(err, services.ErrOTPInvalid):
		return apperrors.NewBadRequest("Invalid verification code")
	case errors.Is(err, services.ErrOTPExpired):
		return apperrors.NewBadRequest("Verification code has expired")
	case errors.Is(err, services.ErrNotVerified):
		return apperrors.NewBadRequest("Email not verified")
	case errors.Is(err, services.ErrInvalidRole):
		return apperrors.NewBadRequest("Invalid role")

	case errors.Is(err, services.ErrInvalidCredentials):
		return apperrors.ErrInvalidCredentials
	case errors.Is(err, services.ErrAccountInactive):
		return apperrors.ErrNotVerified
	case errors.Is(err, services.ErrAccountNotFound):
		return apperrors.ErrTokenInvalid
	case errors.Is(err, services.ErrResetCodeInvalid):
		return apperrors.NewBadRequest("Invalid or expired reset code")

	case errors.Is(err, iauth.ErrTokenExpired):
		return apperrors.ErrTokenExpired
	case errors.Is(err, iauth.ErrTokenInvalid), errors.Is(err, iauth.ErrWrongTokenType):
		return apperrors.ErrTokenInvalid

	case errors.Is(err, services.ErrUserNotFound):
		return apperrors.NewNotFound("User not found")
	case errors.Is(err, services.ErrNotAMentor):
		return apperrors.NewNotFound("Mentor not found")

	case errors.Is(err, services.ErrWorkletNotFound):
		return apperrors.NewNotFound("Worklet not found")
	case errors.Is(err, services.ErrWorkletExists):
		return apperrors.NewConflict("Worklet with this certificate id already exists")
	case errors.Is(err, services.ErrInvalidWorkletStatus):
		return apperrors.NewBadRequest("Invalid worklet status")

	case errors.Is(err, services.ErrAssociationNotFound):
		return apperrors.NewNotFound("Association not found")
	case errors.Is(err, services.ErrDuplicateAssociation):
		return apperrors.NewConflict("User is already actively associated with this worklet")
	case errors.Is(err, services.ErrInvalidAssociationRole):
		return apperrors.NewBadRequest("Invalid association role")
	case errors.Is(err, services.ErrInvalidCompletionStatus):
		return apperrors.NewBadRequest("Invalid completion status")
	case errors.Is(err, services.ErrInvalidProgress):
		return apperrors.NewBadRequest("Progress must be between 0 and 100")

	case errors.Is(err, services.ErrEvaluationNotFound):
		return apperrors.NewNotFound("Evaluation not found")
	case errors.Is(err, services.ErrInvalidScore):
		return apperrors.NewBadRequest("Score must be between 0 and 100")

	default:
		return err
	}
}
