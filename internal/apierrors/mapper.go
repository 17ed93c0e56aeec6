package apierrors

import (
	"errors"

	authProcessor "referral-server/internal/auth/processor"
	fraudProcessor "referral-server/internal/fraud/processor"
	settlementProcessor "referral-server/internal/settlement/processor"
	"referral-server/internal/store"
)

// MapError converts domain/processor errors to APIErrors.
//
// If the error is already an APIError, it returns it as-is.
// If the error is unknown, it returns a sanitized InternalError (500).
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	// Map auth processor errors
	case errors.Is(err, authProcessor.ErrInvalidJWTToken),
		errors.Is(err, authProcessor.ErrParseJWTToken),
		errors.Is(err, authProcessor.ErrMissingAccount):
		return Unauthorized("Invalid or missing token")
	case errors.Is(err, authProcessor.ErrExpiredToken):
		return Unauthorized("Token has expired")

	// Map fraud processor errors
	case errors.Is(err, fraudProcessor.ErrReferralNotFound):
		return NotFound(CodeReferralNotFound, "Referral not found")
	case errors.Is(err, fraudProcessor.ErrUnauthorized):
		return Forbidden(CodeForbidden, "You do not have access to this referral")
	case errors.Is(err, fraudProcessor.ErrInvalidFraudType):
		return BadRequest(CodeInvalidFraudType, "Unknown fraud type")
	case errors.Is(err, fraudProcessor.ErrResolveTimeout):
		return ServiceUnavailable(CodeResolveTimeout, "The referral is busy. Please retry shortly.", err)
	case errors.Is(err, fraudProcessor.ErrStoreBusy):
		return ServiceUnavailable(CodeServiceUnavailable, "Service is temporarily unavailable. Please try again later.", err)

	// Map settlement processor errors
	case errors.Is(err, settlementProcessor.ErrReferralNotFound):
		return NotFound(CodeReferralNotFound, "Referral not found")
	case errors.Is(err, settlementProcessor.ErrUnauthorized):
		return Forbidden(CodeForbidden, "You do not have access to this referral")
	case errors.Is(err, settlementProcessor.ErrNotSettleable):
		return Conflict(CodeNotSettleable, "Referral is not converted or has no reward amount")
	case errors.Is(err, settlementProcessor.ErrSettlementQueued):
		return Conflict(CodeSettlementQueued, "A settlement for this referral is already queued")

	// Map store errors that escaped a processor
	case errors.Is(err, store.ErrNotFound):
		return NotFound(CodeNotFound, "Resource not found")
	case errors.Is(err, store.ErrTransient):
		return ServiceUnavailable(CodeServiceUnavailable, "Service is temporarily unavailable. Please try again later.", err)

	default:
		return InternalError(err)
	}
}
