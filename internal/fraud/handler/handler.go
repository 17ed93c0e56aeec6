package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"referral-server/internal/apierrors"
	"referral-server/internal/fraud/processor"
	"referral-server/internal/observability"
	settlementProcessor "referral-server/internal/settlement/processor"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FraudService is the fraud review API the handler serves
type FraudService interface {
	Resolve(ctx context.Context, actor processor.Actor, referralID uuid.UUID) (processor.ResolveResult, error)
	FlagReferral(ctx context.Context, actor processor.Actor, referralID uuid.UUID, req processor.FlagRequest) (processor.FlagResult, error)
	ListFlags(ctx context.Context, actor processor.Actor, req processor.ListFlagsRequest) (processor.ListFlagsResponse, error)
}

// SettlementRequester queues background reward settlement
type SettlementRequester interface {
	RequestSettlement(ctx context.Context, accountID, userID, referralID uuid.UUID) error
}

type Handler struct {
	fraud      FraudService
	settlement SettlementRequester
	logger     *observability.Logger
}

func New(fraud FraudService, settlement SettlementRequester, logger *observability.Logger) Handler {
	return Handler{
		fraud:      fraud,
		settlement: settlement,
		logger:     logger,
	}
}

// FlagReferralRequest represents the HTTP request for manually flagging a referral
type FlagReferralRequest struct {
	FraudType   string  `json:"fraud_type" binding:"required,max=50"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=1000"`
	IPAddress   *string `json:"ip_address,omitempty" binding:"omitempty,ip"`
}

// SettlementResponse acknowledges a settlement request
type SettlementResponse struct {
	ReferralID uuid.UUID `json:"referral_id"`
	Status     string    `json:"status"`
}

// HandleResolveFlags handles POST /api/protected/referrals/:referral_id/resolve
func (h *Handler) HandleResolveFlags(c *gin.Context) {
	ctx := c.Request.Context()

	actor, ok := h.actorFromContext(c)
	if !ok {
		return
	}

	referralID, ok := h.referralIDFromPath(c)
	if !ok {
		return
	}

	result, err := h.fraud.Resolve(ctx, actor, referralID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleFlagReferral handles POST /api/protected/referrals/:referral_id/flag
func (h *Handler) HandleFlagReferral(c *gin.Context) {
	ctx := c.Request.Context()

	actor, ok := h.actorFromContext(c)
	if !ok {
		return
	}

	referralID, ok := h.referralIDFromPath(c)
	if !ok {
		return
	}

	var req FlagReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	result, err := h.fraud.FlagReferral(ctx, actor, referralID, processor.FlagRequest{
		FraudType:   req.FraudType,
		Description: req.Description,
		IPAddress:   req.IPAddress,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// HandleRequestSettlement handles POST /api/protected/referrals/:referral_id/settle
func (h *Handler) HandleRequestSettlement(c *gin.Context) {
	ctx := c.Request.Context()

	actor, ok := h.actorFromContext(c)
	if !ok {
		return
	}

	referralID, ok := h.referralIDFromPath(c)
	if !ok {
		return
	}

	err := h.settlement.RequestSettlement(ctx, actor.AccountID, actor.UserID, referralID)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, SettlementResponse{ReferralID: referralID, Status: "queued"})
	case errors.Is(err, settlementProcessor.ErrSettlementQueued):
		c.JSON(http.StatusAccepted, SettlementResponse{ReferralID: referralID, Status: "already_queued"})
	default:
		apierrors.RespondWithError(c, err)
	}
}

// HandleListFlags handles GET /api/protected/fraud-flags
func (h *Handler) HandleListFlags(c *gin.Context) {
	ctx := c.Request.Context()

	actor, ok := h.actorFromContext(c)
	if !ok {
		return
	}

	resolved, err := optionalBool(c.Query("resolved"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "resolved must be true or false"))
		return
	}
	manual, err := optionalBool(c.Query("manual"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "manual must be true or false"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	response, err := h.fraud.ListFlags(ctx, actor, processor.ListFlagsRequest{
		Resolved: resolved,
		Manual:   manual,
		Search:   c.Query("search"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// actorFromContext reads the identity set by the JWT middleware
func (h *Handler) actorFromContext(c *gin.Context) (processor.Actor, bool) {
	ctx := c.Request.Context()

	accountValue, accountOK := c.Get("Account-ID")
	userValue, userOK := c.Get("User-ID")
	if !accountOK || !userOK {
		h.logger.Warn(ctx, "actor not found in context")
		apierrors.RespondWithError(c, apierrors.Unauthorized("unauthorized"))
		return processor.Actor{}, false
	}

	accountID, err := contextUUID(accountValue)
	if err != nil {
		h.logger.InfoWithError(ctx, "failed to parse account ID", err)
		apierrors.RespondWithError(c, apierrors.Unauthorized("invalid account id"))
		return processor.Actor{}, false
	}

	userID, err := contextUUID(userValue)
	if err != nil {
		h.logger.InfoWithError(ctx, "failed to parse user ID", err)
		apierrors.RespondWithError(c, apierrors.Unauthorized("invalid user id"))
		return processor.Actor{}, false
	}

	return processor.Actor{UserID: userID, AccountID: accountID}, true
}

// contextUUID accepts either form the auth middleware may store
func contextUUID(value any) (uuid.UUID, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	default:
		return uuid.Nil, fmt.Errorf("unexpected identity type %T", value)
	}
}

func (h *Handler) referralIDFromPath(c *gin.Context) (uuid.UUID, bool) {
	referralID, err := uuid.Parse(c.Param("referral_id"))
	if err != nil {
		h.logger.InfoWithError(c.Request.Context(), "failed to parse referral ID", err)
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "invalid referral id"))
		return uuid.Nil, false
	}
	return referralID, true
}

func optionalBool(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
