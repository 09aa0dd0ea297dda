package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/model"
	"github.com/iliyamo/rewear-exchange/internal/repository"
)

// ProfileHandler serves the authenticated user's own account: profile
// read/update, KYC submission and points history.
type ProfileHandler struct {
	Users       *repository.UserRepo
	Redemptions *repository.RedemptionRepo
}

// NewProfileHandler constructs a ProfileHandler.  Dependencies must be
// non-nil.
func NewProfileHandler(users *repository.UserRepo, reds *repository.RedemptionRepo) *ProfileHandler {
	if users == nil || reds == nil {
		panic("nil repository passed to NewProfileHandler")
	}
	return &ProfileHandler{Users: users, Redemptions: reds}
}

type profileResp struct {
	ID        uint64             `json:"id"`
	Email     string             `json:"email"`
	Username  string             `json:"username"`
	AvatarURL string             `json:"avatar_url,omitempty"`
	Bio       string             `json:"bio,omitempty"`
	Points    uint32             `json:"points"`
	City      string             `json:"city"`
	State     string             `json:"state"`
	Country   string             `json:"country"`
	Role      string             `json:"role"`
	KYCStatus string             `json:"kyc_status"`
	Trust     model.TrustMetrics `json:"trust"`
}

// Me handles GET /v1/me.  Returns the full profile with the points
// balance and the derived trust metrics.
func (h *ProfileHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	trust, err := h.Users.TrustMetrics(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load trust failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": profileResp{
		ID: u.ID, Email: u.Email, Username: u.Username, AvatarURL: u.AvatarURL, Bio: u.Bio,
		Points: u.Points, City: u.City, State: u.State, Country: u.Country,
		Role: u.Role, KYCStatus: u.KYCStatus, Trust: trust,
	}})
}

type updateProfileReq struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
}

// UpdateProfile handles PUT /v1/me.  The city entered here is what the
// surcharge check compares against uploader cities, so users should
// keep it current.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}
	if err := h.Users.UpdateProfile(c.Request().Context(), userID,
		req.Username, req.AvatarURL, req.Bio,
		strings.TrimSpace(req.City), strings.TrimSpace(req.State), strings.TrimSpace(req.Country)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// SubmitKYC handles POST /v1/me/kyc.  Marks the account as awaiting
// identity review.  Verified accounts cannot resubmit; a rejected
// account may try again.
func (h *ProfileHandler) SubmitKYC(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	switch u.KYCStatus {
	case model.KYCVerified:
		return c.JSON(http.StatusConflict, echo.Map{"error": "already verified"})
	case model.KYCPending:
		return c.JSON(http.StatusConflict, echo.Map{"error": "review already in progress"})
	}
	if err := h.Users.SetKYCStatus(ctx, userID, model.KYCPending); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "submit failed"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"kyc_status": model.KYCPending})
}

// ListRedemptions handles GET /v1/me/redemptions.  The user's points
// spending history, newest first.
func (h *ProfileHandler) ListRedemptions(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reds, err := h.Redemptions.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load redemptions failed"})
	}
	items := make([]echo.Map, 0, len(reds))
	for _, r := range reds {
		items = append(items, echo.Map{
			"reference":   r.Reference,
			"item_id":     r.ItemID,
			"item_cost":   r.ItemCost,
			"surcharge":   r.Surcharge,
			"total_debit": r.TotalDebit,
			"created_at":  r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"redemptions": items})
}
