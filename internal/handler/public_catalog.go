package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/ledger"
	"github.com/iliyamo/rewear-exchange/internal/model"
	"github.com/iliyamo/rewear-exchange/internal/repository"
)

// PublicHandler serves the unauthenticated catalog: item search, item
// detail and the category points table.  Responses omit owner email,
// balance and moderation state because these routes
// are reachable by guests.
type PublicHandler struct {
	Items      *repository.ItemRepo
	Users      *repository.UserRepo
	Categories *repository.CategoryPointsRepo
}

// NewPublicHandler constructs a PublicHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewPublicHandler(items *repository.ItemRepo, users *repository.UserRepo, cats *repository.CategoryPointsRepo) *PublicHandler {
	if items == nil || users == nil || cats == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Items: items, Users: users, Categories: cats}
}

// SearchItems handles GET /v1/items.  Supported query parameters:
// q (free text over title, description and tags), category, size,
// condition, ngo=true, sort (newest|oldest|points_asc|points_desc),
// page and page_size.  Only available items are returned.
func (h *PublicHandler) SearchItems(c echo.Context) error {
	q := repository.ItemSearchQuery{
		Text:      strings.TrimSpace(c.QueryParam("q")),
		Category:  strings.TrimSpace(c.QueryParam("category")),
		Size:      strings.TrimSpace(c.QueryParam("size")),
		Condition: strings.TrimSpace(c.QueryParam("condition")),
		NGOOnly:   c.QueryParam("ngo") == "true",
		Sort:      c.QueryParam("sort"),
		Page:      1,
		PageSize:  20,
	}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		q.Page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && v > 0 && v <= 100 {
		q.PageSize = v
	}

	items, total, err := h.Items.SearchAvailable(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// itemDetailResp is the public shape of a single listing, including
// the uploader card and the viewer's cost quote.
type itemDetailResp struct {
	ID            uint64                   `json:"id"`
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	Category      string                   `json:"category"`
	Type          string                   `json:"type"`
	Size          string                   `json:"size"`
	Condition     string                   `json:"condition"`
	Specs         model.ItemSpecifications `json:"specs"`
	PointsCost    uint32                   `json:"points_cost"`
	Status        string                   `json:"status"`
	IsNGODonation bool                     `json:"is_ngo_donation"`
	Tags          []string                 `json:"tags"`
	Images        []itemImagePart          `json:"images"`
	Uploader      model.UploaderInfo       `json:"uploader"`
	Trust         model.TrustMetrics       `json:"uploader_trust"`
	Quote         ledger.Quote             `json:"quote"`
	CreatedAt     string                   `json:"created_at"`
}

type itemImagePart struct {
	URL      string `json:"url"`
	IsMain   bool   `json:"is_main"`
	Position int    `json:"position"`
}

// GetItem handles GET /v1/items/:id.  Guests receive a quote with an
// unknown surcharge; authenticated viewers (the optional identity
// middleware fills user_id) get the surcharge evaluated against their
// profile city.  Pending items are hidden from everyone but their
// owner.
func (h *PublicHandler) GetItem(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	ctx := c.Request().Context()
	it, err := h.Items.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrItemNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	viewerID, _ := getUserID(c)
	if it.Status == model.ItemStatusPending && it.OwnerID != viewerID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
	}

	uploader, err := h.Items.UploaderInfo(ctx, it.OwnerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	trust, err := h.Users.TrustMetrics(ctx, it.OwnerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	viewerCity := ""
	if viewerID != 0 {
		if viewer, err := h.Users.GetByID(ctx, viewerID); err == nil {
			viewerCity = viewer.City
		}
	}

	resp := itemDetailResp{
		ID:            it.ID,
		Title:         it.Title,
		Description:   it.Description,
		Category:      it.Category,
		Type:          it.Type,
		Size:          it.Size,
		Condition:     it.Condition,
		Specs:         it.Specs,
		PointsCost:    it.PointsCost,
		Status:        it.Status,
		IsNGODonation: it.IsNGODonation,
		Tags:          it.Tags,
		Uploader:      uploader,
		Trust:         trust,
		Quote:         ledger.QuoteFor(it.PointsCost, uploader.City, viewerCity),
		CreatedAt:     it.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	for _, img := range it.Images {
		resp.Images = append(resp.Images, itemImagePart{URL: img.URL, IsMain: img.IsMain, Position: img.Position})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": resp})
}

// GetCategoryPoints handles GET /v1/categories/points.  The table is
// public so uploaders can see what a listing in each category earns.
func (h *PublicHandler) GetCategoryPoints(c echo.Context) error {
	all, err := h.Categories.All(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": all})
}
