package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/model"
	"github.com/iliyamo/rewear-exchange/internal/repository"
)

// ItemHandler serves the authenticated item endpoints: uploading a new
// listing and managing one's own wardrobe.
type ItemHandler struct {
	Items      *repository.ItemRepo
	Categories *repository.CategoryPointsRepo
}

// NewItemHandler constructs an ItemHandler.  Dependencies must be
// non-nil.
func NewItemHandler(items *repository.ItemRepo, cats *repository.CategoryPointsRepo) *ItemHandler {
	if items == nil || cats == nil {
		panic("nil repository passed to NewItemHandler")
	}
	return &ItemHandler{Items: items, Categories: cats}
}

type uploadItemReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Size        string   `json:"size"`
	Condition   string   `json:"condition"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
	NGODonation bool     `json:"is_ngo_donation"`
	Specs       struct {
		Brand            string `json:"brand"`
		Material         string `json:"material"`
		Color            string `json:"color"`
		Pattern          string `json:"pattern"`
		Fit              string `json:"fit"`
		Occasion         string `json:"occasion"`
		Season           string `json:"season"`
		CareInstructions string `json:"care_instructions"`
	} `json:"specs"`
}

// Upload handles POST /v1/items.  The listing enters the moderation
// queue in status "pending" with a zero points cost; an administrator
// approving it assigns the category value and credits the uploader.
// The category must exist so approval can price the item.
func (h *ItemHandler) Upload(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req uploadItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	if req.Title == "" || req.Category == "" || req.Size == "" || req.Condition == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title/category/size/condition required"})
	}

	specs, err := model.NewItemSpecifications(req.Specs.Color,
		model.WithBrand(req.Specs.Brand),
		model.WithMaterial(req.Specs.Material),
		model.WithPattern(req.Specs.Pattern),
		model.WithFit(req.Specs.Fit),
		model.WithOccasion(req.Specs.Occasion),
		model.WithSeason(req.Specs.Season),
		model.WithCareInstructions(req.Specs.CareInstructions),
	)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	if _, err := h.Categories.Get(ctx, req.Category); err != nil {
		if err == repository.ErrCategoryNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	it := model.Item{
		OwnerID:       userID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Type:          strings.TrimSpace(req.Type),
		Size:          req.Size,
		Condition:     req.Condition,
		Specs:         specs,
		IsNGODonation: req.NGODonation,
		Tags:          req.Tags,
	}
	for i, url := range req.Images {
		if strings.TrimSpace(url) == "" {
			continue
		}
		it.Images = append(it.Images, model.ItemImage{URL: url, IsMain: i == 0, Position: i})
	}
	if err := h.Items.Create(ctx, &it); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create item failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":     it.ID,
		"status": it.Status,
	})
}

// MyItems handles GET /v1/my-items.  All of the user's listings
// regardless of status, so uploaders can track moderation and swaps.
func (h *ItemHandler) MyItems(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Items.ListByOwner(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load items failed"})
	}
	out := make([]echo.Map, 0, len(items))
	for _, it := range items {
		out = append(out, echo.Map{
			"id":              it.ID,
			"title":           it.Title,
			"category":        it.Category,
			"size":            it.Size,
			"condition":       it.Condition,
			"points_cost":     it.PointsCost,
			"status":          it.Status,
			"is_ngo_donation": it.IsNGODonation,
			"created_at":      it.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// DeleteItem handles DELETE /v1/items/:id.  Owners may withdraw an
// upload only while it is still pending moderation; anything that
// reached the catalog stays for history.
func (h *ItemHandler) DeleteItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
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
	if it.OwnerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if it.Status != model.ItemStatusPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only pending items can be withdrawn"})
	}
	if err := h.Items.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
