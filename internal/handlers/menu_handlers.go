package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"kitchen_inventory_backend/internal/services"
	"kitchen_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImageURLPrefix is the public path menu images are served under.
const ImageURLPrefix = "images"

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// MenuHandler serves menus and their recipes.
type MenuHandler struct {
	menuService services.MenuService
	uploadsDir  string
}

// NewMenuHandler creates a new MenuHandler. Uploaded images are written to uploadsDir.
func NewMenuHandler(ms services.MenuService, uploadsDir string) *MenuHandler {
	return &MenuHandler{menuService: ms, uploadsDir: uploadsDir}
}

// menuPayload is the JSON form of a menu write.
type menuPayload struct {
	Name        string                       `json:"name" binding:"required"`
	Price       decimal.Decimal              `json:"price"`
	Category    string                       `json:"category"`
	ImageURL    *string                      `json:"image_url"`
	Ingredients []services.RecipeLineRequest `json:"ingredients"`
}

// bindMenuRequest accepts either JSON or multipart form data. For multipart requests an
// uploaded image is saved and its file path is returned so a failed write can remove it.
func (h *MenuHandler) bindMenuRequest(c *gin.Context) (services.MenuRequest, string, error) {
	if c.ContentType() == gin.MIMEJSON {
		var payload menuPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			return services.MenuRequest{}, "", err
		}
		return services.MenuRequest{
			Name:        payload.Name,
			Price:       payload.Price,
			Category:    payload.Category,
			ImageURL:    utils.NewNullString(derefString(payload.ImageURL)),
			Ingredients: payload.Ingredients,
		}, "", nil
	}

	req := services.MenuRequest{
		Name:     c.PostForm("name"),
		Category: c.PostForm("category"),
		ImageURL: utils.NewNullString(c.PostForm("existing_image_url")),
	}
	if raw := strings.TrimSpace(c.PostForm("price")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return req, "", fmt.Errorf("price must be a number: %w", err)
		}
		req.Price = price
	}
	if raw := strings.TrimSpace(c.PostForm("ingredients")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Ingredients); err != nil {
			return req, "", fmt.Errorf("ingredients must be a JSON array: %w", err)
		}
	}

	file, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return req, "", nil
	}
	if err != nil {
		return req, "", fmt.Errorf("invalid image upload: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExt[ext] {
		return req, "", fmt.Errorf("image type %q is not supported", ext)
	}
	fileName := uuid.NewString() + ext
	savedPath := filepath.Join(h.uploadsDir, fileName)
	if err := c.SaveUploadedFile(file, savedPath); err != nil {
		return req, "", fmt.Errorf("%w: saving image: %v", errImageStore, err)
	}
	imageURL := path.Join(ImageURLPrefix, fileName)
	req.ImageURL = &imageURL
	return req, savedPath, nil
}

var errImageStore = errors.New("image store failure")

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *MenuHandler) respondBind(c *gin.Context, err error, where string) {
	if errors.Is(err, errImageStore) {
		utils.LogError(err, where+": Failed to store image")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to store image.", "Internal error"))
		return
	}
	respondBindError(c, err, where)
}

func discardUpload(savedPath string) {
	if savedPath == "" {
		return
	}
	if err := os.Remove(savedPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		utils.LogError(err, "Failed to remove orphaned menu image")
	}
}

// CreateMenu creates a menu together with its recipe.
func (h *MenuHandler) CreateMenu(c *gin.Context) {
	req, savedPath, err := h.bindMenuRequest(c)
	if err != nil {
		h.respondBind(c, err, "CreateMenu")
		return
	}

	menu, err := h.menuService.CreateMenu(c.Request.Context(), req)
	if err != nil {
		discardUpload(savedPath)
		respondServiceError(c, err, "Failed to create menu.")
		return
	}
	c.JSON(http.StatusCreated, menu)
}

// GetMenus lists menus with their stock status.
func (h *MenuHandler) GetMenus(c *gin.Context) {
	menus, err := h.menuService.GetMenus(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to fetch menus.")
		return
	}
	c.JSON(http.StatusOK, menus)
}

func (h *MenuHandler) GetMenuByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	menu, err := h.menuService.GetMenuByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch menu.")
		return
	}
	c.JSON(http.StatusOK, menu)
}

// UpdateMenu replaces a menu and its whole recipe.
func (h *MenuHandler) UpdateMenu(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	req, savedPath, err := h.bindMenuRequest(c)
	if err != nil {
		h.respondBind(c, err, "UpdateMenu")
		return
	}

	menu, err := h.menuService.UpdateMenu(c.Request.Context(), id, req)
	if err != nil {
		discardUpload(savedPath)
		respondServiceError(c, err, "Failed to update menu.")
		return
	}
	c.JSON(http.StatusOK, menu)
}

func (h *MenuHandler) DeleteMenu(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.menuService.DeleteMenu(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Failed to delete menu.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu deleted successfully"})
}
