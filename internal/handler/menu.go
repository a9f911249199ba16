package handler

import (
	"net/http"

	"github.com/azad-pos/api/internal/catalog"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MenuHandler serves the read-only catalog to the customer app.
type MenuHandler struct {
	menu catalog.Reader
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(menu catalog.Reader) *MenuHandler {
	return &MenuHandler{menu: menu}
}

// RegisterRoutes registers menu endpoints: /menu
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/categories", h.Categories)
}

type modifierResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type menuItemResponse struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       string             `json:"price"`
	Category    string             `json:"category"`
	IsAvailable bool               `json:"is_available"`
	IsFeatured  bool               `json:"is_featured"`
	Modifiers   []modifierResponse `json:"modifiers"`
}

// List handles GET /menu?category=&featured=true. Unavailable items are
// listed too so the app can show them as sold out.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.ListMenuItems(r.Context())
	if err != nil {
		zap.S().Errorw("list menu items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	q := r.URL.Query()
	items = catalog.Filter(items, q.Get("category"), q.Get("featured") == "true")

	resp := make([]menuItemResponse, len(items))
	for i, it := range items {
		mods := make([]modifierResponse, len(it.Modifiers))
		for j, m := range it.Modifiers {
			mods[j] = modifierResponse{ID: m.ID, Name: m.Name, Price: m.Price.StringFixed(2)}
		}
		resp[i] = menuItemResponse{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price.StringFixed(2),
			Category:    it.Category,
			IsAvailable: it.IsAvailable,
			IsFeatured:  it.IsFeatured,
			Modifiers:   mods,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Categories handles GET /menu/categories.
func (h *MenuHandler) Categories(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.ListMenuItems(r.Context())
	if err != nil {
		zap.S().Errorw("list menu items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	categories := catalog.Categories(items)
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}
