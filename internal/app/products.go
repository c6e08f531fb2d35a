package app

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/MrEthical07/guardian/internal/httpx"
	"github.com/MrEthical07/guardian/internal/repository"
)

// maxImageBytes caps product image uploads.
const maxImageBytes = 2 << 20

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

type productRequest struct {
	Title       string  `json:"title" validate:"required,max=72"`
	Price       float64 `json:"price" validate:"gte=0"`
	Description string  `json:"description" validate:"required,max=6000"`
}

type productResource struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	Commands    string     `json:"commands,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// productResources renders products for the caller; only admins see the
// link to a product's commands.
func productResources(r *http.Request) func(repository.Product) productResource {
	admin := isAdmin(r)
	return func(p repository.Product) productResource {
		base := "/products/" + strconv.FormatInt(p.ID, 10)
		res := productResource{
			ID:          p.ID,
			Title:       p.Title,
			Price:       p.Price,
			Description: p.Description,
			Image:       base + "/image",
			DeletedAt:   p.DeletedAt,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		}
		if admin {
			res.Commands = base + "/commands"
		}
		return res
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.products.FindPaginatedProducts(r.Context(), pageParam(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mapPage(page, productResources(r)))
}

func (h *Handler) listTrashedProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.products.FindPaginatedTrashedProducts(r.Context(), pageParam(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mapPage(page, productResources(r)))
}

// liveProduct loads the {id} product, treating a trashed one as missing.
func (h *Handler) liveProduct(r *http.Request) (*repository.Product, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	p, err := h.products.FindProductByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if p.DeletedAt != nil {
		return nil, fmt.Errorf("product %d: %w", id, repository.ErrNotFound)
	}
	return p, nil
}

func (h *Handler) showProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.liveProduct(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, productResources(r)(*p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	p, err := h.products.CreateProduct(r.Context(), repository.ProductInput(req))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, productResources(r)(*p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req productRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.products.UpdateProduct(r.Context(), id, repository.ProductInput(req)); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) restoreProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.products.RestoreProduct(r.Context(), id); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) productImage(w http.ResponseWriter, r *http.Request) {
	p, err := h.liveProduct(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	img, err := h.products.FindProductImage(r.Context(), p.ID)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

// uploadProductImage takes the raw image as the request body. The type is
// sniffed from the bytes; the request's Content-Type is ignored.
func (h *Handler) uploadProductImage(w http.ResponseWriter, r *http.Request) {
	p, err := h.liveProduct(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: image larger than %d bytes", httpx.ErrValidation, maxImageBytes)
		}
		httpx.RespondError(w, r, err)
		return
	}
	if len(data) == 0 {
		httpx.RespondError(w, r, fmt.Errorf("%w: empty image", httpx.ErrValidation))
		return
	}
	ct := http.DetectContentType(data)
	if !imageTypes[ct] {
		httpx.RespondError(w, r, fmt.Errorf("%w: unsupported image type %s", httpx.ErrValidation, ct))
		return
	}
	if err := h.products.UpdateProductImage(r.Context(), p.ID, repository.ProductImage{ContentType: ct, Data: data}); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// productCommands lists the payments placed for a product, trashed or not.
func (h *Handler) productCommands(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if _, err := h.products.FindProductByID(r.Context(), id); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	page, err := h.payments.FindPaginatedPaymentsForProduct(r.Context(), id, pageParam(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}
