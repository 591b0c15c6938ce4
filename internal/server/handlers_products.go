package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/matthieukhl/freshmart/internal/catalog"
	"github.com/matthieukhl/freshmart/internal/types"
)

const maxImageSize = 5 << 20

func (s *Server) listProducts(c *gin.Context) {
	res, err := s.deps.Catalog.List(c.Request.Context(), catalog.ListParams{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		InStock:  c.Query("inStock"),
		Sort:     c.Query("sort"),
		Page:     c.Query("page"),
		Limit:    c.Query("limit"),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondPage(c, res)
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.deps.Catalog.Categories(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, categories)
}

func (s *Server) getProduct(c *gin.Context) {
	id, err := pathID(c, "Product not found")
	if err != nil {
		s.respondError(c, err)
		return
	}

	product, err := s.deps.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, product)
}

func (s *Server) createProduct(c *gin.Context) {
	var input catalog.ProductInput
	if err := c.ShouldBind(&input); err != nil {
		s.respondBindError(c, err)
		return
	}

	upload, closeUpload, err := imageUpload(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer closeUpload()

	product, err := s.deps.Catalog.Create(c.Request.Context(), input, upload)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, product)
}

func (s *Server) updateProduct(c *gin.Context) {
	id, err := pathID(c, "Product not found")
	if err != nil {
		s.respondError(c, err)
		return
	}

	var patch catalog.ProductPatch
	if err := c.ShouldBind(&patch); err != nil {
		s.respondBindError(c, err)
		return
	}

	upload, closeUpload, err := imageUpload(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer closeUpload()

	product, err := s.deps.Catalog.Update(c.Request.Context(), id, patch, upload)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, product)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, err := pathID(c, "Product not found")
	if err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.deps.Catalog.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, true, "Product deleted successfully")
}

// imageUpload opens the optional multipart "image" file
func imageUpload(c *gin.Context) (*types.ImageSource, func(), error) {
	noop := func() {}

	header, err := c.FormFile("image")
	if err != nil {
		return nil, noop, nil
	}
	if header.Size > maxImageSize {
		return nil, noop, types.Validation("server.imageUpload", "Image must be 5MB or smaller",
			types.FieldError{Field: "image", Message: "Image must be 5MB or smaller"})
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, err
	}
	return &types.ImageSource{Filename: header.Filename, Reader: file}, func() { file.Close() }, nil
}

// pathID parses the :id parameter; a malformed id is reported as not found
func pathID(c *gin.Context, notFound string) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, types.NotFound("server.pathID", notFound)
	}
	return id, nil
}
