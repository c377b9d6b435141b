package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/repository"
	"github.com/rkco/fuel-ledger/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubProductRepo struct {
	repository.ProductRepository
	catalog []models.Product
	created []models.Product
}

func (s *stubProductRepo) List(ctx context.Context) ([]models.Product, error) {
	return s.catalog, nil
}

func (s *stubProductRepo) FindByName(ctx context.Context, name string) (*models.Product, error) {
	for i := range s.catalog {
		if s.catalog[i].Name == name {
			return &s.catalog[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) Create(ctx context.Context, product *models.Product) error {
	product.ID = uint(len(s.catalog) + 1)
	s.catalog = append(s.catalog, *product)
	s.created = append(s.created, *product)
	return nil
}

func postProduct(handler *ProductHandler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/products", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.Create(c)
	return w
}

func TestProductHandler_Create(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedUnit   string
	}{
		{name: "flat", body: `{"name":"Diesel","base_rate":"278.50"}`, expectedStatus: http.StatusCreated, expectedUnit: models.UnitLitre},
		{name: "nested", body: `{"product":{"name":"mobile oil","unit":"unit"}}`, expectedStatus: http.StatusCreated, expectedUnit: models.UnitPiece},
		{name: "existing name", body: `{"name":"petrol"}`, expectedStatus: http.StatusConflict},
		{name: "not in catalog", body: `{"name":"kerosene"}`, expectedStatus: http.StatusBadRequest},
		{name: "bad unit", body: `{"name":"diesel","unit":"gallon"}`, expectedStatus: http.StatusBadRequest},
		{name: "missing name", body: `{"unit":"litre"}`, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubProductRepo{catalog: []models.Product{{ID: 1, Name: models.ProductPetrol, Unit: models.UnitLitre}}}
			handler := NewProductHandler(services.NewProductService(repo, services.NewAuditService(nopAuditRepo{})))

			w := postProduct(handler, tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			if tt.expectedStatus != http.StatusCreated {
				assert.Empty(t, repo.created)
				return
			}
			var resp struct {
				Product models.Product `json:"product"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedUnit, resp.Product.Unit)
			assert.NotZero(t, resp.Product.ID)
			require.Len(t, repo.created, 1)
		})
	}
}

func TestProductHandler_Index(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("empty catalog renders a list", func(t *testing.T) {
		handler := NewProductHandler(services.NewProductService(&stubProductRepo{}, nil))

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest("GET", "/products", nil)
		handler.Index(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"products":[]}`, w.Body.String())
	})

	t.Run("catalog", func(t *testing.T) {
		repo := &stubProductRepo{catalog: []models.Product{
			{ID: 1, Name: models.ProductDiesel, Unit: models.UnitLitre},
			{ID: 2, Name: models.ProductPetrol, Unit: models.UnitLitre},
		}}
		handler := NewProductHandler(services.NewProductService(repo, nil))

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest("GET", "/products", nil)
		handler.Index(c)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Products []models.Product `json:"products"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Products, 2)
		assert.Equal(t, models.ProductDiesel, resp.Products[0].Name)
	})
}
