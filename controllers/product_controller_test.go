package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tiendabot/tiendabot-api/config"
	"github.com/tiendabot/tiendabot-api/models"
	"github.com/tiendabot/tiendabot-api/services"
)

func setupProductTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&models.Merchant{}, &models.Product{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func productRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/merchants/:id/products", CreateProduct)
	router.GET("/api/v1/merchants/:id/products", ListProducts)
	router.POST("/api/v1/products/:id/image", UploadProductImage)
	router.PATCH("/api/v1/products/:id/stock", AdjustStock)
	return router
}

func TestCreateProduct(t *testing.T) {
	db := setupProductTestDB(t)
	config.SetDB(db)

	merchant := models.Merchant{Name: "Kiosco El Paso", Phone: "5491100000000"}
	require.NoError(t, db.Create(&merchant).Error)

	router := productRouter()

	tests := []struct {
		name           string
		merchantID     uint
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name:       "successfully create product",
			merchantID: merchant.ID,
			requestBody: map[string]interface{}{
				"name":       "Coca Cola 1.5L",
				"price":      1500.0,
				"quantity":   10,
				"categories": "bebidas,gaseosas",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing name",
			merchantID:     merchant.ID,
			requestBody:    map[string]interface{}{"price": 1500.0},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:           "zero price",
			merchantID:     merchant.ID,
			requestBody:    map[string]interface{}{"name": "Gratis", "price": 0},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:           "unknown merchant",
			merchantID:     999,
			requestBody:    map[string]interface{}{"name": "Coca", "price": 10.0},
			expectedStatus: http.StatusNotFound,
			expectedError:  "MERCHANT_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, _ := json.Marshal(tt.requestBody)
			req, _ := http.NewRequest("POST", fmt.Sprintf("/api/v1/merchants/%d/products", tt.merchantID), bytes.NewBuffer(payload))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			if tt.expectedError != "" {
				errData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errData["code"])
			} else {
				assert.True(t, response["success"].(bool))
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "Coca Cola 1.5L", data["name"])
				assert.Equal(t, float64(10), data["quantity"])
			}
		})
	}
}

func TestListProductsWithPresignedURLs(t *testing.T) {
	db := setupProductTestDB(t)
	config.SetDB(db)

	merchant := models.Merchant{Name: "Kiosco El Paso", Phone: "5491100000000"}
	require.NoError(t, db.Create(&merchant).Error)

	media := services.NewMockMediaService()
	media.SetAsMockForTesting()
	t.Cleanup(func() { services.SetMediaService(nil) })

	fileHeader := makeImageFileHeader(t, "coca.png", []byte("fake-png-bytes"))
	s3Key, err := media.UploadProductImage(merchant.ID, fileHeader)
	require.NoError(t, err)

	withImage := models.Product{MerchantID: merchant.ID, Name: "Coca Cola 1.5L", Price: 1500, Quantity: 10, ImageS3Key: &s3Key}
	plain := models.Product{MerchantID: merchant.ID, Name: "Factura", Price: 300, Quantity: 24}
	require.NoError(t, db.Create(&withImage).Error)
	require.NoError(t, db.Create(&plain).Error)

	router := productRouter()
	req, _ := http.NewRequest("GET", fmt.Sprintf("/api/v1/merchants/%d/products", merchant.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].([]interface{})
	require.Len(t, data, 2)

	first := data[0].(map[string]interface{})
	assert.Contains(t, first["image_url"].(string), s3Key)
	second := data[1].(map[string]interface{})
	_, hasURL := second["image_url"]
	assert.False(t, hasURL, "products without photos carry no image_url")
}

func TestUploadProductImage(t *testing.T) {
	db := setupProductTestDB(t)
	config.SetDB(db)

	merchant := models.Merchant{Name: "Kiosco El Paso", Phone: "5491100000000"}
	require.NoError(t, db.Create(&merchant).Error)
	product := models.Product{MerchantID: merchant.ID, Name: "Coca Cola 1.5L", Price: 1500, Quantity: 10}
	require.NoError(t, db.Create(&product).Error)

	media := services.NewMockMediaService()
	media.SetAsMockForTesting()
	t.Cleanup(func() { services.SetMediaService(nil) })

	router := productRouter()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "coca.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-png-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest("POST", fmt.Sprintf("/api/v1/products/%d/image", product.ID), body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stored models.Product
	require.NoError(t, db.First(&stored, product.ID).Error)
	require.NotNil(t, stored.ImageS3Key)
	assert.True(t, media.ImageExists(*stored.ImageS3Key))
}

func TestUploadProductImageRejectsBadFormat(t *testing.T) {
	db := setupProductTestDB(t)
	config.SetDB(db)

	merchant := models.Merchant{Name: "Kiosco El Paso", Phone: "5491100000000"}
	require.NoError(t, db.Create(&merchant).Error)
	product := models.Product{MerchantID: merchant.ID, Name: "Coca Cola 1.5L", Price: 1500, Quantity: 10}
	require.NoError(t, db.Create(&product).Error)

	media := services.NewMockMediaService()
	media.SetAsMockForTesting()
	t.Cleanup(func() { services.SetMediaService(nil) })

	router := productRouter()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "coca.gif")
	require.NoError(t, err)
	_, err = part.Write([]byte("gif-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest("POST", fmt.Sprintf("/api/v1/products/%d/image", product.ID), body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	errData := response["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_FILE_FORMAT", errData["code"])
}

func TestAdjustStock(t *testing.T) {
	db := setupProductTestDB(t)
	config.SetDB(db)

	merchant := models.Merchant{Name: "Kiosco El Paso", Phone: "5491100000000"}
	require.NoError(t, db.Create(&merchant).Error)
	product := models.Product{MerchantID: merchant.ID, Name: "Coca Cola 1.5L", Price: 1500, Quantity: 5}
	require.NoError(t, db.Create(&product).Error)

	router := productRouter()

	adjust := func(delta int) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(map[string]interface{}{"delta": delta})
		req, _ := http.NewRequest("PATCH", fmt.Sprintf("/api/v1/products/%d/stock", product.ID), bytes.NewBuffer(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := adjust(10)
	assert.Equal(t, http.StatusOK, w.Code)

	w = adjust(-3)
	assert.Equal(t, http.StatusOK, w.Code)

	var stored models.Product
	require.NoError(t, db.First(&stored, product.ID).Error)
	assert.Equal(t, 12, stored.Quantity)

	// Going below zero trips the conditional-update guard
	w = adjust(-50)
	assert.Equal(t, http.StatusConflict, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	errData := response["error"].(map[string]interface{})
	assert.Equal(t, "INSUFFICIENT_STOCK", errData["code"])

	require.NoError(t, db.First(&stored, product.ID).Error)
	assert.Equal(t, 12, stored.Quantity)
}

// makeImageFileHeader builds an in-memory multipart file header for tests
func makeImageFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["image"][0]
}
