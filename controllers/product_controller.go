package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tiendabot/tiendabot-api/config"
	"github.com/tiendabot/tiendabot-api/models"
	"github.com/tiendabot/tiendabot-api/services"
	"github.com/tiendabot/tiendabot-api/utils"
)

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	Name       string  `json:"name" binding:"required"`
	Price      float64 `json:"price" binding:"required,gt=0"`
	Quantity   int     `json:"quantity" binding:"gte=0"`
	Categories string  `json:"categories"`
}

// CreateProduct handles POST /api/v1/merchants/:id/products - adds a catalog item
func CreateProduct(c *gin.Context) {
	db := config.GetDB()

	var merchant models.Merchant
	if err := db.First(&merchant, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MERCHANT_NOT_FOUND",
				"message": "Merchant not found",
			},
		})
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	product := models.Product{
		MerchantID: merchant.ID,
		Name:       req.Name,
		Price:      req.Price,
		Quantity:   req.Quantity,
		Categories: req.Categories,
	}
	if err := db.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create product",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    product,
	})
}

// ListProducts handles GET /api/v1/merchants/:id/products - lists the catalog
func ListProducts(c *gin.Context) {
	db := config.GetDB()

	var products []models.Product
	if err := db.Where("merchant_id = ?", c.Param("id")).Order("id").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load products",
			},
		})
		return
	}

	// Attach presigned image URLs when available
	if media := services.GetMediaService(); media != nil {
		for i := range products {
			if products[i].ImageS3Key == nil {
				continue
			}
			url, err := media.GetPresignedURL(*products[i].ImageS3Key)
			if err != nil {
				log.Printf("failed to presign image for product %d: %v", products[i].ID, err)
				continue
			}
			products[i].ImageURL = &url
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
	})
}

// UploadProductImage handles POST /api/v1/products/:id/image - stores a
// product photo in S3 and links it to the product
func UploadProductImage(c *gin.Context) {
	db := config.GetDB()

	var product models.Product
	if err := db.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PRODUCT_NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "An image file is required",
			},
		})
		return
	}

	if err := utils.ValidateImageFile(fileHeader); err != nil {
		code := "INVALID_FILE"
		if fileErr, ok := err.(*utils.ImageFileError); ok {
			code = fileErr.Code
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	media := services.GetMediaService()
	if media == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MEDIA_UNAVAILABLE",
				"message": "Image storage is not configured",
			},
		})
		return
	}

	s3Key, err := media.UploadProductImage(product.MerchantID, fileHeader)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_ERROR",
				"message": "Failed to store image",
			},
		})
		return
	}

	// Replace a previous photo, if any
	if product.ImageS3Key != nil && *product.ImageS3Key != s3Key {
		if err := media.DeleteImage(*product.ImageS3Key); err != nil {
			log.Printf("failed to delete old image %s: %v", *product.ImageS3Key, err)
		}
	}

	if err := db.Model(&product).Update("image_s3_key", s3Key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to link image to product",
			},
		})
		return
	}
	product.ImageS3Key = &s3Key

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}

// AdjustStockRequest represents the request body for a manual stock adjustment
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// AdjustStock handles PATCH /api/v1/products/:id/stock - applies a manual
// stock adjustment. Negative deltas use the same conditional-update guard as
// reservations so stock can never go below zero.
func AdjustStock(c *gin.Context) {
	db := config.GetDB()

	var product models.Product
	if err := db.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PRODUCT_NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	query := db.Model(&models.Product{}).Where("id = ?", product.ID)
	if req.Delta < 0 {
		query = query.Where("quantity >= ?", -req.Delta)
	}
	result := query.Update("quantity", gorm.Expr("quantity + ?", req.Delta))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to adjust stock",
			},
		})
		return
	}
	if result.RowsAffected != 1 {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INSUFFICIENT_STOCK",
				"message": "Stock cannot go below zero",
			},
		})
		return
	}

	if err := db.First(&product, product.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to reload product",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}
