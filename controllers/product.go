package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"go-storefront/db"
	"go-storefront/models"
	"go-storefront/utils"
)

// Image upload limits
const maxImageSize = 2 << 20 // 2MB

var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// ProductController handles catalog requests
type ProductController struct {
	DB        *db.DB
	UploadDir string
}

// NewProductController creates a new ProductController
func NewProductController(database *db.DB, uploadDir string) *ProductController {
	return &ProductController{DB: database, UploadDir: uploadDir}
}

type productRequest struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// parseProductRequest decodes and validates a product payload. Only the
// writable fields cross over; the id and image path are never
// client-chosen.
func parseProductRequest(body io.Reader) (models.Product, error) {
	var req productRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return models.Product{}, utils.InvalidInput("Invalid input")
	}
	if req.Name == "" || req.Price <= 0 || req.Category == "" {
		return models.Product{}, utils.InvalidInput("name, price and category are required")
	}
	return models.Product{
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		Description: req.Description,
	}, nil
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	product, err := parseProductRequest(r.Body)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	products, err := pc.DB.Collection(ctx, "products")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	result, err := products.InsertOne(ctx, product)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	product.ID = result.InsertedID.(primitive.ObjectID)

	utils.WriteJSON(w, http.StatusCreated, product)
}

// GetProducts retrieves all products
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	collection, err := pc.DB.Collection(ctx, "products")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	product, err := pc.loadProduct(ctx, mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// UpdateProduct handles updating a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, utils.InvalidInput("Invalid product ID"))
		return
	}

	product, err := parseProductRequest(r.Body)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	products, err := pc.DB.Collection(ctx, "products")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"price":       product.Price,
		"category":    product.Category,
		"description": product.Description,
	}}
	result, err := products.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if result.MatchedCount == 0 {
		utils.WriteError(w, utils.NotFound("Product not found"))
		return
	}
	product.ID = id

	utils.WriteJSON(w, http.StatusOK, product)
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, utils.InvalidInput("Invalid product ID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	products, err := pc.DB.Collection(ctx, "products")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	result, err := products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if result.DeletedCount == 0 {
		utils.WriteError(w, utils.NotFound("Product not found"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Deleted", "id": id.Hex()})
}

// UploadProductImage stores a product image (Admin only). Expects a
// multipart form with an "image" field.
func (pc *ProductController) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	product, err := pc.loadProduct(ctx, mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	// Cap the whole request body; the slack covers multipart framing. The
	// per-file limit is enforced again in saveImage.
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+(1<<20))
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		utils.WriteError(w, utils.InvalidInput("Failed to parse multipart form"))
		return
	}
	file, handler, err := r.FormFile("image")
	if err != nil {
		utils.WriteError(w, utils.InvalidInput("Image file required"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(handler.Filename))
	if !allowedImageExts[ext] {
		utils.WriteError(w, utils.InvalidInput("Only png, jpg, jpeg and webp images are allowed"))
		return
	}

	filename, err := saveImage(file, pc.UploadDir, ext)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	products, err := pc.DB.Collection(ctx, "products")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	image := "/uploads/products/" + filename
	_, err = products.UpdateOne(ctx, bson.M{"_id": product.ID}, bson.M{"$set": bson.M{"image": image}})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	product.Image = image

	utils.WriteJSON(w, http.StatusOK, product)
}

// saveImage writes an uploaded image into dir under a fresh random name
// and returns the filename. An upload past the size cap is rejected, not
// truncated; nothing is left on disk when the save fails.
func saveImage(file io.Reader, dir, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filename := uuid.NewString() + ext
	path := filepath.Join(dir, filename)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	// Read one byte past the cap so an oversized upload is detectable.
	n, err := io.Copy(dst, io.LimitReader(file, maxImageSize+1))
	if err != nil {
		os.Remove(path)
		return "", err
	}
	if n > maxImageSize {
		os.Remove(path)
		return "", utils.InvalidInput("Image exceeds the 2MB size limit")
	}
	return filename, nil
}

// loadProduct fetches one product by its hex id.
func (pc *ProductController) loadProduct(ctx context.Context, idHex string) (models.Product, error) {
	var product models.Product
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return product, utils.InvalidInput("Invalid product ID")
	}
	products, err := pc.DB.Collection(ctx, "products")
	if err != nil {
		return product, err
	}
	err = products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return product, utils.NotFound("Product not found")
	}
	return product, err
}
