package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"go-storefront/db"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/utils"
)

// UserController handles signup, login and profile requests
type UserController struct {
	DB *db.DB
}

// NewUserController creates a new UserController
func NewUserController(database *db.DB) *UserController {
	return &UserController{DB: database}
}

type registerRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Address  models.Address `json:"address"`
}

// parseRegisterRequest decodes and validates a signup payload. The account
// id and role are assigned here, never taken from the client.
func parseRegisterRequest(body io.Reader) (models.User, error) {
	var req registerRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return models.User{}, utils.InvalidInput("Invalid input")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return models.User{}, utils.InvalidInput("name, email and password are required")
	}
	return models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Role:     models.RoleUser, // Default role
	}, nil
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	user, err := parseRegisterRequest(r.Body)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := uc.DB.Collection(ctx, "users")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	count, err := users.CountDocuments(ctx, bson.M{"email": user.Email})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if count > 0 {
		utils.WriteError(w, utils.InvalidInput("User already exists"))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	user.Password = string(hashedPassword)

	result, err := users.InsertOne(ctx, user)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	user.Password = ""

	utils.WriteJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		utils.WriteError(w, utils.InvalidInput("Invalid input"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := uc.DB.Collection(ctx, "users")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var user models.User
	err = users.FindOne(ctx, bson.M{"email": creds.Email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.WriteError(w, utils.Unauthenticated("Invalid email or password"))
		return
	}
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		utils.WriteError(w, utils.Unauthenticated("Invalid email or password"))
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, utils.Unauthenticated("Unauthorized"))
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		utils.WriteError(w, utils.Unauthenticated("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := uc.DB.Collection(ctx, "users")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var user models.User
	err = users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.WriteError(w, utils.NotFound("User not found"))
		return
	}
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	user.Password = ""
	utils.WriteJSON(w, http.StatusOK, user)
}
