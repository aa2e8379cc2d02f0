// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"go-storefront/controllers"
	"go-storefront/db"
	"go-storefront/events"
	"go-storefront/routes"
	"go-storefront/utils"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	// Set the JWT secret key
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	utils.JwtKey = []byte(secret)

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "storefront"
	}

	// The database handle connects lazily on first use
	database := db.New(mongoURI, dbName)

	// Initialize EmailService and the optional event publisher
	emailService := utils.NewEmailService()
	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}
	publisher := events.NewPublisher(brokers)

	// Initialize controllers
	userController := controllers.NewUserController(database)
	productController := controllers.NewProductController(database, "uploads/products")
	cartController := controllers.NewCartController(database)
	orderController := controllers.NewOrderController(database, emailService, publisher)

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, userController, productController, cartController, orderController)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Server is running on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := publisher.Close(); err != nil {
		log.Printf("event publisher close: %v", err)
	}
	if err := database.Disconnect(ctx); err != nil {
		log.Printf("database disconnect: %v", err)
	}
	log.Println("Server stopped")
}
