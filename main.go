package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"task-management-service/handlers"
	"task-management-service/logging"
	"task-management-service/middleware"
	"task-management-service/models"
	"task-management-service/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Management Service...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer mongoClient.Disconnect(ctx)

	if err := mongoClient.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	tasksCollection := mongoClient.Database(mongoDBName).Collection("tasks")
	usersCollection := mongoClient.Database(mongoDBName).Collection("users")

	neo4jURI := os.Getenv("NEO4J_URI")
	neo4jUser := os.Getenv("NEO4J_USER")
	neo4jPass := os.Getenv("NEO4J_PASS")

	graphDriver, err := neo4j.NewDriverWithContext(neo4jURI, neo4j.BasicAuth(neo4jUser, neo4jPass, ""))
	if err != nil {
		logging.Logger.Fatalf("Event ID: GRAPH_CONNECTION_FAILED, Description: Neo4j driver creation failed: %v", err)
	}
	defer graphDriver.Close(ctx)

	if err := graphDriver.VerifyConnectivity(ctx); err != nil {
		logging.Logger.Fatalf("Event ID: GRAPH_PING_FAILED, Description: Neo4j connectivity check failed: %v", err)
	}
	logging.Logger.Infof("Event ID: GRAPH_CONNECTED, Description: Successfully connected to Neo4j at %s.", neo4jURI)

	graphBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GraphStoreCB",
		MaxRequests: 1,
		Timeout:     2 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	var blackList map[string]bool
	if blackListFile := os.Getenv("BLACKLIST_FILE"); blackListFile != "" {
		blackList, err = services.LoadBlackList(blackListFile)
		if err != nil {
			logging.Logger.Fatalf("Event ID: BLACKLIST_LOAD_FAILED, Description: Failed to load password blacklist: %v", err)
		}
	}

	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	graphService := services.NewGraphService(graphDriver)
	userService := services.NewUserService(usersCollection, blackList)
	taskService := services.NewTaskService(tasksCollection, usersCollection, graphService, graphBreaker, baseURL)
	tokenBlacklist := services.NewTokenBlacklist()

	taskHandler := handlers.NewTaskHandler(taskService)
	userHandler := handlers.NewUserHandler(userService)
	loginHandler := &handlers.LoginHandler{UserService: userService, TokenBlacklist: tokenBlacklist}

	r := mux.NewRouter()

	r.HandleFunc("/api/register", loginHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/login", loginHandler.Login).Methods(http.MethodPost)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.JWTAuthMiddleware(tokenBlacklist))

	protected.HandleFunc("/logout", loginHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/user", userHandler.GetLoggedInUser).Methods(http.MethodGet)
	protected.HandleFunc("/user/update", userHandler.UpdateUser).Methods(http.MethodPost)

	protected.HandleFunc("/change-role", middleware.RequireRoleAtLeast(models.RoleAdmin, userHandler.ChangeUserRole)).Methods(http.MethodPost)

	protected.HandleFunc("/users", middleware.RequireRoleAtLeast(models.RoleManager, userHandler.GetUsers)).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}", middleware.RequireRoleAtLeast(models.RoleManager, userHandler.GetUser)).Methods(http.MethodGet)

	protected.HandleFunc("/tasks/create", middleware.RequireRoleAtLeast(models.RoleManager, taskHandler.CreateTask)).Methods(http.MethodPost)
	protected.HandleFunc("/tasks", taskHandler.GetTasks).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}/change-status", taskHandler.ChangeTaskStatus).Methods(http.MethodPost)

	protected.HandleFunc("/tasks/{id}/dependencies", middleware.RequireRoleAtLeast(models.RoleManager, taskHandler.AddDependency)).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}/dependencies/{dependsOnId}", middleware.RequireRoleAtLeast(models.RoleManager, taskHandler.RemoveDependency)).Methods(http.MethodDelete)

	protected.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	protected.HandleFunc("/tasks/{id}/restore", taskHandler.RestoreTask).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}/force", taskHandler.ForceDeleteTask).Methods(http.MethodDelete)

	corsRouter := middleware.EnableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8000"
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      corsRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
