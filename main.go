package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	authpb "github.com/wersvet/chat_1/proto/auth"
	userpb "github.com/wersvet/user-service/proto/user"

	"group-service/internal/db"
	grpcclient "group-service/internal/grpc"
	"group-service/internal/handlers"
	"group-service/internal/middleware"
	"group-service/internal/notifications"
	"group-service/internal/observability"
	"group-service/internal/rabbitmq"
	"group-service/internal/repositories"
	"group-service/internal/services"
	"group-service/internal/telemetry"
	"group-service/internal/ws"
)

func main() {
	shutdownTracer := initTracer()
	defer shutdownTracer()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	authAddr := getEnv("AUTH_GRPC_ADDR", "localhost:8084")
	userAddr := getEnv("USER_GRPC_ADDR", "localhost:8085")

	authConn, err := grpc.Dial(authAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect to auth grpc: %v", err)
	}
	defer authConn.Close()

	userConn, err := grpc.Dial(userAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect to user grpc: %v", err)
	}
	defer userConn.Close()

	authClient := grpcclient.NewAuthClient(authpb.NewAuthServiceClient(authConn))
	userClient := grpcclient.NewUserClient(userpb.NewUserInternalClient(userConn))

	amqpURL := getEnv("AMQP_URL", "")
	exchange := getEnv("AMQP_EXCHANGE", "social.events")
	environment := getEnv("ENVIRONMENT", "development")

	publisher := rabbitmq.NewPublisher(amqpURL, exchange)
	defer publisher.Close()
	log.Printf("amqp publisher mode=%s", rabbitmq.PublisherMode(publisher))

	if amqpURL != "" {
		if obsPublisher, err := observability.NewAMQPPublisher(amqpURL, exchange); err != nil {
			log.Printf("ws event publisher disabled: %v", err)
		} else {
			observability.SetPublisher(obsPublisher)
			defer obsPublisher.Close()
		}
	}

	notifier := notifications.NewNotifier(publisher, "notifications.groups", "group-service")
	audit := telemetry.NewAuditEmitter(publisher, "audit.logs", "group-service", environment)

	groupRepo := repositories.NewGroupRepo(database)
	postRepo := repositories.NewPostRepo(database)

	membership := services.NewMembershipService(groupRepo, userClient, notifier)
	admin := services.NewAdminService(groupRepo, postRepo, userClient)
	postMod := services.NewPostModerationService(admin)

	hub := ws.NewHub()

	groupHandler := handlers.NewGroupHandler(membership, admin, postMod, userClient, hub, audit)
	postHandler := handlers.NewPostHandler(membership, postRepo, userClient, audit)
	groupWS := ws.NewGroupWebSocketHandler(hub, groupRepo, authClient)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("group-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authClient)

	router.POST("/groups", authMiddleware, groupHandler.CreateGroup)
	router.GET("/groups", authMiddleware, groupHandler.ListGroups)
	router.GET("/groups/:group_id", authMiddleware, groupHandler.GetGroup)
	router.PUT("/groups/:group_id", authMiddleware, groupHandler.UpdateGroup)
	router.DELETE("/groups/:group_id", authMiddleware, groupHandler.DeleteGroup)
	router.POST("/groups/:group_id/join", authMiddleware, groupHandler.JoinGroup)
	router.POST("/groups/:group_id/approve", authMiddleware, groupHandler.ApproveMember)
	router.POST("/groups/:group_id/leave", authMiddleware, groupHandler.LeaveGroup)
	router.GET("/groups/:group_id/members", authMiddleware, groupHandler.GetMembers)
	router.DELETE("/groups/:group_id/members/:user_id", authMiddleware, groupHandler.RemoveMember)
	router.GET("/groups/:group_id/requests", authMiddleware, groupHandler.ListJoinRequests)
	router.GET("/groups/:group_id/admins", authMiddleware, groupHandler.ListAdmins)
	router.POST("/groups/:group_id/admins", authMiddleware, groupHandler.PromoteAdmin)
	router.DELETE("/groups/:group_id/admins/:user_id", authMiddleware, groupHandler.DemoteAdmin)
	router.POST("/groups/:group_id/posts", authMiddleware, postHandler.CreatePost)
	router.GET("/groups/:group_id/posts", authMiddleware, postHandler.ListPosts)
	router.DELETE("/groups/:group_id/posts/:post_id", authMiddleware, groupHandler.RemovePost)

	router.GET("/ws/groups/:group_id", groupWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8086")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// initTracer configures the OTLP trace exporter when an endpoint is set and
// returns a shutdown func.
func initTracer() func() {
	endpoint := getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if endpoint == "" {
		return func() {}
	}

	ctx := context.Background()
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		log.Printf("otel exporter disabled: %v", err)
		return func() {}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("group-service"),
		)),
	)
	otel.SetTracerProvider(tp)

	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
