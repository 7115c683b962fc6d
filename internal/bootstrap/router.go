package bootstrap

import (
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/campusbridge/projects-backend/internal/api/http"
	"github.com/campusbridge/projects-backend/internal/api/http/middleware"
	"github.com/campusbridge/projects-backend/internal/auth"
	"github.com/campusbridge/projects-backend/internal/enterprises"
	projecthttp "github.com/campusbridge/projects-backend/internal/projects/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	DB          *pgxpool.Pool
	Redis       *redis.Client
	AuthClient  *fbauth.Client
	Projects    projecthttp.Service
	Log         *zap.Logger
}

func SetGinMode(env string) {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	if len(dep.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     dep.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestID(dep.Log))

	enterpriseRepo := enterprises.NewRepo(dep.DB)
	api.Use(auth.WithEnterprise(dep.AuthClient, enterpriseRepo))

	h := projecthttp.New(dep.Projects)
	h.Register(api.Group("/projects"), api.Group("/enterprises"))

	return r
}
