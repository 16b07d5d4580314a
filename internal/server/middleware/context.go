package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/aquarisk/cras/backend/internal/geostore"
	"github.com/aquarisk/cras/backend/internal/hydro"
	"github.com/aquarisk/cras/backend/pkg/leaselock"
)

type AppUser struct {
	UserID      int64
	Role        string
	Permissions []string
}

// App bundles the shared collaborators every handler reaches through the
// request context: the database pool, the history queue channel, the JWKS
// keyfunc, object storage, the geo store and the analysis engine.
type App struct {
	DBConn         *pgxpool.Pool
	Queue          *amqp091.Channel
	Key            *keyfunc.Keyfunc
	S3             *s3.Client
	Store          *geostore.Store
	Snapshots      *hydro.Manager
	Analyzer       *hydro.Analyzer
	Locks          *leaselock.Client
	MasterAPIKey   string
	MasterUserID   int64
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
