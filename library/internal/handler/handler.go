package handler

import (
	"net/http"
	"strconv"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/AliMakkawi/library-management/pkg/metrics"
	md "github.com/AliMakkawi/library-management/pkg/middleware"
	"github.com/AliMakkawi/library-management/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/AliMakkawi/library-management/library/docs"
)

type Handler struct {
	librarySvc LibraryService
	tokens     md.TokenParser
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func New(librarySvc LibraryService, tokens md.TokenParser, m *metrics.Metrics, log *zap.Logger) *Handler {
	return &Handler{
		librarySvc: librarySvc,
		tokens:     tokens,
		metrics:    m,
		log:        log.Named("handler"),
	}
}

// @title Library API
// @version 1.0
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))
	if h.metrics != nil {
		e.Use(h.metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))
	}

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	secured := api.Group("", md.JwtAuthentication(h.tokens))

	secured.GET("/books", h.ListBooks)
	secured.GET("/books/:id", h.GetBook)
	secured.POST("/books", h.CreateBook)
	secured.PUT("/books/:id", h.UpdateBook)
	secured.DELETE("/books/:id", h.DeleteBook)
	secured.POST("/books/:id/checkout", h.Checkout)
	secured.POST("/books/:id/summary", h.Summarize)

	secured.GET("/borrowings", h.ListBorrowings)
	secured.POST("/borrowings/:id/return", h.ReturnBook)

	secured.GET("/members", h.ListMembers)
	secured.PATCH("/members/:id/role", h.UpdateUserRole)
	secured.POST("/invitations", h.CreateInvitation)
	secured.GET("/invitations", h.ListInvitations)

	secured.GET("/dashboard", h.Dashboard)
	secured.GET("/dashboard/recent", h.RecentBorrowings)

	secured.POST("/ai/search", h.SearchBooks)
	secured.GET("/activity", h.ListActivity)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrNoCopiesAvailable):
		return http.StatusConflict
	case errors.Is(err, errs.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	switch errs.KindOf(err) {
	case errs.KindUnauthorized:
		return http.StatusForbidden
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindConflict:
		return http.StatusConflict
	case errs.KindExpired:
		return http.StatusGone
	case errs.KindInvalid:
		return http.StatusBadRequest
	case errs.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(err error) error {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.Error(err))
	}
	return echo.NewHTTPError(code, err.Error())
}

func actorFrom(c echo.Context) (auth.Actor, error) {
	actor, err := auth.GetActor(c.Request().Context())
	if err != nil {
		return auth.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return actor, nil
}

func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func intQuery(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return n, nil
}
