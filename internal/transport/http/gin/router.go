package httpgin

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/events"
	"github.com/kirinyoku/raffle-go/internal/metrics"
	"github.com/kirinyoku/raffle-go/internal/payment"
	redisrepo "github.com/kirinyoku/raffle-go/internal/repository/redis"
	"github.com/kirinyoku/raffle-go/internal/service"
	"github.com/kirinyoku/raffle-go/internal/service/auth"
	"github.com/kirinyoku/raffle-go/internal/service/draw"
	"github.com/kirinyoku/raffle-go/internal/service/ledger"
	"github.com/kirinyoku/raffle-go/internal/service/purchase"
	"github.com/kirinyoku/raffle-go/internal/service/query"
	"github.com/kirinyoku/raffle-go/internal/service/raffles"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const maxWebhookBody = 64 << 10

type Options struct {
	// Idempotency replays purchase submissions that carry an
	// Idempotency-Key. Nil disables replay.
	Idempotency *redisrepo.IdempotencyStore
	Hub         *events.Hub
	Gateway     payment.Provider
	Metrics     *metrics.Metrics
	// Heartbeat is the interval of keep-alive events on raffle streams.
	Heartbeat time.Duration
}

func NewRouter(
	svcs *service.Services,
	opts Options,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 15 * time.Second
	}

	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS(), opts.Metrics.Middleware())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/raffles", handleListRaffles(svcs))
	r.GET("/raffles/:id", handleGetRaffle(svcs))
	r.GET("/raffles/:id/numbers", handleListNumbers(svcs))
	r.GET("/raffles/:id/stats", handleRaffleStats(svcs))
	r.GET("/raffles/:id/stream", handleRaffleStream(svcs, opts.Hub, opts.Heartbeat))

	r.POST("/purchases", handleSubmitPurchase(svcs, opts.Idempotency, logger))
	r.GET("/purchases/:id", handleGetPurchase(svcs))

	r.POST("/payments/webhook", handlePaymentWebhook(svcs, opts.Gateway, logger))

	r.POST("/auth/login", handleLogin(svcs))

	// Admin API
	admin := r.Group("/admin", AdminAuth(svcs.Auth))
	{
		admin.POST("/raffles", handleCreateRaffle(svcs))
		admin.PUT("/raffles/:id", handleUpdateRaffle(svcs))
		admin.POST("/raffles/:id/cancel", handleCancelRaffle(svcs))
		admin.DELETE("/raffles/:id", handleDeleteRaffle(svcs))
		admin.POST("/raffles/:id/draw", handleDraw(svcs))
		admin.GET("/purchases", handleListPurchases(svcs))
		admin.POST("/reservations/:token/release", handleReleaseReservation(svcs))
		admin.GET("/stats", handleAdminStats(svcs))
	}

	r.GET("/auth/me", AdminAuth(svcs.Auth), handleMe())

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List raffles
// @Param    status  query  string  false  "active, completed or cancelled"
// @Success  200  {array}   RaffleResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /raffles [get]
func handleListRaffles(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Query.ListRaffles(c.Request.Context(), domain.RaffleStatus(c.Query("status")))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toRaffleResponses(list), "public, max-age=15", true)
	}
}

// @Summary  Get raffle
// @Param    id  path  string  true  "Raffle ID (uuid)"
// @Success  200  {object}  RaffleResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /raffles/{id} [get]
func handleGetRaffle(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		rf, err := svcs.Query.GetRaffle(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toRaffleResponse(rf), "public, max-age=30", true)
	}
}

// @Summary  List raffle numbers
// @Param    id      path   string  true   "Raffle ID (uuid)"
// @Param    status  query  string  false  "available, reserved or sold"
// @Param    limit   query  int     false  "page size"
// @Param    offset  query  int     false  "offset"
// @Success  200  {array}   NumberResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /raffles/{id}/numbers [get]
func handleListNumbers(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		nums, err := svcs.Query.ListNumbers(
			c.Request.Context(),
			id,
			domain.NumberStatus(c.Query("status")),
			parseIntDefault(c.Query("limit"), 0),
			parseIntDefault(c.Query("offset"), 0),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toNumberResponses(nums), "no-cache", true)
	}
}

// @Summary  Raffle statistics
// @Param    id  path  string  true  "Raffle ID (uuid)"
// @Success  200  {object}  domain.RaffleStats
// @Failure  404  {object}  ErrorResponse
// @Router   /raffles/{id}/stats [get]
func handleRaffleStats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		st, err := svcs.Query.Stats(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, st, "public, max-age=5", true)
	}
}

// @Summary  Stream raffle changes (server-sent events)
// @Param    id  path  string  true  "Raffle ID (uuid)"
// @Produce  text/event-stream
// @Success  200  {object}  events.Event
// @Failure  404  {object}  ErrorResponse
// @Router   /raffles/{id}/stream [get]
func handleRaffleStream(svcs *service.Services, hub *events.Hub, heartbeat time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if _, err := svcs.Query.GetRaffle(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		if hub == nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "streaming disabled"})
			return
		}

		ch, unsubscribe := hub.Subscribe(id)
		defer unsubscribe()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case ev, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent(ev.Type, ev)
				return true
			case t := <-ticker.C:
				c.SSEvent("ping", t.Unix())
				return true
			}
		})
	}
}

// @Summary  Submit purchase (idempotent)
// @Param    req  body  PurchaseRequest  true  "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201  {object}  PurchaseResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ConflictResponse "numbers unavailable / idem in progress"
// @Failure  429  {object}  ErrorResponse "rate limited"
// @Failure  502  {object}  UpstreamResponse "payment provider unavailable"
// @Router   /purchases [post]
func handleSubmitPurchase(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PurchaseRequest
		if !bindValid(c, &req) {
			return
		}

		ctx := c.Request.Context()

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemPurchase(idemKey)

			if replayIdempotent(c, idem, idemStorageKey, idemKey) {
				return
			}

			locked, err := idem.AcquireLock(ctx, idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if replayIdempotent(c, idem, idemStorageKey, idemKey) {
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		submit := req.toSubmit("ip:" + c.ClientIP())
		attempt, err := svcs.Purchase.Submit(ctx, submit)
		status, body := purchaseResult(submit, attempt, err)

		var rl purchase.RateLimitedError
		if errors.As(err, &rl) {
			c.Header("Retry-After", strconv.Itoa(max(1, int(math.Ceil(rl.RetryAfter.Seconds())))))
		}
		if status >= http.StatusInternalServerError && !errors.Is(err, purchase.ErrUpstream) {
			_ = c.Error(err)
		}

		if idemStorageKey != "" {
			if replayable(status) {
				b, _ := json.Marshal(body)
				if err := idem.SaveResult(ctx, idemStorageKey, status, b); err != nil {
					logger.Warn("idempotency save failed", "key", idemKey, "error", err)
				}
			} else {
				_ = idem.Release(ctx, idemStorageKey)
			}
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(status, body)
	}
}

// @Summary  Get purchase
// @Param    id  path  string  true  "Purchase ID (uuid)"
// @Success  200  {object}  domain.Purchase
// @Failure  404  {object}  ErrorResponse
// @Router   /purchases/{id} [get]
func handleGetPurchase(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		p, err := svcs.Purchase.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary  Payment provider notification
// @Accept   json
// @Success  200  {object}  WebhookResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /payments/webhook [post]
func handlePaymentWebhook(
	svcs *service.Services,
	gateway payment.Provider,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		if gateway == nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "payments disabled"})
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			badRequest(c, "unreadable body")
			return
		}

		n, err := gateway.ParseNotification(payload, c.GetHeader(gateway.SignatureHeader()))
		switch {
		case errors.Is(err, payment.ErrIgnoredEvent):
			c.JSON(http.StatusOK, WebhookResponse{Status: "ignored"})
			return
		case errors.Is(err, payment.ErrInvalidSignature):
			logger.Warn("payment notification rejected", "provider", gateway.Name(), "error", err)
			badRequest(c, "invalid signature")
			return
		case err != nil:
			badRequest(c, "malformed notification")
			return
		}

		p, err := svcs.Purchase.HandleOutcome(c.Request.Context(), n)
		switch {
		case errors.Is(err, purchase.ErrPurchaseNotFound):
			logger.Warn("payment notification for unknown purchase",
				"event_id", n.EventID, "session_id", n.SessionID, "reference", n.Reference)
			c.JSON(http.StatusOK, WebhookResponse{Status: "ignored"})
			return
		case err != nil:
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, WebhookResponse{Status: string(p.Status)})
	}
}

// @Summary  Admin login
// @Param    req  body  LoginRequest  true  "credentials"
// @Success  200  {object}  LoginResponse
// @Failure  401  {object}  ErrorResponse
// @Router   /auth/login [post]
func handleLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svcs.Auth == nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "admin login disabled"})
			return
		}
		var req LoginRequest
		if !bindValid(c, &req) {
			return
		}
		token, exp, err := svcs.Auth.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp})
	}
}

// @Summary   Current admin
// @Security  BearerAuth
// @Success   200  {object}  MeResponse
// @Failure   401  {object}  ErrorResponse
// @Router    /auth/me [get]
func handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(claimsKey)
		claims, ok := v.(*auth.Claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			return
		}
		c.JSON(http.StatusOK, MeResponse{Username: claims.Subject, Role: claims.Role})
	}
}

// @Summary   Create raffle
// @Security  BearerAuth
// @Param     req  body  CreateRaffleRequest  true  "payload"
// @Success   201  {object}  RaffleResponse
// @Failure   400  {object}  ErrorResponse
// @Router    /admin/raffles [post]
func handleCreateRaffle(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRaffleRequest
		if !bindValid(c, &req) {
			return
		}
		rf, err := svcs.Raffles.Create(c.Request.Context(), req.toInput())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toRaffleResponse(rf))
	}
}

// @Summary   Update raffle
// @Security  BearerAuth
// @Param     id   path  string               true  "Raffle ID (uuid)"
// @Param     req  body  UpdateRaffleRequest  true  "payload"
// @Success   200  {object}  RaffleResponse
// @Failure   404  {object}  ErrorResponse
// @Failure   409  {object}  ErrorResponse
// @Router    /admin/raffles/{id} [put]
func handleUpdateRaffle(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req UpdateRaffleRequest
		if !bindValid(c, &req) {
			return
		}
		rf, err := svcs.Raffles.Update(c.Request.Context(), id, req.toInput())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toRaffleResponse(rf))
	}
}

// @Summary   Cancel raffle
// @Security  BearerAuth
// @Param     id  path  string  true  "Raffle ID (uuid)"
// @Success   200  {object}  RaffleResponse
// @Failure   404  {object}  ErrorResponse
// @Failure   409  {object}  ErrorResponse
// @Router    /admin/raffles/{id}/cancel [post]
func handleCancelRaffle(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		rf, err := svcs.Raffles.Cancel(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toRaffleResponse(rf))
	}
}

// @Summary   Delete raffle
// @Security  BearerAuth
// @Param     id  path  string  true  "Raffle ID (uuid)"
// @Success   204
// @Failure   404  {object}  ErrorResponse
// @Failure   409  {object}  ErrorResponse
// @Router    /admin/raffles/{id} [delete]
func handleDeleteRaffle(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Raffles.Delete(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary   Draw the winner
// @Security  BearerAuth
// @Param     id  path  string  true  "Raffle ID (uuid)"
// @Success   200  {object}  domain.DrawResult
// @Failure   404  {object}  ErrorResponse
// @Failure   409  {object}  ErrorResponse "already drawn / cancelled / nothing sold"
// @Router    /admin/raffles/{id}/draw [post]
func handleDraw(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		res, err := svcs.Draw.Draw(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary   List purchases
// @Security  BearerAuth
// @Param     raffle_id  query  string  false  "Raffle ID (uuid)"
// @Success   200  {array}   domain.Purchase
// @Router    /admin/purchases [get]
func handleListPurchases(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		raffleID := uuid.Nil
		if s := c.Query("raffle_id"); s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				badRequest(c, "invalid raffle_id")
				return
			}
			raffleID = id
		}
		list, err := svcs.Purchase.List(c.Request.Context(), raffleID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary   Release a reservation
// @Security  BearerAuth
// @Param     token  path  string  true  "Reservation token (uuid)"
// @Success   200  {object}  ReleaseResponse
// @Failure   404  {object}  ErrorResponse
// @Failure   409  {object}  ErrorResponse
// @Router    /admin/reservations/{token}/release [post]
func handleReleaseReservation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := parseUUIDParam(c, "token")
		if !ok {
			return
		}
		res, err := svcs.Ledger.Release(c.Request.Context(), token, ledger.ReasonAdmin)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ReleaseResponse{Token: token, Released: res.Reservation.Numbers})
	}
}

// @Summary   Global statistics
// @Security  BearerAuth
// @Success   200  {object}  domain.AdminStats
// @Router    /admin/stats [get]
func handleAdminStats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svcs.Query.AdminStats(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// --- Helpers ---

type validatable interface {
	Validate() error
}

// bindValid decodes the JSON body into v and runs its Validate method,
// answering 400 on failure.
func bindValid(c *gin.Context, v validatable) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, err.Error())
		return false
	}
	if err := v.Validate(); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}

func replayIdempotent(
	c *gin.Context,
	idem *redisrepo.IdempotencyStore,
	storageKey, idemKey string,
) bool {
	status, payload, ok, _ := idem.GetResult(c.Request.Context(), storageKey)
	if !ok {
		return false
	}
	c.Header("Idempotency-Key", idemKey)
	c.Header("Idempotent-Replayed", "true")
	c.Data(status, "application/json; charset=utf-8", payload)
	return true
}

// replayable reports whether a response is final for its idempotency key.
// Throttling and server-side failures leave the key free for a retry.
func replayable(status int) bool {
	return status < http.StatusInternalServerError && status != http.StatusTooManyRequests
}

// purchaseResult renders a submission outcome as status and body.
func purchaseResult(req purchase.SubmitRequest, a *purchase.Attempt, err error) (int, any) {
	var (
		conflict purchase.ConflictError
		upstream purchase.UpstreamError
	)

	switch {
	case err == nil:
		return http.StatusCreated, PurchaseResponse{Attempt: a, Total: fromCents(a.TotalCents)}
	case errors.As(err, &conflict):
		return http.StatusConflict, ConflictResponse{Error: purchase.ErrConflict.Error(), Numbers: conflict.Numbers}
	case errors.As(err, &upstream):
		return http.StatusBadGateway, UpstreamResponse{
			Error:    purchase.ErrUpstream.Error(),
			RaffleID: req.RaffleID,
			Numbers:  req.Numbers,
		}
	}

	status, msg := errorStatus(err)
	return status, ErrorResponse{Error: msg}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// errorStatuses maps service errors to responses. The first match wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrUnauthorized, http.StatusUnauthorized},

	{raffles.ErrRaffleNotFound, http.StatusNotFound},
	{ledger.ErrRaffleNotFound, http.StatusNotFound},
	{purchase.ErrRaffleNotFound, http.StatusNotFound},
	{draw.ErrRaffleNotFound, http.StatusNotFound},
	{query.ErrRaffleNotFound, http.StatusNotFound},
	{ledger.ErrReservationNotFound, http.StatusNotFound},
	{purchase.ErrPurchaseNotFound, http.StatusNotFound},

	{raffles.ErrRaffleNotActive, http.StatusConflict},
	{raffles.ErrRaffleInUse, http.StatusConflict},
	{ledger.ErrRaffleNotActive, http.StatusConflict},
	{ledger.ErrAlreadyResolved, http.StatusConflict},
	{ledger.ErrNumbersUnavailable, http.StatusConflict},
	{purchase.ErrRaffleNotActive, http.StatusConflict},
	{purchase.ErrConflict, http.StatusConflict},
	{draw.ErrAlreadyDrawn, http.StatusConflict},
	{draw.ErrRaffleCancelled, http.StatusConflict},
	{draw.ErrNoSoldNumbers, http.StatusConflict},

	{purchase.ErrPaymentMismatch, http.StatusBadRequest},
	{purchase.ErrRateLimited, http.StatusTooManyRequests},
	{purchase.ErrUpstream, http.StatusBadGateway},
}

func errorStatus(err error) (int, string) {
	var ve domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error()
	}

	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.err.Error()
		}
	}

	return http.StatusInternalServerError, "internal error"
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	c.JSON(status, ErrorResponse{Error: msg})
}
