package api

import (
	"time"

	"TradeGuard/internal/domain/models"
	drepo "TradeGuard/internal/domain/repository"
	"TradeGuard/internal/guard"
	"TradeGuard/internal/service/ratelimit"
	"TradeGuard/internal/usecase"
	pkgcache "TradeGuard/pkg/cache"
	xhttp "TradeGuard/pkg/http"
	xlogger "TradeGuard/pkg/logger"
	"TradeGuard/pkg/queue"
	xutil "TradeGuard/pkg/util"

	"github.com/labstack/echo/v4"
)

// GuardEchoHandler exposes the entry gate, exit policy, detection events,
// and replay enqueue over HTTP.
type GuardEchoHandler struct {
	logger   *xlogger.Logger
	sessions *usecase.SessionRegistry
	exits    *usecase.ExitService
	journal  *usecase.EventJournal
	metrics  drepo.Metrics

	store       drepo.Storage      // nil on the kafka backend
	replayQueue queue.QueueService // nil when redis is disabled
	snapshots   pkgcache.Service
	snapshotTTL time.Duration
	limiter     *ratelimit.Limiter
}

func NewGuardEchoHandler(
	logger *xlogger.Logger,
	sessions *usecase.SessionRegistry,
	exits *usecase.ExitService,
	journal *usecase.EventJournal,
	metrics drepo.Metrics,
	store drepo.Storage,
	replayQueue queue.QueueService,
	snapshots pkgcache.Service,
	snapshotTTL time.Duration,
) *GuardEchoHandler {
	return &GuardEchoHandler{
		logger:      logger,
		sessions:    sessions,
		exits:       exits,
		journal:     journal,
		metrics:     metrics,
		store:       store,
		replayQueue: replayQueue,
		snapshots:   snapshots,
		snapshotTTL: snapshotTTL,
		limiter:     ratelimit.New(),
	}
}

func (h *GuardEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/gate", h.Gate)
	g.GET("/guard/status", h.Status)
	g.POST("/guard/config", h.Configure)
	g.POST("/guard/fill", h.Fill)
	g.POST("/exit/evaluate", h.ExitEvaluate)
	g.GET("/events", h.Events)
	g.POST("/replay", h.Replay)
	e.GET("/healthz", h.Health)
}

// Gate answers whether entry is currently allowed for a symbol.
func (h *GuardEchoHandler) Gate(c echo.Context) error {
	req := &models.GateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	req.Symbol = usecase.SessionKey(req.Symbol)
	d := h.sessions.Evaluate(req.Symbol)
	reason := ""
	if len(d.Reasons) > 0 {
		reason = d.Reasons[0]
	}
	h.metrics.RecordGate(req.Symbol, reason, d.AllowEntry)
	return xhttp.SuccessResponse(c, d)
}

type statusResponse struct {
	Symbol   string         `json:"symbol"`
	Snapshot guard.Snapshot `json:"snapshot"`
	Active   bool           `json:"active"`
}

// Status returns the full guard snapshot for a symbol. Snapshots are cached
// briefly so dashboards polling every second do not contend with the feed.
func (h *GuardEchoHandler) Status(c echo.Context) error {
	req := &models.StatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	req.Symbol = usecase.SessionKey(req.Symbol)
	key := pkgcache.GenerateKey("status", req.Symbol)
	if h.snapshots != nil {
		var cached statusResponse
		if err := h.snapshots.Get(c.Request().Context(), key, &cached); err == nil {
			return xhttp.SuccessResponse(c, cached)
		}
	}

	snap, ok := h.sessions.Status(req.Symbol)
	res := statusResponse{Symbol: req.Symbol, Snapshot: snap, Active: ok}
	if h.snapshots != nil && h.snapshotTTL > 0 {
		_ = h.snapshots.Set(c.Request().Context(), key, res, h.snapshotTTL)
	}
	return xhttp.SuccessResponse(c, res)
}

// Configure applies a partial guard reconfiguration for one symbol. Field
// validation follows the guard's defensive policy: the request shape is
// validated here, value ranges by the guard itself.
func (h *GuardEchoHandler) Configure(c echo.Context) error {
	req := &models.ConfigureRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	req.Symbol = usecase.SessionKey(req.Symbol)
	u := guard.ConfigUpdate{
		Enabled: req.Enabled,
		Hazard:  req.Hazard,
		MinDown: req.MinDown,
	}
	if req.CooldownSec != nil {
		d := time.Duration(*req.CooldownSec * float64(time.Second))
		u.Cooldown = &d
	}
	h.sessions.Configure(req.Symbol, u)
	if h.snapshots != nil {
		_ = h.snapshots.Delete(c.Request().Context(), pkgcache.GenerateKey("status", req.Symbol))
	}

	snap, _ := h.sessions.Status(req.Symbol)
	h.logger.Info("guard reconfigured",
		xlogger.String("symbol", req.Symbol),
		xlogger.Float64("min_down", snap.MinDown),
		xlogger.Bool("enabled", snap.Enabled),
	)
	return xhttp.SuccessResponse(c, snap)
}

// Fill resets the symbol's guard after an entry fill.
func (h *GuardEchoHandler) Fill(c echo.Context) error {
	req := &models.FillRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	req.Symbol = usecase.SessionKey(req.Symbol)
	h.sessions.Fill(req.Symbol, req.Price)
	if h.snapshots != nil {
		_ = h.snapshots.Delete(c.Request().Context(), pkgcache.GenerateKey("status", req.Symbol))
	}
	snap, _ := h.sessions.Status(req.Symbol)
	return xhttp.SuccessResponse(c, snap)
}

// ExitEvaluate runs one exit policy evaluation over caller-supplied position
// state.
func (h *GuardEchoHandler) ExitEvaluate(c echo.Context) error {
	req := &models.ExitEvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.exits.Evaluate(req))
}

// Events lists recent detection events, from ClickHouse when available and
// the in-memory journal otherwise.
func (h *GuardEchoHandler) Events(c echo.Context) error {
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	req.Symbol = usecase.SessionKey(req.Symbol)
	if h.store == nil {
		return xhttp.SuccessResponse(c, h.journal.Recent(req.Symbol, req.Limit))
	}

	now := time.Now()
	from := xutil.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := xutil.ParseTimeDefault(req.To, now)
	events, err := h.store.QueryEvents(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		h.logger.Error("events query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("events query failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, events)
}

// Replay enqueues a deterministic re-run of a stored tick range. Enqueues
// are rate limited per remote address.
func (h *GuardEchoHandler) Replay(c echo.Context) error {
	req := &models.ReplayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.replayQueue == nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("replay queue not configured"))
	}
	if !h.limiter.Allow("replay:"+c.RealIP(), 5, 0.5) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("replay enqueue rate exceeded"))
	}

	from, ok := xutil.ParseTime(req.From)
	if !ok {
		return xhttp.BadRequestResponse(c, "invalid from timestamp")
	}
	to, ok := xutil.ParseTime(req.To)
	if !ok {
		return xhttp.BadRequestResponse(c, "invalid to timestamp")
	}
	if !to.After(from) {
		return xhttp.BadRequestResponse(c, "to must be after from")
	}

	job := models.ReplayJob{Symbol: usecase.SessionKey(req.Symbol), From: from, To: to}
	if err := h.replayQueue.PublishMessage(c.Request().Context(), "replay", job); err != nil {
		h.logger.Error("replay enqueue error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("replay enqueue failed").WithError(err))
	}
	return xhttp.CreatedResponse(c, job)
}

// Health reports liveness plus storage reachability when configured.
func (h *GuardEchoHandler) Health(c echo.Context) error {
	res := map[string]interface{}{"status": "ok", "sessions": len(h.sessions.Symbols())}
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			res["status"] = "degraded"
			res["storage"] = err.Error()
		}
	}
	return xhttp.SuccessResponse(c, res)
}
