package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"SleepSim/internal/domain/models"
	domrepo "SleepSim/internal/domain/repository"
	"SleepSim/internal/domain/service"
	"SleepSim/internal/services/scenario"
	"SleepSim/internal/services/twoprocess"
	"SleepSim/internal/usecase"
	xhttp "SleepSim/pkg/http"
	"SleepSim/pkg/http/middleware"
	applogger "SleepSim/pkg/logger"
	"SleepSim/pkg/util"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	streamWriteWait = 5 * time.Second
	// query parameters with this prefix override model parameters on the stream endpoint
	overridePrefix = "p."
)

// SimulationHandler serves the simulation API.
type SimulationHandler struct {
	sim           service.Simulator
	metrics       domrepo.Metrics
	limiter       middleware.Allower
	l             *applogger.Logger
	upgrader      websocket.Upgrader
	streamTimeout time.Duration
}

// NewSimulationHandler wires the handler. A nil limiter disables rate limiting; a zero
// streamTimeout leaves streams unbounded.
func NewSimulationHandler(sim service.Simulator, metrics domrepo.Metrics, limiter middleware.Allower, l *applogger.Logger, streamTimeout time.Duration) *SimulationHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &SimulationHandler{
		sim:     sim,
		metrics: metrics,
		limiter: limiter,
		l:       l.Component("api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		streamTimeout: streamTimeout,
	}
}

func (h *SimulationHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/scenarios", h.Scenarios)
	g.GET("/runs/:id", h.GetRun)

	sim := g.Group("/simulate", middleware.RateLimit(h.limiter))
	sim.POST("", h.Simulate)
	sim.POST("/batch", h.SimulateBatch)
	sim.GET("/stream", h.Stream)
}

func (h *SimulationHandler) Scenarios(c echo.Context) error {
	infos, err := h.sim.Scenarios(c.Request().Context())
	if err != nil {
		return h.fail(c, "scenarios", err)
	}
	return xhttp.ListResponse(c, infos, int64(len(infos)))
}

func (h *SimulationHandler) Simulate(c echo.Context) error {
	req := &models.SimulationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	run, err := h.sim.Simulate(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "simulate", err)
	}
	return xhttp.SuccessResponse(c, run)
}

func (h *SimulationHandler) SimulateBatch(c echo.Context) error {
	req := &models.BatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	runs, err := h.sim.SimulateBatch(c.Request().Context(), req.Requests)
	if err != nil {
		return h.fail(c, "simulate_batch", err)
	}
	return xhttp.ListResponse(c, runs, int64(len(runs)))
}

func (h *SimulationHandler) GetRun(c echo.Context) error {
	id := c.Param("id")
	run, err := h.sim.Get(c.Request().Context(), id)
	if errors.Is(err, domrepo.ErrRunNotFound) {
		return xhttp.AppErrorResponse(c, toAppError(err).WithParam("id", id))
	}
	if err != nil {
		return h.fail(c, "get_run", err)
	}
	return xhttp.SuccessResponse(c, run)
}

// Stream upgrades to a websocket and sends one "step" message per grid point followed by a
// "summary" message, or an "error" message if the run is rejected. The request is read from
// the query string: scenario, start, end, step, h0, awake, skip_first_wake, request_id and
// p.<parameter> overrides.
func (h *SimulationHandler) Stream(c echo.Context) error {
	req, verr := streamRequest(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already replied
		h.l.Warn("websocket upgrade failed", applogger.Error(err))
		return nil
	}
	defer conn.Close()
	h.metrics.StreamOpened()
	defer h.metrics.StreamClosed()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	if h.streamTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.streamTimeout)
		defer cancel()
	}
	// a read error means the client went away
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	write := func(msg models.StreamMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(msg)
	}

	run, err := h.sim.Stream(ctx, req, func(step models.StepMessage) error {
		return write(models.StreamMessage{Type: "step", Step: &step})
	})
	if err != nil {
		appErr := toAppError(err)
		if appErr.Status >= http.StatusInternalServerError {
			h.l.Warn("stream aborted", applogger.Error(err))
		}
		_ = write(models.StreamMessage{Type: "error", Error: appErr.Message})
	} else {
		_ = write(models.StreamMessage{Type: "summary", Summary: run})
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteWait))
	return nil
}

func streamRequest(c echo.Context) (models.SimulationRequest, []xhttp.ValidationError) {
	req := models.SimulationRequest{
		RequestID:     c.QueryParam("request_id"),
		Scenario:      c.QueryParam("scenario"),
		SkipFirstWake: util.ParseBoolDefault(c.QueryParam("skip_first_wake"), false),
	}
	var verrs []xhttp.ValidationError
	hours := func(name string) *float64 {
		raw := c.QueryParam(name)
		if raw == "" {
			return nil
		}
		v, err := util.ParseHours(raw)
		if err != nil {
			verrs = append(verrs, xhttp.ValidationError{Code: "ERR_INVALID", Field: name, Message: err.Error()})
			return nil
		}
		return &v
	}
	req.Start = hours("start")
	req.End = hours("end")
	req.Step = hours("step")
	req.InitialPressure = hours("h0")
	if raw := c.QueryParam("awake"); raw != "" {
		awake := util.ParseBoolDefault(raw, true)
		req.InitialAwake = &awake
	}
	for key, vals := range c.QueryParams() {
		if !strings.HasPrefix(key, overridePrefix) || len(vals) == 0 {
			continue
		}
		if v := hours(key); v != nil {
			if req.Overrides == nil {
				req.Overrides = map[string]float64{}
			}
			req.Overrides[strings.TrimPrefix(key, overridePrefix)] = *v
		}
	}
	if len(verrs) > 0 {
		return req, verrs
	}
	if verrs := xhttp.Validate(c.Request().Context(), &req); verrs != nil {
		return req, verrs
	}
	return req, nil
}

func (h *SimulationHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.l.Error(op+" usecase error", applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps use case and model errors to API errors.
func toAppError(err error) *xhttp.AppError {
	msg := err.Error()
	switch {
	case errors.Is(err, domrepo.ErrRunNotFound):
		return xhttp.NotFoundError(msg)
	case errors.Is(err, scenario.ErrUnknownScenario):
		e := xhttp.BadRequestError(msg)
		e.Field = "scenario"
		return e
	case errors.Is(err, usecase.ErrInvalidRequest), errors.Is(err, usecase.ErrBatchTooLarge):
		return xhttp.BadRequestError(msg)
	case errors.Is(err, twoprocess.ErrInvalidParameters), errors.Is(err, twoprocess.ErrInvalidInitialState):
		return xhttp.InvalidParametersError(msg)
	case errors.Is(err, twoprocess.ErrInvalidGrid), errors.Is(err, usecase.ErrGridTooLarge):
		return xhttp.InvalidGridError(msg)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "simulation timed out", http.StatusGatewayTimeout).WithError(err)
	default:
		return xhttp.InternalError("simulation failed").WithError(err)
	}
}
