package main

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/synetcore/go-did"
	"github.com/synetcore/go-did/cmd/server/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Server struct {
	e   *echo.Echo
	log *zap.Logger

	// validation results keyed by the raw query input
	vcache *lru.Cache[string, did.ValidationResult]

	metrics *metrics
}

func NewServer(log *zap.Logger, cacheSize int, reg *prometheus.Registry) (*Server, error) {
	vcache, err := lru.New[string, did.ValidationResult](cacheSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		e:       echo.New(),
		log:     log,
		vcache:  vcache,
		metrics: newMetrics(reg),
	}

	e := s.e
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Info("request",
				zap.String("id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(s.metrics.middleware)
	e.Use(middleware.Recover())

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", s.metrics.handler())

	v1 := e.Group("/v1")
	v1.POST("/dids", s.handleCreateDID)
	v1.GET("/parse", s.handleParse)
	v1.GET("/validate", s.handleValidate)
	v1.GET("/normalize", s.handleNormalize)
	v1.POST("/documents", s.handleCreateDocument)
	v1.GET("/documents/key", s.handleExpandKey)
	v1.POST("/documents/verify", s.handleVerifyDocument)

	return s, nil
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, types.StatusResponse{Status: "ok"})
}

func (s *Server) handleCreateDID(c echo.Context) error {
	var opts did.Options
	if err := c.Bind(&opts); err != nil {
		return err
	}

	id, err := did.CreateDID(opts)
	if err != nil {
		return err
	}
	s.metrics.created.WithLabelValues(opts.Method).Inc()

	return c.JSON(http.StatusOK, types.CreateDIDResponse{DID: id})
}

func (s *Server) handleParse(c echo.Context) error {
	return c.JSON(http.StatusOK, did.ParseDID(c.QueryParam("did")))
}

func (s *Server) handleValidate(c echo.Context) error {
	id := c.QueryParam("did")

	res, ok := s.vcache.Get(id)
	if ok {
		s.metrics.cacheHits.Inc()
	} else {
		res = did.ValidateDID(id)
		s.vcache.Add(id, res)
	}

	result := "invalid"
	if res.IsValid {
		result = "valid"
	}
	s.metrics.validations.WithLabelValues(result).Inc()

	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleNormalize(c echo.Context) error {
	n, err := did.NormalizeDID(c.QueryParam("did"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, types.NormalizeResponse{DID: n})
}

func (s *Server) handleCreateDocument(c echo.Context) error {
	var body types.CreateDocumentBody
	if err := c.Bind(&body); err != nil {
		return err
	}

	doc, err := did.CreateDIDDocument(body.DID, body.Options)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, doc)
}

func (s *Server) handleExpandKey(c echo.Context) error {
	doc, err := did.ExpandDIDKey(c.QueryParam("did"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, doc)
}

func (s *Server) handleVerifyDocument(c echo.Context) error {
	var sd did.SignedDocument
	if err := c.Bind(&sd); err != nil {
		return err
	}

	if err := did.VerifyDocumentSignature(&sd); err != nil {
		return c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Code:    "INVALID_SIGNATURE",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, types.StatusResponse{Status: "ok"})
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		derr *did.Error
		herr *echo.HTTPError
	)

	status := http.StatusInternalServerError
	body := types.ErrorResponse{Code: did.CodeInternal, Message: "internal error"}

	switch {
	case errors.As(err, &derr):
		status = http.StatusBadRequest
		body = types.ErrorResponse{Code: derr.Code, Message: derr.Message}
		if derr.Code == did.CodeInvalidDocument {
			for _, e := range multierr.Errors(errors.Unwrap(derr)) {
				body.Details = append(body.Details, e.Error())
			}
		}
	case errors.As(err, &herr):
		status = herr.Code
		body.Code = http.StatusText(herr.Code)
		if msg, ok := herr.Message.(string); ok {
			body.Message = msg
		}
		if herr.Internal != nil {
			body.Details = []string{herr.Internal.Error()}
		}
	default:
		s.log.Error("request failed",
			zap.String("id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.log.Warn("writing error response", zap.Error(err))
	}
}
