package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Schera-ole/obsmetrics/internal/audit"
	"github.com/Schera-ole/obsmetrics/internal/config"
	internalerrors "github.com/Schera-ole/obsmetrics/internal/errors"
	middlewareinternal "github.com/Schera-ole/obsmetrics/internal/middleware"
	models "github.com/Schera-ole/obsmetrics/internal/model"
	"github.com/Schera-ole/obsmetrics/internal/registry"
	"github.com/Schera-ole/obsmetrics/internal/service"
)

const (
	rootMessage       = "API Metrics management"
	invalidValueMsg   = "Metric value should be an integer"
	invalidAgentMsg   = "Valid IP and Port required."
	agentRegisteredOK = "Agent registered"
	agentDeletedOK    = "Agent deleted"
	agentNotFoundMsg  = "Agent not found"
)

func Router(
	logger *zap.SugaredLogger,
	metricService *service.MetricsService,
	auditLogger audit.AuditLogger,
) chi.Router {
	if auditLogger == nil {
		auditLogger = audit.NewNopLogger()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	router.Use(middlewareinternal.GzipMiddleware)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, rootMessage)
	})
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		PingHandler(w, r, metricService, logger)
	})

	router.Route("/metrics", func(router chi.Router) {
		router.Get("/", func(w http.ResponseWriter, r *http.Request) {
			ListMetricsHandler(w, r, metricService, logger)
		})
		router.Get("/{metricName}", func(w http.ResponseWriter, r *http.Request) {
			GetMetricHandler(w, r, metricService)
		})
		router.Post("/{metricName}", func(w http.ResponseWriter, r *http.Request) {
			CreateMetricHandler(w, r, metricService, logger, auditLogger)
		})
		router.Put("/{metricName}", func(w http.ResponseWriter, r *http.Request) {
			UpdateMetricHandler(w, r, metricService, auditLogger)
		})
		router.Delete("/{metricName}", func(w http.ResponseWriter, r *http.Request) {
			DeleteMetricHandler(w, r, metricService, logger, auditLogger)
		})
	})

	router.Route("/agents", func(router chi.Router) {
		router.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, metricService.ListAgents(), logger)
		})
		router.Post("/{agentId}", func(w http.ResponseWriter, r *http.Request) {
			RegisterAgentHandler(w, r, metricService, auditLogger)
		})
		router.Delete("/{agentId}", func(w http.ResponseWriter, r *http.Request) {
			DeleteAgentHandler(w, r, metricService, auditLogger)
		})
	})

	router.Post("/kick", func(w http.ResponseWriter, r *http.Request) {
		KickHandler(w, r, metricService, logger)
	})
	return router
}

func PingHandler(w http.ResponseWriter, r *http.Request, metricService *service.MetricsService, logger *zap.SugaredLogger) {
	err := metricService.Ping(r.Context())
	if err != nil {
		logger.Errorf("ping failed: %v", err)
		http.Error(w, "Failed to connect to database: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func ListMetricsHandler(w http.ResponseWriter, r *http.Request, metricService *service.MetricsService, logger *zap.SugaredLogger) {
	writeJSON(w, http.StatusOK, metricService.ListMetrics(), logger)
}

func GetMetricHandler(w http.ResponseWriter, r *http.Request, metricService *service.MetricsService) {
	metricName := chi.URLParam(r, "metricName")
	value, err := metricService.GetMetric(metricName)
	if err != nil {
		writeText(w, http.StatusNotFound, registry.NotFound.String())
		return
	}
	writeText(w, http.StatusOK, strconv.FormatInt(value, 10))
}

func CreateMetricHandler(
	w http.ResponseWriter,
	r *http.Request,
	metricService *service.MetricsService,
	logger *zap.SugaredLogger,
	auditLogger audit.AuditLogger,
) {
	metricName := chi.URLParam(r, "metricName")
	value, err := ParseValue(r)
	if err != nil {
		http.Error(w, invalidValueMsg, http.StatusBadRequest)
		return
	}

	result, err := metricService.CreateMetric(r.Context(), metricName, value)
	if err != nil {
		if errors.Is(err, internalerrors.ErrInvalidMetricName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Errorf("error creating metric %s: %v", metricName, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if result == registry.AlreadyExists {
		writeText(w, http.StatusConflict, result.String())
		return
	}
	auditLogger.Log(config.ActionMetricCreate, []string{metricName}, ClientIP(r))
	writeText(w, http.StatusCreated, result.String())
}

func UpdateMetricHandler(
	w http.ResponseWriter,
	r *http.Request,
	metricService *service.MetricsService,
	auditLogger audit.AuditLogger,
) {
	metricName := chi.URLParam(r, "metricName")
	value, err := ParseValue(r)
	if err != nil {
		http.Error(w, invalidValueMsg, http.StatusBadRequest)
		return
	}

	result := metricService.UpdateMetric(r.Context(), metricName, value)
	if result == registry.NotFound {
		writeText(w, http.StatusNotFound, result.String())
		return
	}
	auditLogger.Log(config.ActionMetricUpdate, []string{metricName}, ClientIP(r))
	writeText(w, http.StatusOK, result.String())
}

func DeleteMetricHandler(
	w http.ResponseWriter,
	r *http.Request,
	metricService *service.MetricsService,
	logger *zap.SugaredLogger,
	auditLogger audit.AuditLogger,
) {
	metricName := chi.URLParam(r, "metricName")
	result, err := metricService.DeleteMetric(r.Context(), metricName)
	if err != nil {
		logger.Warnf("metric %s deleted with errors: %v", metricName, err)
	}
	if result == registry.NotFound {
		writeText(w, http.StatusNotFound, result.String())
		return
	}
	auditLogger.Log(config.ActionMetricDelete, []string{metricName}, ClientIP(r))
	writeText(w, http.StatusOK, result.String())
}

func RegisterAgentHandler(
	w http.ResponseWriter,
	r *http.Request,
	metricService *service.MetricsService,
	auditLogger audit.AuditLogger,
) {
	agentID := chi.URLParam(r, "agentId")
	var agent models.Agent
	if err := DecodeJSON(r, &agent); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := metricService.RegisterAgent(r.Context(), agentID, agent); err != nil {
		http.Error(w, invalidAgentMsg, http.StatusBadRequest)
		return
	}
	auditLogger.Log(config.ActionAgentRegister, []string{agentID}, ClientIP(r))
	writeText(w, http.StatusOK, agentRegisteredOK)
}

func DeleteAgentHandler(
	w http.ResponseWriter,
	r *http.Request,
	metricService *service.MetricsService,
	auditLogger audit.AuditLogger,
) {
	agentID := chi.URLParam(r, "agentId")
	if err := metricService.DeleteAgent(r.Context(), agentID); err != nil {
		writeText(w, http.StatusNotFound, agentNotFoundMsg)
		return
	}
	auditLogger.Log(config.ActionAgentDelete, []string{agentID}, ClientIP(r))
	writeText(w, http.StatusOK, agentDeletedOK)
}

func KickHandler(w http.ResponseWriter, r *http.Request, metricService *service.MetricsService, logger *zap.SugaredLogger) {
	var req models.KickRequest
	if err := DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := metricService.Kick(r.Context(), req); err != nil {
		logger.Errorf("kick: %v", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusOK)
}
