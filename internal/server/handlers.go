package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/MariluHA/cognitive-risk-prediction/internal/features"
	"github.com/MariluHA/cognitive-risk-prediction/internal/predict"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// PredictionResponse is the body of a successful POST /predict.
type PredictionResponse struct {
	Prediction     string   `json:"prediction"`
	RiskLevel      string   `json:"risk_level"`
	Confidence     *float64 `json:"confidence"`
	ModelUsed      string   `json:"model_used"`
	Timestamp      string   `json:"timestamp"`
	Interpretation string   `json:"interpretation"`
}

// ModelInfo describes one registry slot in GET /models.
type ModelInfo struct {
	ModelName string   `json:"model_name"`
	Features  []string `json:"features"`
	Loaded    bool     `json:"loaded"`
	Type      string   `json:"type"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	ModelsLoaded string `json:"models_loaded"`
}

type errorResponse struct {
	Detail string   `json:"detail"`
	Fields []string `json:"fields,omitempty"`
}

func (s *Server) handlePredict(c *gin.Context) {
	var req features.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		status, body := bindError(err)
		log.Warn().Err(err).Int("status", status).Msg("Rejected prediction request")
		c.JSON(status, body)
		return
	}

	res, err := s.svc.Predict(c.Request.Context(), &req)
	if err != nil {
		switch {
		case predict.IsUnavailable(err):
			c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: err.Error()})
		case errors.Is(err, features.ErrMissingField):
			c.JSON(http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		default:
			log.Error().Err(err).Str("model", req.Model()).Msg("Prediction failed")
			c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, PredictionResponse{
		Prediction:     res.Interpretation.Label,
		RiskLevel:      res.Interpretation.Level,
		Confidence:     res.Confidence,
		ModelUsed:      res.ModelUsed,
		Timestamp:      res.Timestamp.UTC().Format(time.RFC3339),
		Interpretation: res.Interpretation.Message,
	})
}

func (s *Server) handleModels(c *gin.Context) {
	entries := s.svc.Registry().Entries()
	out := make(map[string]ModelInfo, len(entries))
	for _, e := range entries {
		info := ModelInfo{
			ModelName: e.ID,
			Features:  []string{},
			Loaded:    e.Loaded(),
			Type:      e.TypeName(),
		}
		if e.Loaded() {
			info.Features = append(info.Features, features.FeatureNames...)
		}
		out[e.ID] = info
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleHealth(c *gin.Context) {
	registry := s.svc.Registry()
	loaded := registry.CountLoaded()

	status := "healthy"
	if loaded == 0 {
		status = "degraded"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:       status,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		ModelsLoaded: fmt.Sprintf("%d/%d", loaded, registry.Total()),
	})
}

// bindError maps a binding failure onto a status code and body. Syntax
// errors are 400; well-formed bodies that fail type or presence checks are 422.
func bindError(err error) (int, errorResponse) {
	var (
		maxErr     *http.MaxBytesError
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		validation validator.ValidationErrors
	)

	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, errorResponse{Detail: "request body too large"}
	case errors.Is(err, io.EOF):
		return http.StatusBadRequest, errorResponse{Detail: "request body is empty"}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, errorResponse{Detail: fmt.Sprintf("malformed JSON: %v", err)}
	case errors.As(err, &typeErr):
		return http.StatusUnprocessableEntity, errorResponse{
			Detail: fmt.Sprintf("field %s must be %s", typeErr.Field, typeErr.Type),
			Fields: []string{typeErr.Field},
		}
	case errors.As(err, &validation):
		fields := make([]string, 0, len(validation))
		for _, fe := range validation {
			fields = append(fields, jsonName(fe.StructField()))
		}
		return http.StatusUnprocessableEntity, errorResponse{
			Detail: "missing required fields: " + strings.Join(fields, ", "),
			Fields: fields,
		}
	default:
		return http.StatusBadRequest, errorResponse{Detail: err.Error()}
	}
}

var requestType = reflect.TypeOf(features.PredictionRequest{})

// jsonName returns the wire name of a PredictionRequest field.
func jsonName(field string) string {
	f, ok := requestType.FieldByName(field)
	if !ok {
		return field
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return field
	}
	return name
}
