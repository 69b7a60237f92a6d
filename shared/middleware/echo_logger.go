package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// EchoZapLogger returns an Echo middleware that logs requests via zap.
func EchoZapLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			requestFields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("host", req.Host),
				zap.String("remote_ip", c.RealIP()),
				zap.String("user_agent", req.UserAgent()),
			}
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}
			if id != "" {
				requestFields = append(requestFields, zap.String("request_id", id))
			}

			err := next(c)

			latency := time.Since(start)
			fields := append(requestFields,
				zap.Int("status", res.Status),
				zap.Duration("latency", latency),
			)

			if err != nil {
				errorFields := append(fields, zap.Error(err))
				log.Error("Handler error", errorFields...)
				// Echo derives the response status from the error.
				return err
			}

			n := res.Status
			switch {
			case n >= http.StatusInternalServerError:
				log.Error("Server error", fields...)
			case n >= http.StatusBadRequest:
				log.Warn("Client error", fields...)
			case n >= http.StatusMultipleChoices:
				log.Warn("Redirection", fields...)
			default:
				log.Info("Success", fields...)
			}

			return nil
		}
	}
}
