package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-bankpay/app/controller"
	"github.com/vibast-solutions/ms-go-bankpay/app/entity"
	"github.com/vibast-solutions/ms-go-bankpay/app/gateway"
	"github.com/vibast-solutions/ms-go-bankpay/app/messages"
	"github.com/vibast-solutions/ms-go-bankpay/app/service"
	"github.com/vibast-solutions/ms-go-bankpay/app/store"
	"github.com/vibast-solutions/ms-go-bankpay/app/types"
	"github.com/vibast-solutions/ms-go-bankpay/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for payment requests, gateway callbacks, and refunds.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, paymentService, cleanup := mustCreatePaymentService()
	defer cleanup()

	paymentController := controller.NewPaymentController(paymentService)
	e := setupHTTPServer(paymentController)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(paymentController *controller.PaymentController) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.GET("/health", paymentController.Health)

	// The bank redirects the user's browser here; no request id header
	// can be demanded on these routes.
	callbacks := e.Group("/callbacks/gateways")
	callbacks.GET("/:trackingNumber", paymentController.HandleGatewayCallback)
	callbacks.POST("/:trackingNumber", paymentController.HandleGatewayCallback)

	payments := e.Group("/payments", requireRequestID())
	payments.POST("", paymentController.RequestPayment)
	payments.POST("/:trackingNumber/refund", paymentController.RefundPayment)

	return e
}

func requireRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				return ctx.JSON(http.StatusBadRequest, &types.ErrorResponse{Error: "x-request-id header is required"})
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

func mustCreatePaymentService() (*config.Config, *service.PaymentService, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	msgs := messages.Default().WithOverrides(messages.Messages{
		PaymentSucceeded:        cfg.Messages.PaymentSucceeded,
		PaymentFailed:           cfg.Messages.PaymentFailed,
		DuplicateTrackingNumber: cfg.Messages.DuplicateTrackingNumber,
		AlreadyVerified:         cfg.Messages.AlreadyVerified,
		InvalidCallbackData:     cfg.Messages.InvalidCallbackData,
		UnknownResultCode:       cfg.Messages.UnknownResultCode,
	})

	mellatGateway := gateway.NewMellatGateway(gateway.MellatConfig{
		Account: entity.GatewayAccount{
			Name:         cfg.Mellat.AccountName,
			TerminalID:   cfg.Mellat.TerminalID,
			UserName:     cfg.Mellat.UserName,
			UserPassword: cfg.Mellat.UserPassword,
			TestTerminal: cfg.Mellat.TestTerminal,
		},
		HTTPTimeout: cfg.Mellat.HTTPTimeout,
	}, msgs)

	gatewayRegistry := gateway.NewRegistry(mellatGateway)
	txnStore := store.NewMySQLStore(db)
	paymentService := service.NewPaymentService(txnStore, gatewayRegistry)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, paymentService, cleanup
}

func configureLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	return nil
}
