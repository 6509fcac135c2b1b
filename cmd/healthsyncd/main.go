package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthsync/internal/client"
	"healthsync/internal/configuration"
	"healthsync/internal/device"
	"healthsync/internal/gateway"
	"healthsync/internal/guard"
	"healthsync/internal/identity"
	"healthsync/internal/logger"
	"healthsync/internal/store"

	"github.com/go-redis/redis/v9"
)

func main() {
	if err := runApp(); err != nil {
		time.Sleep(time.Second)
		os.Exit(1)
	}
}

func runApp() error {
	appContext, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logOutput := io.Writer(os.Stdout)
	appLogger := logger.NewLogger(logger.LevelInfo, logOutput)

	defer func() {
		if r := recover(); r != nil {
			appLogger.Errorf("APPLICATION CRASHED: %+v", r)
		}
	}()

	config, err := configuration.GetConfig("config.toml")
	if err != nil {
		appLogger.Error("Error getting configuration from config.toml:", err)
		return err
	}

	if config.LogToFile {
		logFile, err := os.OpenFile("healthsyncd.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			appLogger.Error("Error opening log file:", err)
			return err
		}
		defer func() {
			if err := logFile.Close(); err != nil {
				appLogger.Error("Error closing log file:", err)
			}
		}()
		logOutput = io.MultiWriter(logOutput, logFile)
	}
	appLogger = logger.NewLogger(config.LogLevel, logOutput)

	if config.LogLevel >= logger.LevelDebug {
		conf, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			appLogger.Error("Error marshalling Config to JSON:", err)
			return err
		}
		appLogger.Debugf("Config:\n%s", conf)
	}

	var redisClient *redis.Client
	if config.RedisAddress != "" {
		appLogger.Info("Using Redis cache at", config.RedisAddress)
		redisClient = redis.NewClient(&redis.Options{Addr: config.RedisAddress})
		defer func() {
			if err := redisClient.Close(); err != nil {
				appLogger.Error("Error closing Redis client:", err)
			}
		}()
	}

	httpClient := &http.Client{Timeout: 15 * time.Second}

	snapshots, err := device.NewSnapshotStore(config.SnapshotDir, appLogger)
	if err != nil {
		appLogger.Error("Error opening snapshot store:", err)
		return err
	}
	defer snapshots.Close()

	vault, err := device.NewTokenVault(config.SnapshotDir)
	if err != nil {
		appLogger.Error("Error opening token vault:", err)
		return err
	}

	deviceID, err := device.DeviceID(config.SnapshotDir)
	if err != nil {
		appLogger.Error("Error resolving device ID:", err)
		return err
	}
	appLogger.Info("Device ID:", deviceID)

	idClient := &identity.Client{
		HTTPClient: httpClient,
		BaseURL:    config.APIBaseURL,
		AnonKey:    config.APIAnonKey,
		Logger:     appLogger,
	}

	var appStore *store.Store
	gw := gateway.Gateway{
		Client:  httpClient,
		BaseURL: config.APIBaseURL,
		AnonKey: config.APIAnonKey,
		Token: func() string {
			if appStore == nil {
				return ""
			}
			return appStore.Snapshot().Auth.SessionToken
		},
		Logger: appLogger,
	}

	services := client.Client{
		Client:        httpClient,
		Redis:         redisClient,
		TerraDevID:    config.TerraDevID,
		TerraAPIKey:   config.TerraAPIKey,
		TavusAPIKey:   config.TavusAPIKey,
		StripeKey:     config.StripeKey,
		PlacesAPIKey:  config.PlacesAPIKey,
		PushServerKey: config.PushServerKey,
		Logger:        appLogger,
	}
	sensor := device.NewSensorBridge(time.Now().UnixNano())
	appStore = store.New(gw, idClient, snapshots, vault, sensor, appLogger)
	appStore.Wearables = services
	appStore.Billing = services

	appLogger.Info("Restoring persisted session")
	appStore.RestoreFromDisk(appContext)

	routeGuard := guard.New(appStore, &memoryRouter{path: "/", logger: appLogger}, appLogger)
	routeGuard.Start(appContext, idClient)

	if appStore.Snapshot().Auth.IsAuthenticated {
		if err := appStore.InitializeUserData(appContext); err != nil {
			appLogger.Error("Error initializing user data after restore:", err)
		}
	}

	appLogger.Info("Starting sync with interval:", config.SyncInterval)
	go appStore.SyncInInterval(appContext, time.NewTicker(config.SyncInterval))

	<-appContext.Done()
	appLogger.Info("Shutting down")
	return nil
}
