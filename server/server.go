package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Daskott/raksha/server/auth/key"
	"github.com/Daskott/raksha/server/contacts"
	"github.com/Daskott/raksha/server/cron"
	"github.com/Daskott/raksha/server/documents"
	"github.com/Daskott/raksha/server/filestore"
	"github.com/Daskott/raksha/server/gstorage"
	"github.com/Daskott/raksha/server/logger"
	"github.com/Daskott/raksha/server/metrics"
	"github.com/Daskott/raksha/server/models"
	"github.com/Daskott/raksha/server/notify"
	"github.com/Daskott/raksha/server/sos"
	"github.com/Daskott/raksha/server/twilio"
	"github.com/Daskott/raksha/shared"
	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

var (
	logg     = logger.NewLogger()
	validate *validator.Validate

	authKeyPair     *key.KeyPair
	sosOrchestrator *sos.Orchestrator
	contactRegistry *contacts.Registry
	documentService *documents.Service

	// verboseErrors includes internal error details in responses
	verboseErrors bool
	smsSimulated  bool
)

func init() {
	validate = validator.New()
	fatalOnError(RegisterValidators(validate))
}

func Start(config *viper.Viper, devMode bool) {
	serverConfig, err := LoadConfig(config)
	fatalOnError(err)

	rootDir := configDirectory(devMode)

	err = models.AutoMigrate(serverConfig.Sqlite.PassPhrase, rootDir)
	fatalOnError(err)

	var gStorage *gstorage.GStorage
	storageConfig := serverConfig.Google.Storage
	if storageConfig.EnableSqliteBackupAndSync || storageConfig.DocumentsBucket != "" {
		gStorage, err = gstorage.NewGStorage(serverConfig.Google.ApplicationCredentials)
		fatalOnError(err)
	}

	files, err := NewDocumentFileStore(serverConfig, rootDir, gStorage)
	fatalOnError(err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	twilioClient := twilio.NewClient(serverConfig.Twilio)
	if twilioClient.Simulated() {
		logg.Warn("Twilio credentials not set, SMS alerts will be simulated")
	}

	err = configureServices(serverConfig, twilioClient, files, registry, devMode)
	fatalOnError(err)

	cronScheduler := cron.NewCronScheduler(serverConfig.Raksha.Cron.TimeZone)

	var backupDb func() error
	if storageConfig.EnableSqliteBackupAndSync {
		backupDb = backupSqliteDbJob(gStorage, storageConfig, rootDir)
		fatalOnError(scheduleJobs(cronScheduler, storageConfig.SqliteBackupSchedule, backupDb))
	}
	cronScheduler.StartAsync()

	server := &http.Server{
		Addr:        fmt.Sprintf(":%v", serverConfig.Raksha.Listener.Port),
		Handler:     newRouter(registry),
		ReadTimeout: 30 * time.Second,
	}

	go serve(server)

	// Wait for an interrupt before cleaning up
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	cleanup(cronScheduler, server, backupDb)
}

// LoadConfig unmarshals & validates the server config
func LoadConfig(config *viper.Viper) (shared.ServerConfig, error) {
	config.SetDefault("raksha.cron.timeZone", "UTC")
	config.SetDefault("raksha.listener.port", 3000)
	config.SetDefault("safety.smsAttempts", notify.DEFAULT_ATTEMPTS)
	config.SetDefault("safety.smsDelaySeconds", int(notify.DEFAULT_DELAY/time.Second))

	serverConfig := shared.ServerConfig{}
	err := config.Unmarshal(&serverConfig)
	if err != nil {
		return serverConfig, fmt.Errorf("unable to decode server config: %v", err)
	}

	err = validate.Struct(serverConfig)
	if err != nil {
		return serverConfig, fmt.Errorf("invalid server config: %v", err)
	}

	return serverConfig, nil
}

// DocumentFiles is a document file store that can also list what it holds
type DocumentFiles interface {
	documents.FileStore
	List(ctx context.Context) ([]string, error)
}

// OpenDocumentStorage opens the db & the document file store without starting the server
func OpenDocumentStorage(config *viper.Viper, devMode bool) (DocumentFiles, error) {
	serverConfig, err := LoadConfig(config)
	if err != nil {
		return nil, err
	}

	rootDir := configDirectory(devMode)

	err = models.AutoMigrate(serverConfig.Sqlite.PassPhrase, rootDir)
	if err != nil {
		return nil, err
	}

	var gStorage *gstorage.GStorage
	if serverConfig.Google.Storage.DocumentsBucket != "" {
		gStorage, err = gstorage.NewGStorage(serverConfig.Google.ApplicationCredentials)
		if err != nil {
			return nil, err
		}
	}

	return NewDocumentFileStore(serverConfig, rootDir, gStorage)
}

// NewDocumentFileStore keeps documents in the configured GCS bucket, or on
// disk under the upload dir when no bucket is set.
func NewDocumentFileStore(serverConfig shared.ServerConfig, rootDir string, gStorage *gstorage.GStorage) (DocumentFiles, error) {
	storageConfig := serverConfig.Google.Storage
	if storageConfig.DocumentsBucket != "" {
		if gStorage == nil {
			return nil, fmt.Errorf("google storage is required for bucket %q", storageConfig.DocumentsBucket)
		}
		return gStorage.BucketStore(storageConfig.DocumentsBucket, storageConfig.Prefix), nil
	}

	uploadDir := serverConfig.Raksha.UploadDir
	if uploadDir == "" {
		uploadDir = filepath.Join(rootDir, "uploads")
	}

	return filestore.NewLocal(uploadDir)
}

func configureServices(
	serverConfig shared.ServerConfig,
	transport notify.Transport,
	files documents.FileStore,
	reg prometheus.Registerer,
	devMode bool) error {

	var err error
	authKeyPair, err = key.NewKeyPairFromRSAPrivateKeyPem(serverConfig.Raksha.PrivateKeyPem)
	if err != nil {
		return err
	}

	safetyMetrics := metrics.NewSafetyMetrics(reg)
	from := serverConfig.Twilio.FromNumber

	contactDispatcher := notify.NewDispatcher(transport, from).
		WithAttempts(serverConfig.Safety.SmsAttempts).
		WithDelay(time.Duration(serverConfig.Safety.SmsDelaySeconds) * time.Second).
		WithMetrics(safetyMetrics)

	// The authority only gets a single message
	authorityDispatcher := notify.NewDispatcher(transport, from).
		WithAttempts(1).
		WithMetrics(safetyMetrics)

	store := models.NewStore()
	sosOrchestrator = sos.NewOrchestrator(store, contactDispatcher, authorityDispatcher, serverConfig.Safety.AuthorityNumber).
		WithMetrics(safetyMetrics)
	contactRegistry = contacts.NewRegistry(store)
	documentService = documents.NewService(store, files, serverConfig.Safety.RequiredDocuments)

	smsSimulated = contactDispatcher.Simulated()
	verboseErrors = devMode

	return nil
}

func newRouter(gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	router.HandleFunc("/health", health).Methods("GET")

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Use(initialContextMiddleware)

	v1.HandleFunc("/users", createUser).Methods("POST")
	v1.HandleFunc("/login", logIn).Methods("POST")
	v1.HandleFunc("/jwks", jwks).Methods("GET")

	protectedRouter := v1.NewRoute().Subrouter()
	protectedRouter.Use(protectedRouteMiddleware)

	protectedRouter.HandleFunc("/sos", sendSOS).Methods("POST")
	protectedRouter.HandleFunc("/sos/history", sosHistory).Methods("GET")

	protectedRouter.HandleFunc("/contacts", addContact).Methods("POST")
	protectedRouter.HandleFunc("/contacts", listContacts).Methods("GET")
	protectedRouter.HandleFunc("/contacts/{cid}", updateContact).Methods("PUT")
	protectedRouter.HandleFunc("/contacts/{cid}", deleteContact).Methods("DELETE")

	protectedRouter.HandleFunc("/documents", uploadDocument).Methods("POST")
	protectedRouter.HandleFunc("/documents", listDocuments).Methods("GET")
	protectedRouter.HandleFunc("/documents/{did}/file", viewDocumentFile).Methods("GET")

	adminRouter := v1.NewRoute().Subrouter()
	adminRouter.Use(adminRouteMiddleware)

	adminRouter.HandleFunc("/documents/{did}/review", reviewDocument).Methods("PUT")

	return router
}
