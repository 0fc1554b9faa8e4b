package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/waitfree/internal/account"
	"github.com/hitoshi/waitfree/internal/config"
	"github.com/hitoshi/waitfree/internal/database"
	"github.com/hitoshi/waitfree/internal/firebaseapp"
	"github.com/hitoshi/waitfree/internal/handler"
	"github.com/hitoshi/waitfree/internal/identity"
	"github.com/hitoshi/waitfree/internal/metrics"
	"github.com/hitoshi/waitfree/internal/repository"
)

// backends はIdPとプロフィールストアのクライアントを保持する。
// closeは取得した接続を逆順に解放する。
type backends struct {
	provider identity.Provider
	profiles repository.ProfileRepository
	closers  []func() error
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			slog.Warn("failed to close backend", slog.String("error", err.Error()))
		}
	}
}

// openBackends は設定に従ってIdPとプロフィールストアを初期化する。
// Firebaseアプリは両方のバックエンドで共有し、1度だけ生成する。
func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}

	var fbApp *firebase.App
	if cfg.UsesFirebase() {
		app, err := firebaseapp.New(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID)
		if err != nil {
			return nil, err
		}
		fbApp = app
		slog.Info("firebase app initialized",
			slog.String("credentials_file", cfg.FirebaseCredentialsFile),
		)
	}

	switch cfg.IdentityProvider {
	case config.IdentityProviderFirebase:
		authClient, err := fbApp.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize firebase auth: %w", err)
		}
		b.provider = identity.NewFirebaseProvider(authClient)
	case config.IdentityProviderKratos:
		b.provider = identity.NewKratosProvider(identity.KratosConfig{
			PublicURL: cfg.KratosPublicURL,
			AdminURL:  cfg.KratosAdminURL,
			SchemaID:  cfg.KratosSchemaID,
			Timeout:   cfg.ExternalCallTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported identity provider %q", cfg.IdentityProvider)
	}

	switch cfg.ProfileStore {
	case config.ProfileStoreFirestore:
		fsClient, err := fbApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize firestore: %w", err)
		}
		b.closers = append(b.closers, fsClient.Close)
		b.profiles = repository.NewFirestoreProfileRepo(fsClient, cfg.ProfileCollection)
	case config.ProfileStorePostgres:
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		b.profiles = repository.NewPostgresProfileRepo(db)
	default:
		return nil, fmt.Errorf("unsupported profile store %q", cfg.ProfileStore)
	}

	slog.Info("backends initialized",
		slog.String("identity_provider", cfg.IdentityProvider),
		slog.String("profile_store", cfg.ProfileStore),
	)
	return b, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Ping(ctx, db, cfg.ExternalCallTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")
	return db, nil
}

// newRegistry はプロセス・ランタイムのコレクタを登録したレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// buildHandler はサービスとルーターを組み立ててHTTPハンドラーを返す。
func buildHandler(cfg *config.Config, b *backends, reg *prometheus.Registry) http.Handler {
	collector := metrics.NewCollector(reg)

	accountService := account.NewService(
		b.provider, b.profiles, collector,
		account.ServiceConfig{CallTimeout: cfg.ExternalCallTimeout},
	)

	return handler.NewRouter(&handler.RouterDeps{
		Logger:             slog.Default(),
		Metrics:            collector,
		MetricsGatherer:    reg,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AccountService:     accountService,
	})
}
