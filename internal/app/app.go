package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/waitfree/internal/config"
	"github.com/hitoshi/waitfree/internal/database"
	"github.com/hitoshi/waitfree/internal/logger"
)

// HTTPサーバーのタイムアウト
const (
	readTimeout        = 15 * time.Second
	minWriteTimeout    = 30 * time.Second
	writeTimeoutMargin = 5 * time.Second
	idleTimeout        = 60 * time.Second
	shutdownTimeout    = 30 * time.Second
)

// signupExternalCalls はサインアップ1回で直列に行う外部呼び出しの最大数。
// アカウント作成、プロフィール保存、ロールバック。
const signupExternalCalls = 3

// writeTimeoutFor はサインアップの最悪ケースでもレスポンスを書き切れるWriteTimeoutを返す。
func writeTimeoutFor(callTimeout time.Duration) time.Duration {
	d := signupExternalCalls*callTimeout + writeTimeoutMargin
	if d < minWriteTimeout {
		return minWriteTimeout
	}
	return d
}

// newServer はcfgに従ってタイムアウトを設定したhttp.Serverを生成する。
func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      h,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeoutFor(cfg.ExternalCallTimeout),
		IdleTimeout:  idleTimeout,
	}
}

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、.envと環境変数からConfigを読み込む。
// DEBUGが有効な場合はDEBUGレベルでログを再設定する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. .envと環境変数から設定を読み込む
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("could not load .env file", slog.String("error", err.Error()))
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Debug {
		logger.SetupDefault(w, logger.Level(cfg.Debug))
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "5000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("identity_provider", cfg.IdentityProvider),
		slog.String("profile_store", cfg.ProfileStore),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// バックエンドを初期化して全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize backends: %w", err)
	}
	defer b.close()

	return serve(ctx, newServer(cfg, buildHandler(cfg, b, newRegistry())))
}

// serve はctxがキャンセルされるまでserverを動かし、その後グレースフルシャットダウンする。
// 待ち受けに失敗した場合はそのエラーを返す。
func serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はプロフィールテーブルのマイグレーションを実行する。
// Firestoreはスキーマを持たないため、PROFILE_STORE=postgresの場合のみ実行できる。
func runMigrate(cfg *config.Config) error {
	if cfg.ProfileStore != config.ProfileStorePostgres {
		return fmt.Errorf("migrate requires PROFILE_STORE=%s, got %q", config.ProfileStorePostgres, cfg.ProfileStore)
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("schema_version", uint64(version)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
