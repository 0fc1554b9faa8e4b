// Package firebaseapp はサービスアカウント鍵からFirebaseアプリを初期化する。
package firebaseapp

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// New はcredentialsFileのサービスアカウント鍵を使って*firebase.Appを生成する。
// projectIDが空の場合は鍵ファイルのproject_idが使われる。
func New(ctx context.Context, credentialsFile, projectID string) (*firebase.App, error) {
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("firebase credentials file %q: %w", credentialsFile, err)
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	return app, nil
}
