package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hitoshi/waitfree/internal/model"
)

// firestoreProfile はFirestoreに保存するプロフィールドキュメントの形。
type firestoreProfile struct {
	Email       string    `firestore:"email"`
	PhoneNumber string    `firestore:"phone_number"`
	CreatedAt   time.Time `firestore:"created_at"`
}

// FirestoreProfileRepo はCloud Firestoreを使用したプロフィールリポジトリ。
// ドキュメントIDはIdPのアカウントID。
type FirestoreProfileRepo struct {
	client     *firestore.Client
	collection string
}

var _ ProfileRepository = (*FirestoreProfileRepo)(nil)

// NewFirestoreProfileRepo はFirestoreProfileRepoを生成する。
func NewFirestoreProfileRepo(client *firestore.Client, collection string) *FirestoreProfileRepo {
	return &FirestoreProfileRepo{client: client, collection: collection}
}

// Create はプロフィールドキュメントを作成する。
// DocumentRef.Createは既存ドキュメントがあるとAlreadyExistsで失敗する。
func (r *FirestoreProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	doc := firestoreProfile{
		Email:       profile.Email,
		PhoneNumber: profile.PhoneNumber,
		CreatedAt:   profile.CreatedAt.UTC(),
	}

	_, err := r.client.Collection(r.collection).Doc(profile.AccountID).Create(ctx, doc)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("create profile %s: %w", profile.AccountID, ErrProfileAlreadyExists)
		}
		return fmt.Errorf("failed to create profile document: %w", err)
	}

	return nil
}

// FindByAccountID はアカウントIDでプロフィールドキュメントを取得する。見つからない場合はnilを返す。
func (r *FirestoreProfileRepo) FindByAccountID(ctx context.Context, accountID string) (*model.Profile, error) {
	snap, err := r.client.Collection(r.collection).Doc(accountID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile document: %w", err)
	}

	var doc firestoreProfile
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode profile document: %w", err)
	}

	return &model.Profile{
		AccountID:   snap.Ref.ID,
		Email:       doc.Email,
		PhoneNumber: doc.PhoneNumber,
		CreatedAt:   doc.CreatedAt.UTC(),
	}, nil
}
