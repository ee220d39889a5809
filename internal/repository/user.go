package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/folio/folio/internal/model"
)

// UpsertAdminUser creates the admin with email or resets its name,
// password hash and role.
func (r *Repository) UpsertAdminUser(ctx context.Context, u *model.AdminUser) (*model.AdminUser, error) {
	now := time.Now().UTC()
	email := strings.ToLower(strings.TrimSpace(u.Email))

	var out model.AdminUser
	err := r.coll(CollAdminUsers).FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{
			"$set": bson.M{
				"name":         u.Name,
				"passwordHash": u.PasswordHash,
				"role":         u.Role,
				"updatedAt":    now,
			},
			"$setOnInsert": bson.M{"email": email, "createdAt": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("upsert admin user: %w", translate(err))
	}
	return &out, nil
}

// GetAdminByEmail fetches an admin by email (case-insensitive).
func (r *Repository) GetAdminByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	var u model.AdminUser
	err := r.coll(CollAdminUsers).FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetAdminByID fetches an admin by id.
func (r *Repository) GetAdminByID(ctx context.Context, id primitive.ObjectID) (*model.AdminUser, error) {
	var u model.AdminUser
	if err := r.findByID(ctx, CollAdminUsers, id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// TouchAdminLogin stamps the last successful login.
func (r *Repository) TouchAdminLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.coll(CollAdminUsers).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLoginAt": at}})
	if err != nil {
		return fmt.Errorf("touch admin login: %w", err)
	}
	return nil
}
