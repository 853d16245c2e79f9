package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/commonweb/user-manager/internal/core/domain"
)

const (
	collectionUsers       = "users"
	collectionRoles       = "roles"
	collectionPermissions = "permissions"
)

// Repository implements ports.Repository on MongoDB. Saves are upserts keyed
// by the entity name, so create and update share one write path; uniqueness
// is enforced by the indexes created in EnsureIndexes. Transaction-bound
// contexts produced by TxManager route every call through the session.
type Repository struct {
	users       *mongo.Collection
	roles       *mongo.Collection
	permissions *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		users:       db.Collection(collectionUsers),
		roles:       db.Collection(collectionRoles),
		permissions: db.Collection(collectionPermissions),
	}
}

type userDoc struct {
	Username       string   `bson:"username"`
	FirstName      string   `bson:"first_name"`
	LastName       string   `bson:"last_name"`
	Email          string   `bson:"email"`
	PasswordDigest string   `bson:"password_digest,omitempty"`
	Roles          []string `bson:"roles,omitempty"`
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		Username:       d.Username,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Email:          d.Email,
		PasswordDigest: d.PasswordDigest,
		Roles:          d.Roles,
	}
}

func fromUser(u *domain.User) *userDoc {
	return &userDoc{
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		PasswordDigest: u.PasswordDigest,
		Roles:          u.Roles,
	}
}

type roleDoc struct {
	Name        string   `bson:"name"`
	Permissions []string `bson:"permissions,omitempty"`
}

type permissionDoc struct {
	Name    string   `bson:"name"`
	Implied []string `bson:"implied,omitempty"`
}

// EnsureIndexes creates the unique name indexes on all three collections.
// Run once at startup before serving traffic.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	for _, c := range []struct {
		col *mongo.Collection
		key string
	}{
		{r.users, "username"},
		{r.roles, "name"},
		{r.permissions, "name"},
	} {
		_, err := c.col.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: c.key, Value: 1}},
			Options: unique,
		})
		if err != nil {
			return fmt.Errorf("create %s index: %w", c.col.Name(), err)
		}
	}
	return nil
}

// --- Users ---------------------------------------------------------------

func (r *Repository) HasUser(ctx context.Context, username string) (bool, error) {
	return r.has(ctx, r.users, bson.M{"username": username})
}

func (r *Repository) GetUser(ctx context.Context, username string) (*domain.User, error) {
	var doc userDoc
	err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// GetUsers returns all users ordered by last name then first name.
func (r *Repository) GetUsers(ctx context.Context) ([]*domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}})
	cur, err := r.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		users = append(users, doc.toDomain())
	}
	return users, cur.Err()
}

func (r *Repository) SaveUser(ctx context.Context, user *domain.User) error {
	return r.save(ctx, r.users, bson.M{"username": user.Username}, fromUser(user), "user", user.Username)
}

func (r *Repository) DeleteUser(ctx context.Context, username string) error {
	return r.delete(ctx, r.users, bson.M{"username": username}, "user", username)
}

// --- Roles ---------------------------------------------------------------

func (r *Repository) HasRole(ctx context.Context, name string) (bool, error) {
	return r.has(ctx, r.roles, bson.M{"name": name})
}

func (r *Repository) GetRole(ctx context.Context, name string) (*domain.Role, error) {
	var doc roleDoc
	err := r.roles.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("role %q: %w", name, domain.ErrNotFound)
		}
		return nil, err
	}
	return &domain.Role{Name: doc.Name, Permissions: doc.Permissions}, nil
}

func (r *Repository) GetRoles(ctx context.Context) ([]*domain.Role, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := r.roles.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var roles []*domain.Role
	for cur.Next(ctx) {
		var doc roleDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		roles = append(roles, &domain.Role{Name: doc.Name, Permissions: doc.Permissions})
	}
	return roles, cur.Err()
}

func (r *Repository) SaveRole(ctx context.Context, role *domain.Role) error {
	doc := &roleDoc{Name: role.Name, Permissions: role.Permissions}
	return r.save(ctx, r.roles, bson.M{"name": role.Name}, doc, "role", role.Name)
}

func (r *Repository) DeleteRole(ctx context.Context, name string) error {
	return r.delete(ctx, r.roles, bson.M{"name": name}, "role", name)
}

// --- Permissions ---------------------------------------------------------

func (r *Repository) HasPermission(ctx context.Context, name string) (bool, error) {
	return r.has(ctx, r.permissions, bson.M{"name": name})
}

func (r *Repository) GetPermission(ctx context.Context, name string) (*domain.Permission, error) {
	var doc permissionDoc
	err := r.permissions.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("permission %q: %w", name, domain.ErrNotFound)
		}
		return nil, err
	}
	return &domain.Permission{Name: doc.Name, Implied: doc.Implied}, nil
}

func (r *Repository) GetPermissions(ctx context.Context) ([]*domain.Permission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := r.permissions.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var perms []*domain.Permission
	for cur.Next(ctx) {
		var doc permissionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		perms = append(perms, &domain.Permission{Name: doc.Name, Implied: doc.Implied})
	}
	return perms, cur.Err()
}

func (r *Repository) SavePermission(ctx context.Context, perm *domain.Permission) error {
	doc := &permissionDoc{Name: perm.Name, Implied: perm.Implied}
	return r.save(ctx, r.permissions, bson.M{"name": perm.Name}, doc, "permission", perm.Name)
}

func (r *Repository) DeletePermission(ctx context.Context, name string) error {
	return r.delete(ctx, r.permissions, bson.M{"name": name}, "permission", name)
}

// --- shared helpers ------------------------------------------------------

func (r *Repository) has(ctx context.Context, col *mongo.Collection, filter bson.M) (bool, error) {
	n, err := col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) save(ctx context.Context, col *mongo.Collection, filter bson.M, doc interface{}, kind, name string) error {
	_, err := col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		// A concurrent insert of the same name trips the unique index.
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s %q: %w", kind, name, domain.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (r *Repository) delete(ctx context.Context, col *mongo.Collection, filter bson.M, kind, name string) error {
	res, err := col.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %q: %w", kind, name, domain.ErrNotFound)
	}
	return nil
}
