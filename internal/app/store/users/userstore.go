// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/app/system/status"
	"github.com/dalemusser/stratasite/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateLoginID means another account already signs in with the email.
	ErrDuplicateLoginID = errors.New("a user with this email already exists")
	// ErrNotFound means an update matched no user.
	ErrNotFound      = errors.New("user not found")
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidStatus = errors.New("invalid status")
)

// Store reads and writes the users collection. The account email is also
// the login id; login_id_ci holds its folded form for lookups.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users"), now: time.Now}
}

// loginKeys returns the stored email and its folded lookup key.
func loginKeys(email string) (string, string) {
	e := normalize.Email(email)
	return e, text.Fold(e)
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns mongo.ErrNoDocuments for an unknown id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByLoginID matches the email ignoring case and diacritics. It returns
// mongo.ErrNoDocuments when nobody signs in with it.
func (s *Store) GetByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	_, key := loginKeys(loginID)
	return s.findOne(ctx, bson.M{"login_id_ci": key})
}

// ExistsByLoginID reports whether an account signs in with loginID.
func (s *Store) ExistsByLoginID(ctx context.Context, loginID string) (bool, error) {
	_, key := loginKeys(loginID)
	n, err := s.c.CountDocuments(ctx, bson.M{"login_id_ci": key}, options.Count().SetLimit(1))
	return n > 0, err
}

// CreateInput is a new account. Role defaults to customer; the status is
// always the default.
type CreateInput struct {
	FullName     string
	Email        string
	Phone        string
	Company      string
	Role         string
	PasswordHash string
}

// Create normalizes and stores a new account.
func (s *Store) Create(ctx context.Context, in CreateInput) (models.User, error) {
	role := normalize.Role(in.Role)
	if role == "" {
		role = models.RoleUser
	}
	if !models.IsValidRole(role) {
		return models.User{}, ErrInvalidRole
	}

	now := s.now().UTC()
	name := normalize.Name(in.FullName)
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   name,
		FullNameCI: text.Fold(name),
		Phone:      normalize.Phone(in.Phone),
		Company:    normalize.Name(in.Company),
		Role:       role,
		Status:     status.Default(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.Email != "" {
		email, key := loginKeys(in.Email)
		u.Email, u.LoginID, u.LoginIDCI = &email, &email, &key
	}
	if in.PasswordHash != "" {
		hash := in.PasswordHash
		u.PasswordHash = &hash
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateLoginID
		}
		return models.User{}, err
	}
	return u, nil
}

// UpdateInput changes the non-nil fields. A new email also becomes the
// login id.
type UpdateInput struct {
	FullName     *string
	Email        *string
	Phone        *string
	Company      *string
	Role         *string
	Status       *string
	PasswordHash *string
}

func (in UpdateInput) set(now time.Time) (bson.M, error) {
	set := bson.M{"updated_at": now}
	if in.FullName != nil {
		name := normalize.Name(*in.FullName)
		set["full_name"], set["full_name_ci"] = name, text.Fold(name)
	}
	if in.Email != nil {
		email, key := loginKeys(*in.Email)
		set["email"], set["login_id"], set["login_id_ci"] = email, email, key
	}
	if in.Phone != nil {
		set["phone"] = normalize.Phone(*in.Phone)
	}
	if in.Company != nil {
		set["company"] = normalize.Name(*in.Company)
	}
	if in.Role != nil {
		role := normalize.Role(*in.Role)
		if !models.IsValidRole(role) {
			return nil, ErrInvalidRole
		}
		set["role"] = role
	}
	if in.Status != nil {
		st := normalize.Status(*in.Status)
		if !status.IsValid(st) {
			return nil, ErrInvalidStatus
		}
		set["status"] = st
	}
	if in.PasswordHash != nil {
		set["password_hash"] = *in.PasswordHash
	}
	return set, nil
}

// Update applies in to the user with id.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) error {
	set, err := in.set(s.now().UTC())
	if err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateLoginID
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.Update(ctx, id, UpdateInput{PasswordHash: &hash})
}

// TouchLastLogin stamps last_login_at.
func (s *Store) TouchLastLogin(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login_at": s.now().UTC()}})
	return err
}

// Delete returns how many users were removed, 0 or 1.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountActiveAdmins counts admins who can still sign in.
func (s *Store) CountActiveAdmins(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role": models.RoleAdmin, "status": status.Active})
}

// ListFilter narrows List. Zero values mean any.
type ListFilter struct {
	Role   string
	Status string
	Search string // substring of the folded name or email
	Limit  int64
	Offset int64
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func (f ListFilter) query() bson.M {
	q := bson.M{}
	if f.Role != "" {
		q["role"] = normalize.Role(f.Role)
	}
	if f.Status != "" {
		q["status"] = normalize.Status(f.Status)
	}
	if term := text.Fold(normalize.QueryParam(f.Search)); term != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(term)}
		q["$or"] = bson.A{bson.M{"full_name_ci": rx}, bson.M{"login_id_ci": rx}}
	}
	return q
}

func (f ListFilter) limit() int64 {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	}
	return f.Limit
}

// List returns one page sorted by name and the number of matches.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.User, int64, error) {
	q := f.query()
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(f.limit()).
		SetSkip(f.Offset)
	users, err := s.find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetByIDs skips ids that match nobody.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
