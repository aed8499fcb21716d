package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"mongo-user-service/internal/domain/user"
)

// UserRepoMongo implements the Repository interface on a MongoDB collection.
type UserRepoMongo struct {
	coll *mongo.Collection // users collection
	log  *zap.Logger       // Structured logger for database operations
}

// NewUserRepoMongo creates a new instance of UserRepoMongo.
func NewUserRepoMongo(coll *mongo.Collection, log *zap.Logger) *UserRepoMongo {
	return &UserRepoMongo{coll: coll, log: log}
}

// userDocument is the stored shape of a user.
// IsActive is a pointer so documents written without the field read back as active.
type userDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	Name     string             `bson:"name"`
	Email    string             `bson:"email"`
	Age      int                `bson:"age"`
	IsActive *bool              `bson:"is_active,omitempty"`
}

func (d *userDocument) toDomain() *user.User {
	isActive := true
	if d.IsActive != nil {
		isActive = *d.IsActive
	}
	return &user.User{
		ID:       d.ID.Hex(),
		Name:     d.Name,
		Email:    d.Email,
		Age:      d.Age,
		IsActive: isActive,
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, user.ErrInvalidID
	}
	return oid, nil
}

// EnsureIndexes creates the unique email index and the name index used for
// sorting. It is idempotent.
func (r *UserRepoMongo) EnsureIndexes(ctx context.Context) error {
	names, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	})
	if err != nil {
		r.log.Error("failed to create indexes", zap.Error(err))
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	r.log.Info("indexes ready", zap.Strings("indexes", names))
	return nil
}

// Ping checks that the primary is reachable.
func (r *UserRepoMongo) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

// Create inserts a new user and returns the generated id.
func (r *UserRepoMongo) Create(ctx context.Context, u *user.User) (string, error) {
	if u == nil {
		return "", errors.New("user cannot be nil")
	}

	isActive := u.IsActive
	doc := userDocument{
		ID:       primitive.NewObjectID(),
		Name:     u.Name,
		Email:    u.Email,
		Age:      u.Age,
		IsActive: &isActive,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.log.Warn("duplicate email on insert", zap.String("email", u.Email))
			return "", user.ErrEmailTaken
		}
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	id := doc.ID.Hex()
	r.log.Info("user created in db", zap.String("id", id))
	return id, nil
}

// GetByID retrieves a user by id.
func (r *UserRepoMongo) GetByID(ctx context.Context, id string) (*user.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Debug("user not found", zap.String("id", id))
			return nil, user.ErrNotFound
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return doc.toDomain(), nil
}

// Update writes the fields set in patch. Unset fields are left untouched.
func (r *UserRepoMongo) Update(ctx context.Context, id string, patch user.Patch) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	set := setDocument(patch)
	if len(set) == 0 {
		return nil
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.log.Warn("duplicate email on update", zap.String("id", id), zap.String("email", patch.Email.Value))
			return user.ErrEmailTaken
		}
		r.log.Error("failed to update user in db", zap.Error(err), zap.String("id", id))
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return user.ErrNotFound
	}

	r.log.Info("user updated in db", zap.String("id", id), zap.Int64("modified", res.ModifiedCount))
	return nil
}

// Delete removes a user by id.
func (r *UserRepoMongo) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		r.log.Error("failed to delete user in db", zap.Error(err), zap.String("id", id))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return user.ErrNotFound
	}

	r.log.Info("user deleted in db", zap.String("id", id))
	return nil
}

// List returns one page of users matching f sorted by name, and the number
// of users matching f regardless of paging.
func (r *UserRepoMongo) List(ctx context.Context, f user.ListFilter, page, limit int64) ([]user.User, int64, error) {
	filter := buildFilter(f)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		r.log.Error("failed to count users", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		r.log.Error("failed to list users from db", zap.Error(err), zap.Int64("page", page), zap.Int64("limit", limit))
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		r.log.Error("failed to decode users", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]user.User, len(docs))
	for i := range docs {
		users[i] = *docs[i].toDomain()
	}

	return users, total, nil
}

// buildFilter translates a ListFilter into a query document.
// Every predicate present is ANDed.
func buildFilter(f user.ListFilter) bson.D {
	filter := bson.D{}

	if f.NamePattern != "" {
		filter = append(filter, bson.E{Key: "name", Value: primitive.Regex{Pattern: f.NamePattern, Options: "i"}})
	}

	age := bson.D{}
	if f.MinAge != nil {
		age = append(age, bson.E{Key: "$gte", Value: *f.MinAge})
	}
	if f.MaxAge != nil {
		age = append(age, bson.E{Key: "$lte", Value: *f.MaxAge})
	}
	if len(age) > 0 {
		filter = append(filter, bson.E{Key: "age", Value: age})
	}

	if f.IsActive != nil {
		if *f.IsActive {
			// documents without the field count as active
			filter = append(filter, bson.E{Key: "is_active", Value: bson.D{{Key: "$ne", Value: false}}})
		} else {
			filter = append(filter, bson.E{Key: "is_active", Value: false})
		}
	}

	return filter
}

func setDocument(p user.Patch) bson.D {
	set := bson.D{}
	if p.Name.Set {
		set = append(set, bson.E{Key: "name", Value: p.Name.Value})
	}
	if p.Email.Set {
		set = append(set, bson.E{Key: "email", Value: p.Email.Value})
	}
	if p.Age.Set {
		set = append(set, bson.E{Key: "age", Value: p.Age.Value})
	}
	if p.IsActive.Set {
		set = append(set, bson.E{Key: "is_active", Value: p.IsActive.Value})
	}
	return set
}
