package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap/zaptest"

	"mongo-user-service/internal/domain/user"
)

func newRepo(mt *mtest.T) *UserRepoMongo {
	return NewUserRepoMongo(mt.Coll, zaptest.NewLogger(mt.T))
}

func userDoc(id primitive.ObjectID, name, email string, age int, active bool) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "email", Value: email},
		{Key: "age", Value: age},
		{Key: "is_active", Value: active},
	}
}

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestUserRepoMongo_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := repo.Create(context.Background(), &user.User{Name: "Alice", Email: "alice@example.com", Age: 30, IsActive: true})

		require.NoError(mt, err)
		assert.True(mt, primitive.IsValidObjectID(id))
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: users_api.users index: email_1",
		}))

		_, err := repo.Create(context.Background(), &user.User{Name: "Alice", Email: "alice@example.com", Age: 30})

		assert.ErrorIs(mt, err, user.ErrEmailTaken)
	})

	mt.Run("nil user", func(mt *mtest.T) {
		_, err := newRepo(mt).Create(context.Background(), nil)
		assert.Error(mt, err)
	})
}

func TestUserRepoMongo_GetByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := newRepo(mt)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			userDoc(oid, "Alice", "alice@example.com", 30, false)))

		u, err := repo.GetByID(context.Background(), oid.Hex())

		require.NoError(mt, err)
		assert.Equal(mt, &user.User{ID: oid.Hex(), Name: "Alice", Email: "alice@example.com", Age: 30, IsActive: false}, u)
	})

	mt.Run("missing is_active reads as active", func(mt *mtest.T) {
		repo := newRepo(mt)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "Legacy"},
			{Key: "email", Value: "legacy@example.com"},
			{Key: "age", Value: 50},
		}))

		u, err := repo.GetByID(context.Background(), oid.Hex())

		require.NoError(mt, err)
		assert.True(mt, u.IsActive)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), primitive.NewObjectID().Hex())

		assert.ErrorIs(mt, err, user.ErrNotFound)
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		_, err := newRepo(mt).GetByID(context.Background(), "not-an-id")
		assert.ErrorIs(mt, err, user.ErrInvalidID)
	})
}

func TestUserRepoMongo_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.Update(context.Background(), primitive.NewObjectID().Hex(), user.Patch{Age: user.Some(31)})

		assert.NoError(mt, err)
	})

	mt.Run("same values still matched", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.Update(context.Background(), primitive.NewObjectID().Hex(), user.Patch{Name: user.Some("Alice")})

		assert.NoError(mt, err)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.Update(context.Background(), primitive.NewObjectID().Hex(), user.Patch{Name: user.Some("Bob")})

		assert.ErrorIs(mt, err, user.ErrNotFound)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Update(context.Background(), primitive.NewObjectID().Hex(), user.Patch{Email: user.Some("taken@example.com")})

		assert.ErrorIs(mt, err, user.ErrEmailTaken)
	})

	mt.Run("empty patch is a no-op", func(mt *mtest.T) {
		err := newRepo(mt).Update(context.Background(), primitive.NewObjectID().Hex(), user.Patch{})
		assert.NoError(mt, err)
	})
}

func TestUserRepoMongo_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, repo.Delete(context.Background(), primitive.NewObjectID().Hex()))
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Delete(context.Background(), primitive.NewObjectID().Hex())

		assert.ErrorIs(mt, err, user.ErrNotFound)
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		err := newRepo(mt).Delete(context.Background(), "123")
		assert.ErrorIs(mt, err, user.ErrInvalidID)
	})
}

func TestUserRepoMongo_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("page with total", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int64(15)}}),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
				userDoc(primitive.NewObjectID(), "User 10", "u10@example.com", 20, true),
				userDoc(primitive.NewObjectID(), "User 11", "u11@example.com", 21, true),
			),
		)

		users, total, err := repo.List(context.Background(), user.ListFilter{}, 3, 5)

		require.NoError(mt, err)
		assert.Equal(mt, int64(15), total)
		require.Len(mt, users, 2)
		assert.Equal(mt, "User 10", users[0].Name)
	})

	mt.Run("no matches", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch),
		)

		users, total, err := repo.List(context.Background(), user.ListFilter{NamePattern: "zzz"}, 1, 10)

		require.NoError(mt, err)
		assert.Equal(mt, int64(0), total)
		assert.Empty(mt, users)
	})

	mt.Run("count failure", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
			Name:    "BadValue",
		}))

		_, _, err := repo.List(context.Background(), user.ListFilter{}, 1, 10)

		assert.Error(mt, err)
	})
}

func TestUserRepoMongo_EnsureIndexesAndPing(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("indexes", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, repo.EnsureIndexes(context.Background()))
	})

	mt.Run("ping", func(mt *mtest.T) {
		repo := newRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, repo.Ping(context.Background()))
	})
}

func TestBuildFilter(t *testing.T) {
	minAge, maxAge := 18, 65
	active, inactive := true, false

	tests := []struct {
		name     string
		filter   user.ListFilter
		expected bson.D
	}{
		{name: "empty", filter: user.ListFilter{}, expected: bson.D{}},
		{
			name:     "name pattern",
			filter:   user.ListFilter{NamePattern: "ali"},
			expected: bson.D{{Key: "name", Value: primitive.Regex{Pattern: "ali", Options: "i"}}},
		},
		{
			name:     "age range",
			filter:   user.ListFilter{MinAge: &minAge, MaxAge: &maxAge},
			expected: bson.D{{Key: "age", Value: bson.D{{Key: "$gte", Value: 18}, {Key: "$lte", Value: 65}}}},
		},
		{
			name:     "min age only",
			filter:   user.ListFilter{MinAge: &minAge},
			expected: bson.D{{Key: "age", Value: bson.D{{Key: "$gte", Value: 18}}}},
		},
		{
			name:     "active",
			filter:   user.ListFilter{IsActive: &active},
			expected: bson.D{{Key: "is_active", Value: bson.D{{Key: "$ne", Value: false}}}},
		},
		{
			name:     "inactive",
			filter:   user.ListFilter{IsActive: &inactive},
			expected: bson.D{{Key: "is_active", Value: false}},
		},
		{
			name:   "all combined",
			filter: user.ListFilter{NamePattern: "a", MaxAge: &maxAge, IsActive: &inactive},
			expected: bson.D{
				{Key: "name", Value: primitive.Regex{Pattern: "a", Options: "i"}},
				{Key: "age", Value: bson.D{{Key: "$lte", Value: 65}}},
				{Key: "is_active", Value: false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildFilter(tt.filter))
		})
	}
}

func TestSetDocument(t *testing.T) {
	set := setDocument(user.Patch{Email: user.Some("a@b.co"), IsActive: user.Some(false)})

	assert.Equal(t, bson.D{
		{Key: "email", Value: "a@b.co"},
		{Key: "is_active", Value: false},
	}, set)
	assert.Empty(t, setDocument(user.Patch{}))
}
