package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/tutormatematica/tutorchat/internal/model"
)

const usersCollection = "users"

// userDocument is the stored shape of a user. Field names match the
// collection written by the previous backend.
type userDocument struct {
	ID        bson.ObjectID  `bson:"_id,omitempty"`
	Name      string         `bson:"name"`
	Email     string         `bson:"email"`
	Password  string         `bson:"password"`
	Chats     []chatDocument `bson:"chats"`
	CreatedAt time.Time      `bson:"createdAt"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

type chatDocument struct {
	ID        string    `bson:"id"`
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt,omitempty"`
}

// MongoStore is a UserStore backed by a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
}

// NewMongoStore connects to uri, verifies the connection and ensures the
// unique email index exists.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetMinPoolSize(2).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &MongoStore{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
	}

	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return store, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

// Create inserts u and assigns the generated ObjectID.
func (s *MongoStore) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.Email = NormalizeEmail(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now

	doc := toUserDocument(u)
	doc.ID = bson.NewObjectID()

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = doc.ID.Hex()
	if u.Chats == nil {
		u.Chats = []model.ChatTurn{}
	}
	return nil
}

// FindByEmail returns the user registered under email.
func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: NormalizeEmail(email)}}, "email")
}

// FindByID returns the user with the hex ObjectID id.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, "ID")
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.D, by string) (*model.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", by, err)
	}
	return doc.toModel(), nil
}

// List returns all users ordered by creation time.
func (s *MongoStore) List(ctx context.Context) ([]*model.User, error) {
	cursor, err := s.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*model.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toModel())
	}
	return users, nil
}

// Save overwrites the profile fields of u. The chats array is left alone.
func (s *MongoStore) Save(ctx context.Context, u *model.User) error {
	oid, err := bson.ObjectIDFromHex(u.ID)
	if err != nil {
		return ErrUserNotFound
	}

	u.Email = NormalizeEmail(u.Email)
	u.UpdatedAt = time.Now().UTC()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: u.Name},
		{Key: "email", Value: u.Email},
		{Key: "password", Value: u.PasswordHash},
		{Key: "updatedAt", Value: u.UpdatedAt},
	}}}

	result, err := s.users.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AppendChats pushes turns with a single $push so concurrent appends
// never overwrite each other.
func (s *MongoStore) AppendChats(ctx context.Context, id string, turns ...model.ChatTurn) ([]model.ChatTurn, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if err := checkTurns(turns); err != nil {
		return nil, err
	}

	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "chats", Value: bson.D{{Key: "$each", Value: toChatDocuments(turns)}}}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "chats", Value: 1}})

	var doc userDocument
	if err := s.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to append chats: %w", err)
	}
	return fromChatDocuments(doc.Chats), nil
}

// Clear empties the user's log.
func (s *MongoStore) Clear(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "chats", Value: bson.A{}},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}

	result, err := s.users.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return fmt.Errorf("failed to clear chats: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Ping checks MongoDB connectivity.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Collection returns the underlying users collection.
// Use sparingly - prefer adding methods to MongoStore.
func (s *MongoStore) Collection() *mongo.Collection {
	return s.users
}

func toUserDocument(u *model.User) userDocument {
	return userDocument{
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.PasswordHash,
		Chats:     toChatDocuments(u.Chats),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (d *userDocument) toModel() *model.User {
	return &model.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Chats:        fromChatDocuments(d.Chats),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toChatDocuments(turns []model.ChatTurn) []chatDocument {
	docs := make([]chatDocument, 0, len(turns))
	for _, t := range turns {
		docs = append(docs, chatDocument{
			ID:        t.ID,
			Role:      t.Role,
			Content:   t.Content,
			CreatedAt: t.CreatedAt,
		})
	}
	return docs
}

func fromChatDocuments(docs []chatDocument) []model.ChatTurn {
	turns := make([]model.ChatTurn, 0, len(docs))
	for _, d := range docs {
		turns = append(turns, model.ChatTurn{
			ID:        d.ID,
			Role:      d.Role,
			Content:   d.Content,
			CreatedAt: d.CreatedAt,
		})
	}
	return turns
}
