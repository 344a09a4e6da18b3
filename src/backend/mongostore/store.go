package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/models"
)

// Store implements backend.Backend on a MongoDB database. Every table is a
// collection of documents keyed by their "id" field.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ backend.Backend = (*Store)(nil)
var _ backend.Migrator = (*Store)(nil)

// Open connects and pings the server.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", translate(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", translate(err))
	}

	log.Println("Connected to MongoDB!")
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Migrate creates the unique indexes the relational adapters get from their schema.
func (s *Store) Migrate(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		models.TableUsers: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		models.TableConnections: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "connected_user_id", Value: 1}}, Options: unique},
		},
		models.TableInvitations: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "invitee_email", Value: 1}, {Key: "status", Value: 1}}},
		},
		models.TableAffirmations: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "recipient_email", Value: 1}, {Key: "status", Value: 1}}},
		},
		models.TablePeople: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		},
		models.TableNotifications: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for coll, idx := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, translate(err))
		}
	}

	log.Println("Mongo indexes ensured!")
	return nil
}

func (s *Store) QueryRows(ctx context.Context, table string, filter backend.Filter, order *backend.Order, dest any) error {
	doc, err := toBSON(filter)
	if err != nil {
		return err
	}

	opts := options.Find()
	if order != nil {
		dir := 1
		if order.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: order.Column, Value: dir}})
	}

	cursor, err := s.db.Collection(table).Find(ctx, doc, opts)
	if err != nil {
		return translate(err)
	}
	defer cursor.Close(ctx)

	return translate(cursor.All(ctx, dest))
}

func (s *Store) InsertRows(ctx context.Context, table string, rows any) error {
	docs, err := documents(rows)
	if err != nil {
		return err
	}
	if len(docs) == 1 {
		_, err = s.db.Collection(table).InsertOne(ctx, docs[0])
	} else {
		_, err = s.db.Collection(table).InsertMany(ctx, docs)
	}
	return translate(err)
}

func (s *Store) UpdateRows(ctx context.Context, table string, filter backend.Filter, patch map[string]any) (int64, error) {
	if filter.Empty() {
		return 0, fmt.Errorf("update on %s without filter: %w", table, errs.ErrInvalidInput)
	}
	doc, err := toBSON(filter)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Collection(table).UpdateMany(ctx, doc, bson.M{"$set": patch})
	if err != nil {
		return 0, translate(err)
	}
	return res.MatchedCount, nil
}

func (s *Store) DeleteRows(ctx context.Context, table string, filter backend.Filter) (int64, error) {
	if filter.Empty() {
		return 0, fmt.Errorf("delete on %s without filter: %w", table, errs.ErrInvalidInput)
	}
	doc, err := toBSON(filter)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Collection(table).DeleteMany(ctx, doc)
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}

// documents flattens a pointer to a struct or to a slice of structs into insertable documents.
func documents(rows any) ([]any, error) {
	v := reflect.ValueOf(rows)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("nil rows: %w", errs.ErrInvalidInput)
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct, reflect.Map:
		return []any{v.Interface()}, nil
	case reflect.Slice:
		if v.Len() == 0 {
			return nil, fmt.Errorf("no rows to insert: %w", errs.ErrInvalidInput)
		}
		docs := make([]any, v.Len())
		for i := range docs {
			docs[i] = v.Index(i).Interface()
		}
		return docs, nil
	default:
		return nil, fmt.Errorf("cannot insert %T: %w", rows, errs.ErrInvalidInput)
	}
}

// toBSON renders a filter as a query document.
func toBSON(filter backend.Filter) (bson.M, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, errs.ErrInvalidInput)
	}

	var and []bson.M
	for _, p := range filter.All {
		and = append(and, predicate(p))
	}
	if len(filter.Any) > 0 {
		or := make([]bson.M, 0, len(filter.Any))
		for _, group := range filter.Any {
			conds := make([]bson.M, 0, len(group))
			for _, p := range group {
				conds = append(conds, predicate(p))
			}
			or = append(or, bson.M{"$and": conds})
		}
		and = append(and, bson.M{"$or": or})
	}

	if len(and) == 0 {
		return bson.M{}, nil
	}
	return bson.M{"$and": and}, nil
}

func predicate(p backend.Predicate) bson.M {
	switch p.Op {
	case backend.OpNeq:
		return bson.M{p.Column: bson.M{"$ne": p.Value}}
	case backend.OpLt:
		return bson.M{p.Column: bson.M{"$lt": p.Value}}
	case backend.OpIsNull:
		// Matches both an explicit null and a missing field.
		return bson.M{p.Column: nil}
	default:
		return bson.M{p.Column: bson.M{"$eq": p.Value}}
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrInvalidInput):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", errs.ErrConstraintViolation, err)
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %v", errs.ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %v", errs.ErrBackendUnavailable, err)
	}
}
