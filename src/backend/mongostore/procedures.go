package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/models"
)

// CallRemoteProcedure runs the named procedure inside a multi-document transaction.
// The server must be a replica set for transactions to be accepted.
func (s *Store) CallRemoteProcedure(ctx context.Context, name string, args map[string]any, result any) error {
	var fn func(mongo.SessionContext, backend.ConnectionArgs) (int64, error)
	needStatus := true

	switch name {
	case backend.ProcCreateBidirectionalConnection:
		fn = s.createBidirectional
	case backend.ProcUpdateBidirectionalConnection:
		fn = s.updateBidirectional
	case backend.ProcRemoveBidirectionalConnection:
		fn, needStatus = s.removeBidirectional, false
	default:
		return fmt.Errorf("procedure %q: %w", name, errs.ErrNotFound)
	}

	a, err := backend.ParseConnectionArgs(args, needStatus)
	if err != nil {
		return err
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return translate(err)
	}
	defer sess.EndSession(ctx)

	out, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return fn(sc, a)
	})
	if err != nil {
		return translate(err)
	}

	if n, ok := result.(*int64); ok && n != nil {
		*n = out.(int64)
	}
	return nil
}

func (s *Store) createBidirectional(sc mongo.SessionContext, a backend.ConnectionArgs) (int64, error) {
	now := time.Now().UTC()
	coll := s.db.Collection(models.TableConnections)

	for _, pair := range [][2]string{{a.UserA, a.UserB}, {a.UserB, a.UserA}} {
		_, err := coll.UpdateOne(sc,
			bson.M{"user_id": pair[0], "connected_user_id": pair[1]},
			bson.M{
				"$set":         bson.M{"status": a.Status, "updated_at": now},
				"$setOnInsert": bson.M{"id": uuid.NewString(), "created_at": now},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return 0, err
		}
	}
	return 2, nil
}

func (s *Store) updateBidirectional(sc mongo.SessionContext, a backend.ConnectionArgs) (int64, error) {
	filter, err := toBSON(backend.EitherDirection(a.UserA, a.UserB))
	if err != nil {
		return 0, err
	}

	res, err := s.db.Collection(models.TableConnections).UpdateMany(sc, filter, bson.M{
		"$set": bson.M{"status": a.Status, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	if res.MatchedCount != 2 {
		return 0, fmt.Errorf("connection %s<->%s has %d edges: %w", a.UserA, a.UserB, res.MatchedCount, errs.ErrNotFound)
	}
	return res.MatchedCount, nil
}

func (s *Store) removeBidirectional(sc mongo.SessionContext, a backend.ConnectionArgs) (int64, error) {
	filter, err := toBSON(backend.EitherDirection(a.UserA, a.UserB))
	if err != nil {
		return 0, err
	}

	res, err := s.db.Collection(models.TableConnections).DeleteMany(sc, filter)
	if err != nil {
		return 0, err
	}
	if res.DeletedCount == 0 {
		return 0, fmt.Errorf("connection %s<->%s: %w", a.UserA, a.UserB, errs.ErrNotFound)
	}
	return res.DeletedCount, nil
}
