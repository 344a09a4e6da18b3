// Package services holds the application logic. Every service talks to the
// data store through backend.Backend and announces changes on a realtime.Publisher.
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/lib"
	"github.com/theleywin/love-on-the-pixel/src/realtime"
)

type Config struct {
	// AppBaseURL prefixes invitation share links.
	AppBaseURL string
	Tokens     *lib.TokenIssuer
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// Services wires every service against one backend.
type Services struct {
	Accounts      *AccountService
	Invitations   *InvitationService
	Connections   *ConnectionService
	Affirmations  *AffirmationService
	People        *PeopleService
	Notifications *NotificationService
}

func New(db backend.Backend, events realtime.Publisher, cfg Config) *Services {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Tokens == nil {
		cfg.Tokens = lib.NewTokenIssuer("", 0)
	}
	pub := publisher{events: events}

	notifications := &NotificationService{db: db, events: pub, now: now}
	accounts := &AccountService{db: db, tokens: cfg.Tokens, now: now}
	connections := &ConnectionService{db: db, accounts: accounts, events: pub}
	people := &PeopleService{db: db, now: now}
	affirmations := &AffirmationService{
		db:            db,
		accounts:      accounts,
		connections:   connections,
		notifications: notifications,
		events:        pub,
		now:           now,
	}
	invitations := &InvitationService{
		db:            db,
		baseURL:       cfg.AppBaseURL,
		accounts:      accounts,
		connections:   connections,
		affirmations:  affirmations,
		people:        people,
		notifications: notifications,
		events:        pub,
		now:           now,
	}

	return &Services{
		Accounts:      accounts,
		Invitations:   invitations,
		Connections:   connections,
		Affirmations:  affirmations,
		People:        people,
		Notifications: notifications,
	}
}

// publisher announces events to users and only logs delivery failures.
type publisher struct {
	events realtime.Publisher
}

func (p publisher) toUsers(ctx context.Context, eventType string, payload any, userIDs ...string) {
	if p.events == nil {
		return
	}
	ev := realtime.NewEvent(eventType, payload)
	for _, id := range userIDs {
		if err := p.events.Publish(ctx, realtime.UserTopic(id), ev); err != nil {
			log.Printf("[Realtime] Error publishing %s to %s: %v", eventType, id, err)
		}
	}
}

// findOne returns the single row matching filter, or errs.ErrNotFound.
func findOne[T any](ctx context.Context, db backend.Backend, table string, filter backend.Filter) (T, error) {
	var rows []T
	var zero T
	if err := db.QueryRows(ctx, table, filter, nil, &rows); err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, fmt.Errorf("%s: %w", table, errs.ErrNotFound)
	}
	return rows[0], nil
}

// anyID matches rows whose column equals one of ids.
func anyID(column string, ids []string) backend.Filter {
	f := backend.Filter{}
	for _, id := range ids {
		f = f.Or(backend.Eq(column, id))
	}
	return f
}
