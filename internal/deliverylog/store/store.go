package store

import (
	"context"
	"fmt"

	"github.com/MrJamesThe3rd/dunning/internal/config"
	"github.com/MrJamesThe3rd/dunning/internal/database"
	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
)

var (
	_ deliverylog.Membership = (*Postgres)(nil)
	_ deliverylog.Membership = (*Redis)(nil)
	_ deliverylog.Membership = (*deliverylog.FileMembership)(nil)
)

// Open returns the membership backend selected by LOG_BACKEND and a func that
// releases its connections.
func Open(ctx context.Context, cfg *config.Config) (deliverylog.Membership, func() error, error) {
	switch cfg.Membership.Backend {
	case "postgres":
		db, err := database.New(ctx, cfg.ConnectionString())
		if err != nil {
			return nil, nil, err
		}

		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}

		return NewPostgres(db), db.Close, nil

	case "redis":
		rc, err := DialRedis(ctx, cfg.Membership.RedisURL)
		if err != nil {
			return nil, nil, err
		}

		return NewRedis(rc, cfg.Membership.RedisKey), rc.Close, nil

	case "file", "":
		return deliverylog.NewFileMembership(cfg.MembershipFile()), func() error { return nil }, nil
	}

	return nil, nil, fmt.Errorf("%w: unknown log backend %q", config.ErrInvalid, cfg.Membership.Backend)
}
