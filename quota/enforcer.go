// Package quota decides whether an authenticated user may consume one
// unit of upstream work and meters that consumption against the plan
// limit on their account
package quota

import (
	"errors"
	"fmt"
	"time"

	"github.com/99-kofi/Obala-Twi-API/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrKeyExpired       = errors.New("api key expired")
	ErrLimitReached     = errors.New("usage limit reached")
	ErrAlreadyCommitted = errors.New("reservation already committed")
)

type Enforcer struct {
	db *gorm.DB
}

func NewEnforcer(db *gorm.DB) *Enforcer {
	return &Enforcer{db: db}
}

// Check runs the eligibility pre-check for a single request. Expiry is
// evaluated before exhaustion, so a key that is both expired and out of
// quota reports ErrKeyExpired. The returned reservation is permission
// for exactly one unit of work, the usage counter doesn't move until
// Commit
func (e *Enforcer) Check(u *model.User) (*Reservation, error) {
	if time.Now().After(u.ExpiresAt) {
		return nil, ErrKeyExpired
	}

	if u.RequestsUsed >= u.RequestLimit {
		return nil, ErrLimitReached
	}

	return &Reservation{db: e.db, userID: u.ID}, nil
}

// Reservation is pre-approved, not yet committed permission to consume
// one usage unit. Hold it across the upstream call and commit once the
// outcome is known
type Reservation struct {
	db        *gorm.DB
	userID    string
	committed bool
}

// Commit charges the reserved unit. The increment is a single
// conditional UPDATE guarded by the limit, so two requests that both
// passed a stale pre-check can never jointly push requests_used past
// request_limit. The loser gets ErrLimitReached. Returns the user row
// as written, for the usage snapshot in the response
func (r *Reservation) Commit() (*model.User, error) {
	if r.committed {
		return nil, ErrAlreadyCommitted
	}

	var u model.User

	res := r.db.Model(&u).
		Clauses(clause.Returning{}).
		Where("id = ? AND requests_used < request_limit", r.userID).
		UpdateColumn("requests_used", gorm.Expr("requests_used + 1"))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to commit usage, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, ErrLimitReached
	}

	r.committed = true
	return &u, nil
}
