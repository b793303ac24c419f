package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Aggregate is the single stored record holding a user's current balance and
// lock flag. It is created lazily on the first lock attempt for an unseen user
// and never deleted. All mutations go through conditional store writes; the
// Locked flag is the distributed mutex for the commit protocol.
type Aggregate struct {
	UserID    string          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Locked    bool            `json:"locked"`
	UpdatedAt time.Time       `json:"updated_at"`
}
