// Package unlock holds the model for deferred lock compensation. A Task is a
// durable timer entry: it exists while an unlock could not be confirmed and is
// deleted once the aggregate is unlocked through any path.
package unlock

import "time"

// Task represents one pending unlock compensation for a user's aggregate.
// TryNumber counts unlock attempts so far and is incremented each time a
// scheduled attempt fails and reschedules itself.
type Task struct {
	UserID    string    `json:"user_id"`
	TryNumber int       `json:"try_number"`
	DueAt     time.Time `json:"due_at"`
}

// TaskName returns the stable scheduler name for a user's unlock task. One
// task per user exists at any time; repeated failures supersede it in place.
func TaskName(userID string) string {
	return "unlock-aggregate-" + userID
}
