package models

import "time"

// TimestampLayout is how history timestamps are stored and displayed.
const TimestampLayout = "2006-01-02 15:04:05"

// HistoryRecord is one persisted classification of an uploaded image.
type HistoryRecord struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	Filename   string    `json:"filename"`    // sanitized name shown to the user
	StorageKey string    `json:"storage_key"` // object name in the upload store
	Prediction string    `json:"prediction"`
	Timestamp  time.Time `json:"timestamp"`
}

// FormattedTimestamp renders Timestamp with TimestampLayout.
func (r HistoryRecord) FormattedTimestamp() string {
	return r.Timestamp.Format(TimestampLayout)
}
