// Package domain contains core concepts of the chat client.
// This file defines Message and related rules.
// Messages are immutable and identified by a store-assigned sequence.
package domain

import (
	"time"
)

// Message represents one immutable chat utterance.
//
// ID is assigned by the store, strictly increasing, and defines a total
// order consistent with creation time. It is never generated client-side.
type Message struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}
