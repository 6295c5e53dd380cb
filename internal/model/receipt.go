package model

import "time"

// Receipt is one extraction result: the vendor-level facts plus the ordered
// line items found on the image. Receipts are append-only history.
type Receipt struct {
	Date      time.Time  `json:"date" bson:"date"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	ID        string     `json:"id" bson:"_id"`
	UserID    string     `json:"userId" bson:"userId"`
	Vendor    string     `json:"vendor" bson:"vendor"`
	ImageURL  string     `json:"imageUrl" bson:"imageUrl"`
	LineItems []LineItem `json:"lineItems" bson:"lineItems"`
	Total     float64    `json:"total" bson:"total"`
}

// Attachment is a stored document a chat turn may reference for context.
type Attachment struct {
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	Name      string    `json:"name" bson:"name"`
	Text      string    `json:"text" bson:"text"`
}
