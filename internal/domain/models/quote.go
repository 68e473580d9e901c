// internal/domain/models/quote.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuoteRequest is a submitted, priced quote. Prices and lines never change
// after insert; only status, status_history and updated_at do.
type QuoteRequest struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Number int64              `bson:"number" json:"number"`
	Kind   string             `bson:"kind" json:"kind"`

	Customer QuoteCustomer `bson:"customer" json:"customer"`

	PlanOrServiceID   string            `bson:"plan_or_service_id" json:"planOrServiceId"`
	PlanOrServiceName string            `bson:"plan_or_service_name" json:"planOrServiceName"`
	Categories        []string          `bson:"categories,omitempty" json:"categories,omitempty"`
	SelectedOptions   map[string]string `bson:"selected_options" json:"selectedOptions"`
	Lines             []QuoteLine       `bson:"lines" json:"lines"`
	BasePrice         int64             `bson:"base_price" json:"basePrice"`
	ComputedPrice     int64             `bson:"computed_price" json:"computedPrice"`
	Currency          string            `bson:"currency" json:"currency"`
	Message           string            `bson:"message,omitempty" json:"message,omitempty"`

	Status        string         `bson:"status" json:"status"`
	StatusHistory []StatusChange `bson:"status_history" json:"statusHistory"`

	SubmittedByID *primitive.ObjectID `bson:"submitted_by_id,omitempty" json:"submittedById,omitempty"`
	CreatedAt     time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updatedAt"`
}

type QuoteCustomer struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone" json:"phone"`
	Company string `bson:"company,omitempty" json:"company,omitempty"`
}

type QuoteLine struct {
	Option string `bson:"option" json:"option"`
	Choice string `bson:"choice" json:"choice"`
	Amount int64  `bson:"amount" json:"amount"`
}

// StatusChange is one entry of a quote's status history.
type StatusChange struct {
	From   string    `bson:"from" json:"from"`
	To     string    `bson:"to" json:"to"`
	At     time.Time `bson:"at" json:"at"`
	ByID   string    `bson:"by_id,omitempty" json:"byId,omitempty"`
	ByName string    `bson:"by_name,omitempty" json:"byName,omitempty"`
	Note   string    `bson:"note,omitempty" json:"note,omitempty"`
}
