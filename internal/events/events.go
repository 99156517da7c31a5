// Package events delivers order lifecycle notifications to the realtime
// channel. Delivery is best-effort: a failed or slow subscriber never blocks
// or rolls back the transition that produced the event.
package events

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderCreated  = "ORDER_CREATED"
	TypeOrderClosed   = "ORDER_CLOSED"
	TypeOrderVoided   = "ORDER_VOIDED"
	TypeOrderAccepted = "ORDER_ACCEPTED"
	TypeOrderDeclined = "ORDER_DECLINED"
)

type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	NetTotal      decimal.Decimal `json:"net_total"`
}

type Event struct {
	// EventID is assigned at emit time so consumers can dedupe across the
	// hub and the redis mirror.
	EventID      string       `json:"event_id"`
	EventType    string       `json:"event_type"`
	OrderID      snowflake.ID `json:"order_id"`
	BranchID     snowflake.ID `json:"branch_id"`
	Status       string       `json:"status"`
	Channel      string       `json:"channel"`
	BusinessDate string       `json:"business_date"`
	Totals       Totals       `json:"totals"`
}

// Emitter fans an event out after the owning transaction commits.
type Emitter interface {
	Emit(event Event)
}
