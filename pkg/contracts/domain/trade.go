package domain

import (
	"strconv"
	"time"
)

// RawTradeRecord is one tick as delivered by the upstream data vendor.
// Column names follow the vendor export. A missing numeric value is NaN.
type RawTradeRecord struct {
	XLTime     float64 `parquet:"xltime"`
	Price      float64 `parquet:"trade-price"`
	Volume     float64 `parquet:"trade-volume"`
	RawFlag    string  `parquet:"trade-rawflag,optional"`
	StringFlag string  `parquet:"trade-stringflag,optional"`
}

// TraderID is a counterparty identifier that may be absent from the flag string
type TraderID struct {
	Value int64
	Valid bool
}

// NewTraderID returns a present identifier
func NewTraderID(v int64) TraderID {
	return TraderID{Value: v, Valid: true}
}

// SameAs reports whether two identifiers denote the same party.
// Two absent identifiers are treated as the same (unattributed) party.
func (id TraderID) SameAs(other TraderID) bool {
	if !id.Valid || !other.Valid {
		return id.Valid == other.Valid
	}
	return id.Value == other.Value
}

// String returns the decimal id or "<none>"
func (id TraderID) String() string {
	if !id.Valid {
		return "<none>"
	}
	return strconv.FormatInt(id.Value, 10)
}

// CanonicalTrade is a cleaned trade with decoded time and counterparties
type CanonicalTrade struct {
	Timestamp time.Time
	Day       time.Time // Timestamp truncated to the UTC calendar date
	Price     float64
	Volume    float64
	BuyerID   TraderID
	SellerID  TraderID
}

// IsSelfTrade reports whether buyer and seller are the same party
func (t CanonicalTrade) IsSelfTrade() bool {
	return t.BuyerID.SameAs(t.SellerID)
}

// TraderFor returns the identifier of the requested side
func (t CanonicalTrade) TraderFor(side Side) TraderID {
	if side == SideSeller {
		return t.SellerID
	}
	return t.BuyerID
}

// Side selects which counterparty a statistic is computed for
type Side string

const (
	SideBuyer  Side = "buyer"
	SideSeller Side = "seller"
)

// Sides lists both sides in output order
var Sides = []Side{SideBuyer, SideSeller}

// IsValid checks if the side is known
func (s Side) IsValid() bool {
	return s == SideBuyer || s == SideSeller
}
