// Package fix encodes the core's order values as FIX 4.4 tag=value messages
// for the blotter and message viewer. It is a formatter, not a session layer:
// no sequence numbers, no transport.
package fix

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	BeginString  = "FIX.4.4"
	SenderCompID = "MAREXFX"
	TargetCompID = "VENUE"

	// SOH is the FIX field delimiter.
	SOH = "\x01"
)

// TagNames covers the FIX 4.4 subset used by the terminal.
var TagNames = map[int]string{
	8:   "BeginString",
	9:   "BodyLength",
	10:  "CheckSum",
	11:  "ClOrdID",
	14:  "CumQty",
	15:  "Currency",
	17:  "ExecID",
	20:  "ExecTransType",
	21:  "HandlInst",
	35:  "MsgType",
	37:  "OrderID",
	38:  "OrderQty",
	39:  "OrdStatus",
	40:  "OrdType",
	44:  "Price",
	49:  "SenderCompID",
	52:  "SendingTime",
	54:  "Side",
	55:  "Symbol",
	56:  "TargetCompID",
	59:  "TimeInForce",
	60:  "TransactTime",
	150: "ExecType",
	151: "LeavesQty",
	167: "SecurityType",
}

var msgTypeNames = map[string]string{
	"D": "NewOrderSingle",
	"8": "ExecutionReport",
	"F": "OrderCancelRequest",
	"G": "OrderCancelReplaceRequest",
	"9": "OrderCancelReject",
}

var sideCodes = map[string]string{
	"Buy":  "1",
	"Sell": "2",
}

var ordTypeCodes = map[string]string{
	"LIMIT": "2",
	"STOP":  "3",
	"TWAP":  "D",
	"VWAP":  "V",
}

var tifCodes = map[string]string{
	"GTC": "1",
	"IOC": "3",
	"FOK": "4",
	"GTD": "6",
	"DAY": "0",
}

var statusCodes = map[string]string{
	"Working":         "0",
	"PartiallyFilled": "1",
	"Filled":          "2",
	"Cancelled":       "4",
	"Rejected":        "8",
	"Suspended":       "9",
}

// Order carries the plain order values this package encodes; it is the
// boundary contract with the execution and algo layers.
type Order struct {
	ID           string
	Pair         string // "EUR/USD"
	Side         string // "Buy" | "Sell"
	Type         string // "LIMIT" | "STOP" | "TWAP" | "VWAP"
	Amount       int64
	Price        float64
	Currency     string
	TimeInForce  string // "GTC" | "IOC" | "FOK" | "GTD" | "DAY"
	Status       string // "Working" | "Filled" | ...
	FilledAmount int64
}

// Field is one decoded tag=value pair.
type Field struct {
	Tag   int
	Name  string
	Value string
}

// Message is an encoded FIX message plus its decoded field view.
type Message struct {
	Raw         string
	Fields      []Field
	MsgType     string
	MsgTypeName string
	Time        time.Time
}

type tagValue struct {
	tag   int
	value string
}

// NewOrderSingle encodes a 35=D message for the order.
func NewOrderSingle(order Order, now time.Time) Message {
	ts := fixTime(now)
	body := []tagValue{
		{35, "D"},
		{49, SenderCompID},
		{56, TargetCompID},
		{52, ts},
		{11, order.ID},
		{55, strings.ReplaceAll(order.Pair, "/", "")},
		{54, code(sideCodes, order.Side, "1")},
		{40, code(ordTypeCodes, order.Type, "2")},
		{38, decimal.NewFromInt(order.Amount).String()},
		{44, decimal.NewFromFloat(order.Price).String()},
		{15, order.Currency},
		{59, code(tifCodes, order.TimeInForce, "1")},
		{21, "1"}, // AutomatedExecution
		{60, ts},
		{167, "FOR"},
	}
	return build("D", body, now)
}

// ExecutionReport encodes a 35=8 message for the order's current state.
func ExecutionReport(order Order, now time.Time) Message {
	ts := fixTime(now)
	status := code(statusCodes, order.Status, "0")
	body := []tagValue{
		{35, "8"},
		{49, TargetCompID},
		{56, SenderCompID},
		{52, ts},
		{37, "ORD-" + strings.ToUpper(fmt.Sprintf("%x", now.UnixMilli()))},
		{11, order.ID},
		{17, "EXEC-" + strings.ToUpper(fmt.Sprintf("%x", now.UnixMilli()))},
		{55, strings.ReplaceAll(order.Pair, "/", "")},
		{54, code(sideCodes, order.Side, "1")},
		{38, decimal.NewFromInt(order.Amount).String()},
		{44, decimal.NewFromFloat(order.Price).String()},
		{15, order.Currency},
		{39, status},
		{150, status},
		{14, decimal.NewFromInt(order.FilledAmount).String()},
		{151, decimal.NewFromInt(order.Amount - order.FilledAmount).String()},
		{60, ts},
	}
	return build("8", body, now)
}

// ForOrder encodes the NewOrderSingle / ExecutionReport pair for an order.
func ForOrder(order Order, now time.Time) []Message {
	return []Message{NewOrderSingle(order, now), ExecutionReport(order, now)}
}

// build assembles header, body length, and trailer. BodyLength counts the
// bytes between tag 9 and tag 10; CheckSum is the byte sum mod 256 over
// everything before tag 10, rendered as three digits.
func build(msgType string, body []tagValue, now time.Time) Message {
	var b strings.Builder
	for _, tv := range body {
		fmt.Fprintf(&b, "%d=%s%s", tv.tag, tv.value, SOH)
	}
	encodedBody := b.String()

	header := fmt.Sprintf("8=%s%s9=%d%s", BeginString, SOH, len(encodedBody), SOH)
	raw := header + encodedBody
	raw += fmt.Sprintf("10=%03d%s", checksum(raw), SOH)

	fields := make([]Field, 0, len(body)+3)
	fields = append(fields,
		Field{Tag: 8, Name: TagNames[8], Value: BeginString},
		Field{Tag: 9, Name: TagNames[9], Value: fmt.Sprintf("%d", len(encodedBody))},
	)
	for _, tv := range body {
		fields = append(fields, Field{Tag: tv.tag, Name: tagName(tv.tag), Value: tv.value})
	}
	fields = append(fields, Field{Tag: 10, Name: TagNames[10], Value: fmt.Sprintf("%03d", checksum(header+encodedBody))})

	return Message{
		Raw:         raw,
		Fields:      fields,
		MsgType:     msgType,
		MsgTypeName: msgTypeNames[msgType],
		Time:        now,
	}
}

func checksum(s string) int {
	sum := 0
	for i := 0; i < len(s); i++ {
		sum += int(s[i])
	}
	return sum % 256
}

func fixTime(t time.Time) string {
	return t.UTC().Format("20060102-15:04:05.000")
}

func tagName(tag int) string {
	if name, ok := TagNames[tag]; ok {
		return name
	}
	return fmt.Sprintf("Tag%d", tag)
}

func code(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}
