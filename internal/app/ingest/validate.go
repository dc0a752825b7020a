package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoppulse/order-ingest-api/internal/domain"
)

const (
	maxCustomerNameLen = 255
	maxStatusLen       = 50
	// Money columns are NUMERIC(10,2): at most 10 digits, 2 of them decimals.
	maxMoneyIntDigits = 8
)

// FieldErrors maps field paths (e.g. "items[2].product_id") to short
// human-readable problems.
type FieldErrors map[string]string

// ValidateRecord checks one raw record against the ingest schema and
// normalizes it into a domain order. On failure the returned FieldErrors is
// non-empty and the order must be discarded. The caller stamps tenant,
// creation time and a generated id afterwards; validation never touches them.
func ValidateRecord(raw json.RawMessage) (domain.Order, FieldErrors) {
	var in RecordInput
	if err := json.Unmarshal(raw, &in); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) && te.Field != "" {
			return domain.Order{}, FieldErrors{te.Field: "is of the wrong type"}
		}
		return domain.Order{}, FieldErrors{"record": "must be a JSON object matching the order schema"}
	}

	errs := FieldErrors{}
	var o domain.Order

	if in.OrderID != "" {
		id, err := uuid.Parse(in.OrderID)
		if err != nil {
			errs["order_id"] = "must be a valid UUID"
		} else {
			o.ID = domain.OrderID(id.String())
		}
	}

	name := domain.NormalizeCustomerName(in.CustomerName)
	switch {
	case name == "":
		errs["customer_name"] = "is required"
	case len(name) > maxCustomerNameLen:
		errs["customer_name"] = fmt.Sprintf("must be at most %d characters", maxCustomerNameLen)
	default:
		o.CustomerName = name
	}

	if email := strings.TrimSpace(in.CustomerEmail); email != "" {
		if err := validateEmail(email); err != nil {
			errs["customer_email"] = err.Error()
		} else {
			o.CustomerEmail = &email
		}
	}

	if amount, msg := parseMoney(in.TotalAmount); msg != "" {
		errs["total_amount"] = msg
	} else {
		o.TotalAmount = amount
	}

	switch {
	case in.Status == "":
		errs["status"] = "is required"
	case len(in.Status) > maxStatusLen || !domain.IsValidOrderStatus(in.Status):
		errs["status"] = "must be one of: " + strings.Join(domain.OrderStatuses(), ", ")
	default:
		o.Status = in.Status
	}

	if in.Items == nil {
		errs["items"] = "is required"
	}
	for i, item := range in.Items {
		prefix := fmt.Sprintf("items[%d].", i)

		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			errs[prefix+"product_id"] = "must be a valid UUID"
		}

		if item.Quantity == nil {
			errs[prefix+"quantity"] = "is required"
		} else if *item.Quantity < 1 {
			errs[prefix+"quantity"] = "must be at least 1"
		}

		price, msg := parseMoney(item.Price)
		if msg != "" {
			errs[prefix+"price"] = msg
		}

		if len(errs) == 0 {
			o.Items = append(o.Items, domain.OrderItem{
				ProductID: domain.ProductID(pid.String()),
				Quantity:  *item.Quantity,
				Price:     price,
			})
		}
	}

	if len(errs) > 0 {
		return domain.Order{}, errs
	}
	return o, nil
}

// parseMoney parses a decimal amount with at most 2 decimal places and 10
// digits total. The empty string means the field was absent.
func parseMoney(a Amount) (decimal.Decimal, string) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return decimal.Decimal{}, "is required"
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, "must be a valid decimal number"
	}
	if d.Exponent() < -2 {
		return decimal.Decimal{}, "must have at most 2 decimal places"
	}
	if d.Abs().GreaterThanOrEqual(decimal.New(1, maxMoneyIntDigits)) {
		return decimal.Decimal{}, "must have at most 10 digits"
	}
	return d, ""
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("must be a valid email address")
	}
	// Reject "Name <email@x>" forms; only bare addresses are accepted.
	if addr.Address != email {
		return fmt.Errorf("must be a bare email address")
	}
	return nil
}
