package coupon

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camila-duarte/galleria/internal/domain"
)

// Rule is one entry in the discount table.
type Rule struct {
	Discount float64             `json:"discount"`
	Kind     domain.DiscountKind `json:"kind"`
}

// Result is what the storefront shows the shopper. Unknown codes get a
// generic message so the table contents are not probeable.
type Result struct {
	Valid    bool                `json:"valid"`
	Discount float64             `json:"discount,omitempty"`
	Kind     domain.DiscountKind `json:"kind,omitempty"`
	Message  string              `json:"message"`
}

// defaultRules is the shipped discount table. It is static configuration,
// not user data; there is no persistence behind it.
var defaultRules = map[string]Rule{
	"WELCOME10":  {Discount: 10, Kind: domain.DiscountPercentage},
	"GALLERY25":  {Discount: 25, Kind: domain.DiscountFixed},
	"OPENSTUDIO": {Discount: 15, Kind: domain.DiscountPercentage},
}

type Validator struct {
	rules map[string]Rule
}

// NewValidator builds a validator from the default table, optionally
// replaced by a JSON object of code -> rule supplied via configuration.
func NewValidator(tableJSON string) (*Validator, error) {
	rules := defaultRules
	if tableJSON != "" {
		parsed := map[string]Rule{}
		if err := json.Unmarshal([]byte(tableJSON), &parsed); err != nil {
			return nil, fmt.Errorf("parse coupon table: %w", err)
		}
		rules = make(map[string]Rule, len(parsed))
		for code, rule := range parsed {
			rules[normalize(code)] = rule
		}
	}
	return &Validator{rules: rules}, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (v *Validator) Validate(code string) Result {
	rule, ok := v.rules[normalize(code)]
	if !ok {
		return Result{Valid: false, Message: "Invalid coupon code"}
	}

	message := fmt.Sprintf("$%.0f off applied", rule.Discount)
	if rule.Kind == domain.DiscountPercentage {
		message = fmt.Sprintf("%.0f%% off applied", rule.Discount)
	}

	return Result{
		Valid:    true,
		Discount: rule.Discount,
		Kind:     rule.Kind,
		Message:  message,
	}
}

// Apply exists for call-site symmetry with Validate. Usage tracking is not
// implemented; codes are reusable until removed from the table.
func (v *Validator) Apply(code string) error {
	if _, ok := v.rules[normalize(code)]; !ok {
		return fmt.Errorf("unknown coupon code")
	}
	return nil
}
