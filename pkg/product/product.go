package product

// Code identifies one of the credit products offered by the brokerage.
type Code string

const (
	CodeAuto       Code = "auto"
	CodePersonal   Code = "personal"
	CodeRealEstate Code = "realestate"
	CodeBusiness   Code = "business"
)

// FieldType is the simplified enum for wizard field kinds.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeNumber FieldType = "number"
	FieldTypeSelect FieldType = "select"
	FieldTypeDate   FieldType = "date"
)

const (
	ValidationRuleMin     = "min"
	ValidationRuleMax     = "max"
	ValidationRulePattern = "pattern"
	// ValidationRuleMaxField bounds a numeric field by the value of another
	// field, e.g. a down payment that may not exceed the property value.
	// Params["field"] names the bounding field.
	ValidationRuleMaxField = "maxField"
	// ValidationRuleMaxYearNow bounds a numeric field by the current calendar
	// year (vehicle construction year).
	ValidationRuleMaxYearNow = "maxYearNow"
	// ValidationRulePastDate requires an ISO date that is not in the future.
	ValidationRulePastDate = "pastDate"
)

// ValidationRule represents a single validation constraint applied to a field.
// Numeric bounds encode their threshold in Params["value"] while pattern rules
// preserve the expression in Params["pattern"].
type ValidationRule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Field models one product-specific input collected on the personal-form step.
type Field struct {
	Name        string           `json:"name" yaml:"name"`
	Type        FieldType        `json:"type" yaml:"type"`
	Required    bool             `json:"required" yaml:"required"`
	Label       string           `json:"label,omitempty" yaml:"label,omitempty"`
	Enum        []string         `json:"enum,omitempty" yaml:"enum,omitempty"`
	Validations []ValidationRule `json:"validations,omitempty" yaml:"validations,omitempty"`
	Message     string           `json:"message,omitempty" yaml:"message,omitempty"`
}

// Product carries the full configuration of one wizard instantiation: the
// submission label, the persistence key, the numeric bounds, and the extra
// field schema layered onto the shared personal form.
type Product struct {
	Code  Code   `json:"code" yaml:"code"`
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`

	// StorageKey is the fixed persistence key for in-progress sessions. Keys
	// are distinct per product so concurrent wizards do not interfere.
	StorageKey string `json:"storageKey" yaml:"storageKey"`

	MinAmount   int `json:"minAmount" yaml:"minAmount"`
	MaxAmount   int `json:"maxAmount" yaml:"maxAmount"`
	MinDuration int `json:"minDuration" yaml:"minDuration"`
	MaxDuration int `json:"maxDuration" yaml:"maxDuration"`

	// PhonePattern validates the applicant phone number after normalization
	// (spaces and dashes stripped).
	PhonePattern string `json:"phonePattern" yaml:"phonePattern"`

	// PostalPattern validates the postal code. Empty means any non-blank
	// value is accepted.
	PostalPattern string `json:"postalPattern,omitempty" yaml:"postalPattern,omitempty"`

	// PostalMessage overrides the generic postal-code error message.
	PostalMessage string `json:"postalMessage,omitempty" yaml:"postalMessage,omitempty"`

	// Extra lists the product-specific fields appended to the personal form.
	Extra []Field `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// ExtraField returns the named product-specific field, if configured.
func (p Product) ExtraField(name string) (Field, bool) {
	for _, field := range p.Extra {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// FieldNames returns the full ordered list of field names the product submits:
// the shared personal fields followed by the product extras.
func (p Product) FieldNames() []string {
	names := make([]string, 0, len(sharedFieldNames)+len(p.Extra))
	names = append(names, sharedFieldNames...)
	for _, field := range p.Extra {
		names = append(names, field.Name)
	}
	return names
}

// Shared field names, matching the wire names consumed by the mail relay.
const (
	FieldName     = "nom"
	FieldEmail    = "email"
	FieldPhone    = "telephone"
	FieldAddress  = "adresse"
	FieldPostal   = "codePostal"
	FieldCity     = "ville"
	FieldAmount   = "montant"
	FieldDuration = "duree"
)

var sharedFieldNames = []string{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldAddress,
	FieldPostal,
	FieldCity,
	FieldAmount,
	FieldDuration,
}

// SharedFieldNames returns the personal-form field names common to every
// product, in submission order.
func SharedFieldNames() []string {
	return append([]string(nil), sharedFieldNames...)
}

var sharedFieldLabels = map[string]string{
	FieldName:     "Nom complet",
	FieldEmail:    "Adresse email",
	FieldPhone:    "Téléphone",
	FieldAddress:  "Adresse",
	FieldPostal:   "Code postal",
	FieldCity:     "Ville",
	FieldAmount:   "Montant souhaité",
	FieldDuration: "Durée (mois)",
}

// FieldLabel returns the display label for a shared field, or the wire name
// itself when none is configured.
func FieldLabel(name string) string {
	if label, ok := sharedFieldLabels[name]; ok {
		return label
	}
	return name
}
