package product

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Phone patterns applied after normalization. The Benin pattern accepts an
// optional country prefix followed by exactly eight digits; the international
// pattern accepts ten or more digits with an optional leading plus.
const (
	PhonePatternBenin         = `^(\+229|00229)?[0-9]{8}$`
	PhonePatternInternational = `^\+?[0-9]{10,}$`
)

// Postal patterns. Benin departments are numbered 01 through 12.
const (
	PostalPatternBenin   = `^(0[1-9]|1[0-2])$`
	PostalPatternNumeric = `^[0-9]{4,5}$`
)

// Catalog holds the configured products keyed by code.
type Catalog struct {
	products map[Code]Product
}

// Builtin returns the default four-product catalog.
func Builtin() *Catalog {
	c := &Catalog{products: make(map[Code]Product, 4)}
	for _, p := range builtinProducts() {
		c.products[p.Code] = p
	}
	return c
}

// ByCode resolves a product configuration.
func (c *Catalog) ByCode(code Code) (Product, error) {
	if c == nil || len(c.products) == 0 {
		return Product{}, fmt.Errorf("product: catalog is empty")
	}
	p, ok := c.products[code]
	if !ok {
		return Product{}, fmt.Errorf("product: unknown product %q", code)
	}
	return p, nil
}

// Codes lists the configured product codes in stable order.
func (c *Catalog) Codes() []Code {
	if c == nil {
		return nil
	}
	codes := make([]Code, 0, len(c.products))
	for code := range c.products {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Override adjusts a subset of one product's configuration. Nil fields leave
// the builtin value untouched.
type Override struct {
	Name        *string `yaml:"name"`
	Label       *string `yaml:"label"`
	MinAmount   *int    `yaml:"minAmount"`
	MaxAmount   *int    `yaml:"maxAmount"`
	MinDuration *int    `yaml:"minDuration"`
	MaxDuration *int    `yaml:"maxDuration"`
}

// ApplyOverrides mutates the catalog with per-product overrides.
func (c *Catalog) ApplyOverrides(overrides map[Code]Override) error {
	for code, ov := range overrides {
		p, ok := c.products[code]
		if !ok {
			return fmt.Errorf("product: override for unknown product %q", code)
		}
		if ov.Name != nil {
			p.Name = *ov.Name
		}
		if ov.Label != nil {
			p.Label = *ov.Label
		}
		if ov.MinAmount != nil {
			p.MinAmount = *ov.MinAmount
		}
		if ov.MaxAmount != nil {
			p.MaxAmount = *ov.MaxAmount
		}
		if ov.MinDuration != nil {
			p.MinDuration = *ov.MinDuration
		}
		if ov.MaxDuration != nil {
			p.MaxDuration = *ov.MaxDuration
		}
		if p.MinAmount > p.MaxAmount {
			return fmt.Errorf("product: %s: minAmount %d exceeds maxAmount %d", code, p.MinAmount, p.MaxAmount)
		}
		if p.MinDuration > p.MaxDuration {
			return fmt.Errorf("product: %s: minDuration %d exceeds maxDuration %d", code, p.MinDuration, p.MaxDuration)
		}
		c.products[code] = p
	}
	return nil
}

// LoadOverridesFile reads a YAML document of per-product overrides and applies
// it to the catalog.
func (c *Catalog) LoadOverridesFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("product: read overrides: %w", err)
	}
	overrides := map[Code]Override{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return fmt.Errorf("product: parse overrides: %w", err)
	}
	return c.ApplyOverrides(overrides)
}

func builtinProducts() []Product {
	return []Product{
		{
			Code:         CodeAuto,
			Name:         "Crédit Auto",
			Label:        "Crédit Auto",
			StorageKey:   "autokreditData",
			MinAmount:    5000,
			MaxAmount:    100000,
			MinDuration:  12,
			MaxDuration:  84,
			PhonePattern: PhonePatternBenin,
			Extra: []Field{
				{
					Name:     "typeVoiture",
					Type:     FieldTypeSelect,
					Required: true,
					Label:    "Type de véhicule",
					Enum:     []string{"Neuf", "Occasion", "Electrique", "Hybride"},
					Message:  "Veuillez sélectionner le type de véhicule",
				},
				{
					Name:     "marque",
					Type:     FieldTypeString,
					Required: true,
					Label:    "Marque",
					Message:  "Veuillez entrer la marque du véhicule",
				},
				{
					Name:     "modele",
					Type:     FieldTypeString,
					Required: true,
					Label:    "Modèle",
					Message:  "Veuillez entrer le modèle du véhicule",
				},
				{
					Name:     "annee",
					Type:     FieldTypeNumber,
					Required: true,
					Label:    "Année de fabrication",
					Validations: []ValidationRule{
						{Kind: ValidationRuleMin, Params: map[string]string{"value": "1900"}},
						{Kind: ValidationRuleMaxYearNow},
					},
					Message: "Veuillez entrer une année de fabrication valide",
				},
			},
		},
		{
			Code:          CodePersonal,
			Name:          "Crédit Personnel",
			Label:         "Crédit Personnel",
			StorageKey:    "privatkreditData",
			MinAmount:     1000,
			MaxAmount:     50000,
			MinDuration:   12,
			MaxDuration:   84,
			PhonePattern:  PhonePatternBenin,
			PostalPattern: PostalPatternBenin,
			PostalMessage: "Veuillez entrer un code postal valide (01 à 12)",
		},
		{
			Code:          CodeRealEstate,
			Name:          "Crédit Immobilier",
			Label:         "Immobilienkredit",
			StorageKey:    "creditImmobilierData",
			MinAmount:     50000,
			MaxAmount:     1000000,
			MinDuration:   120,
			MaxDuration:   360,
			PhonePattern:  PhonePatternInternational,
			PostalPattern: PostalPatternNumeric,
			Extra: []Field{
				{
					Name:     "typeBien",
					Type:     FieldTypeSelect,
					Required: true,
					Label:    "Type de bien",
					Enum:     []string{"Appartement", "Maison", "Terrain", "Local commercial"},
					Message:  "Veuillez sélectionner le type de bien",
				},
				{
					Name:     "valeurBien",
					Type:     FieldTypeNumber,
					Required: true,
					Label:    "Valeur du bien",
					Validations: []ValidationRule{
						{Kind: ValidationRuleMin, Params: map[string]string{"value": "1"}},
					},
					Message: "Veuillez entrer une valeur de bien valide",
				},
				{
					Name:     "apport",
					Type:     FieldTypeNumber,
					Required: true,
					Label:    "Apport personnel",
					Validations: []ValidationRule{
						{Kind: ValidationRuleMin, Params: map[string]string{"value": "0"}},
						{Kind: ValidationRuleMaxField, Params: map[string]string{"field": "valeurBien"}},
					},
					Message: "Veuillez entrer un apport valide",
				},
			},
		},
		{
			Code:         CodeBusiness,
			Name:         "Crédit Entreprise",
			Label:        "Crédit Entreprise",
			StorageKey:   "creditEntrepriseData",
			MinAmount:    10000,
			MaxAmount:    500000,
			MinDuration:  12,
			MaxDuration:  60,
			PhonePattern: PhonePatternInternational,
			Extra: []Field{
				{
					Name:     "typeEntreprise",
					Type:     FieldTypeSelect,
					Required: true,
					Label:    "Type d'entreprise",
					Enum:     []string{"SARL", "SA", "SAS", "Entreprise individuelle", "Autre"},
					Message:  "Veuillez sélectionner le type d'entreprise",
				},
				{
					Name:     "chiffreAffaires",
					Type:     FieldTypeNumber,
					Required: true,
					Label:    "Chiffre d'affaires annuel",
					Validations: []ValidationRule{
						{Kind: ValidationRuleMin, Params: map[string]string{"value": "1"}},
					},
					Message: "Veuillez entrer un chiffre d'affaires valide",
				},
				{
					Name:     "effectif",
					Type:     FieldTypeNumber,
					Required: true,
					Label:    "Effectif",
					Validations: []ValidationRule{
						{Kind: ValidationRuleMin, Params: map[string]string{"value": "1"}},
					},
					Message: "Veuillez entrer un effectif valide",
				},
				{
					Name:     "dateCreation",
					Type:     FieldTypeDate,
					Required: true,
					Label:    "Date de création",
					Validations: []ValidationRule{
						{Kind: ValidationRulePattern, Params: map[string]string{"pattern": `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`}},
						{Kind: ValidationRulePastDate},
					},
					Message: "Veuillez entrer une date de création valide",
				},
			},
		},
	}
}
