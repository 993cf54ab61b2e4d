// Package validate implements the personal-form step guard: pure functions
// mapping the current field values to per-field error messages. An empty
// result means the step may advance.
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zofin/loanflow/pkg/product"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email reports whether the address has the basic user@host.tld shape. The
// relay re-checks it server-side with the same rule the form applies.
func Email(raw string) bool {
	return emailPattern.MatchString(raw)
}

// Fields checks every personal-form field for the given product and returns a
// field → message map for each violated rule. It never fails; callers treat a
// non-empty map as a blocked transition.
func Fields(p product.Product, values map[string]string) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(values[product.FieldName]) == "" {
		errs[product.FieldName] = "Veuillez entrer votre nom complet"
	}

	email := strings.TrimSpace(values[product.FieldEmail])
	if email == "" || !emailPattern.MatchString(email) {
		errs[product.FieldEmail] = "Veuillez entrer une adresse e-mail valide"
	}

	if msg := checkPhone(p, values[product.FieldPhone]); msg != "" {
		errs[product.FieldPhone] = msg
	}

	if strings.TrimSpace(values[product.FieldAddress]) == "" {
		errs[product.FieldAddress] = "Veuillez entrer votre adresse complète"
	}

	if msg := checkPostal(p, values[product.FieldPostal]); msg != "" {
		errs[product.FieldPostal] = msg
	}

	if strings.TrimSpace(values[product.FieldCity]) == "" {
		errs[product.FieldCity] = "Veuillez entrer votre ville"
	}

	if !numberInRange(values[product.FieldAmount], float64(p.MinAmount), float64(p.MaxAmount)) {
		errs[product.FieldAmount] = "Le montant du crédit doit être compris entre " +
			strconv.Itoa(p.MinAmount) + " et " + strconv.Itoa(p.MaxAmount)
	}

	if !numberInRange(values[product.FieldDuration], float64(p.MinDuration), float64(p.MaxDuration)) {
		errs[product.FieldDuration] = "La durée doit être comprise entre " +
			strconv.Itoa(p.MinDuration) + " et " + strconv.Itoa(p.MaxDuration) + " mois"
	}

	for _, field := range p.Extra {
		if msg := checkExtra(field, values); msg != "" {
			errs[field.Name] = msg
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// NormalizePhone strips the spaces and dashes users commonly type into phone
// numbers.
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, raw)
}

func checkPhone(p product.Product, raw string) string {
	phone := NormalizePhone(strings.TrimSpace(raw))
	if phone == "" {
		return "Veuillez entrer votre numéro de téléphone"
	}
	pattern := p.PhonePattern
	if pattern == "" {
		pattern = product.PhonePatternInternational
	}
	re, err := regexp.Compile(pattern)
	if err != nil || !re.MatchString(phone) {
		return "Veuillez entrer un numéro de téléphone valide"
	}
	return ""
}

func checkPostal(p product.Product, raw string) string {
	postal := strings.TrimSpace(raw)
	if postal == "" {
		return "Veuillez entrer votre code postal"
	}
	if p.PostalPattern == "" {
		return ""
	}
	re, err := regexp.Compile(p.PostalPattern)
	if err != nil || !re.MatchString(postal) {
		if p.PostalMessage != "" {
			return p.PostalMessage
		}
		return "Veuillez entrer un code postal valide"
	}
	return ""
}

func checkExtra(field product.Field, values map[string]string) string {
	raw := strings.TrimSpace(values[field.Name])
	if raw == "" {
		if field.Required {
			return message(field)
		}
		return ""
	}

	if field.Type == product.FieldTypeSelect && len(field.Enum) > 0 {
		if !contains(field.Enum, raw) {
			return message(field)
		}
	}

	var num float64
	var isNum bool
	if field.Type == product.FieldTypeNumber {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return message(field)
		}
		num, isNum = parsed, true
	}

	for _, rule := range field.Validations {
		switch rule.Kind {
		case product.ValidationRuleMin:
			if bound, ok := parseFloat(rule.Params["value"]); ok && isNum && num < bound {
				return message(field)
			}
		case product.ValidationRuleMax:
			if bound, ok := parseFloat(rule.Params["value"]); ok && isNum && num > bound {
				return message(field)
			}
		case product.ValidationRuleMaxYearNow:
			if isNum && num > float64(time.Now().Year()) {
				return message(field)
			}
		case product.ValidationRuleMaxField:
			other := strings.TrimSpace(values[rule.Params["field"]])
			if bound, err := strconv.ParseFloat(other, 64); err == nil && isNum && num > bound {
				return message(field)
			}
		case product.ValidationRulePattern:
			expr := rule.Params["pattern"]
			if expr == "" {
				continue
			}
			re, err := regexp.Compile(expr)
			if err != nil || !re.MatchString(raw) {
				return message(field)
			}
		case product.ValidationRulePastDate:
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil || parsed.After(time.Now()) {
				return message(field)
			}
		}
	}
	return ""
}

func message(field product.Field) string {
	if field.Message != "" {
		return field.Message
	}
	label := field.Label
	if label == "" {
		label = field.Name
	}
	return "Veuillez renseigner le champ " + label
}

func numberInRange(raw string, min, max float64) bool {
	value, ok := parseFloat(strings.TrimSpace(raw))
	return ok && value >= min && value <= max
}

func parseFloat(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	return value, err == nil
}

func contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
