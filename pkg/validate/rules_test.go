package validate_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/zofin/loanflow/pkg/product"
	"github.com/zofin/loanflow/pkg/validate"
)

func mustProduct(t *testing.T, code product.Code) product.Product {
	t.Helper()
	p, err := product.Builtin().ByCode(code)
	if err != nil {
		t.Fatalf("by code: %v", err)
	}
	return p
}

func validValues(t *testing.T, code product.Code) map[string]string {
	t.Helper()
	p := mustProduct(t, code)
	values := map[string]string{
		product.FieldName:     "Awa Dossou",
		product.FieldEmail:    "awa@example.com",
		product.FieldAddress:  "12 rue des Cocotiers",
		product.FieldCity:     "Cotonou",
		product.FieldAmount:   strconv.Itoa(p.MinAmount),
		product.FieldDuration: strconv.Itoa(p.MinDuration),
	}
	switch code {
	case product.CodeAuto:
		values[product.FieldPhone] = "+22997000001"
		values[product.FieldPostal] = "BP 1234"
		values["typeVoiture"] = "Occasion"
		values["marque"] = "Toyota"
		values["modele"] = "Corolla"
		values["annee"] = "2019"
	case product.CodePersonal:
		values[product.FieldPhone] = "97 00 00 01"
		values[product.FieldPostal] = "08"
	case product.CodeRealEstate:
		values[product.FieldPhone] = "+4915212345678"
		values[product.FieldPostal] = "10115"
		values["typeBien"] = "Maison"
		values["valeurBien"] = "250000"
		values["apport"] = "50000"
	case product.CodeBusiness:
		values[product.FieldPhone] = "+22997000001234"
		values[product.FieldPostal] = "01 BP 99"
		values["typeEntreprise"] = "SARL"
		values["chiffreAffaires"] = "1200000"
		values["effectif"] = "14"
		values["dateCreation"] = "2015-06-01"
	}
	return values
}

func TestFields_ValidForEveryProduct(t *testing.T) {
	for _, code := range product.Builtin().Codes() {
		t.Run(string(code), func(t *testing.T) {
			errs := validate.Fields(mustProduct(t, code), validValues(t, code))
			if len(errs) != 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestFields_AmountBoundsInclusive(t *testing.T) {
	for _, code := range product.Builtin().Codes() {
		p := mustProduct(t, code)
		t.Run(string(code), func(t *testing.T) {
			cases := []struct {
				amount string
				valid  bool
			}{
				{strconv.Itoa(p.MinAmount), true},
				{strconv.Itoa(p.MaxAmount), true},
				{strconv.Itoa(p.MinAmount - 1), false},
				{strconv.Itoa(p.MaxAmount + 1), false},
				{"abc", false},
				{"", false},
			}
			for _, tc := range cases {
				values := validValues(t, code)
				values[product.FieldAmount] = tc.amount
				errs := validate.Fields(p, values)
				_, flagged := errs[product.FieldAmount]
				if flagged == tc.valid {
					t.Fatalf("amount %q: flagged=%v, want valid=%v", tc.amount, flagged, tc.valid)
				}
			}
		})
	}
}

func TestFields_DurationBounds(t *testing.T) {
	p := mustProduct(t, product.CodeRealEstate)
	values := validValues(t, product.CodeRealEstate)

	values[product.FieldDuration] = "119"
	if errs := validate.Fields(p, values); errs[product.FieldDuration] == "" {
		t.Fatal("duration below min should be flagged")
	}
	values[product.FieldDuration] = "360"
	if errs := validate.Fields(p, values); errs[product.FieldDuration] != "" {
		t.Fatal("duration at max should be valid")
	}
}

func TestFields_EmailShape(t *testing.T) {
	p := mustProduct(t, product.CodePersonal)
	for _, bad := range []string{"", "nope", "a@b", "a @b.com", "a@b .com"} {
		values := validValues(t, product.CodePersonal)
		values[product.FieldEmail] = bad
		if errs := validate.Fields(p, values); errs[product.FieldEmail] == "" {
			t.Fatalf("email %q should be flagged", bad)
		}
	}
}

func TestFields_PhonePerProduct(t *testing.T) {
	cases := []struct {
		code  product.Code
		phone string
		valid bool
	}{
		{product.CodeAuto, "+22997000001", true},
		{product.CodeAuto, "0022997000001", true},
		{product.CodeAuto, "97000001", true},
		{product.CodeAuto, "97 00 00 01", true}, // spaces stripped before matching
		{product.CodeAuto, "9700000", false},    // seven digits
		{product.CodeAuto, "970000012", false},  // nine digits
		{product.CodePersonal, "97-00-00-01", true},
		{product.CodePersonal, "123", false},
		{product.CodeRealEstate, "+4915212345678", true},
		{product.CodeRealEstate, "015212345678", true},
		{product.CodeRealEstate, "123456789", false}, // nine digits, needs ten
		{product.CodeBusiness, "+22997000001234", true},
	}
	for _, tc := range cases {
		values := validValues(t, tc.code)
		values[product.FieldPhone] = tc.phone
		errs := validate.Fields(mustProduct(t, tc.code), values)
		_, flagged := errs[product.FieldPhone]
		if flagged == tc.valid {
			t.Fatalf("%s phone %q: flagged=%v, want valid=%v", tc.code, tc.phone, flagged, tc.valid)
		}
	}
}

func TestFields_PostalPerProduct(t *testing.T) {
	cases := []struct {
		code   product.Code
		postal string
		valid  bool
	}{
		{product.CodeAuto, "anything", true}, // free-form, non-empty only
		{product.CodeAuto, "  ", false},
		{product.CodePersonal, "01", true},
		{product.CodePersonal, "12", true},
		{product.CodePersonal, "13", false},
		{product.CodePersonal, "00", false},
		{product.CodeRealEstate, "10115", true},
		{product.CodeRealEstate, "1011", true},
		{product.CodeRealEstate, "101", false},
		{product.CodeRealEstate, "abcde", false},
	}
	for _, tc := range cases {
		values := validValues(t, tc.code)
		values[product.FieldPostal] = tc.postal
		errs := validate.Fields(mustProduct(t, tc.code), values)
		_, flagged := errs[product.FieldPostal]
		if flagged == tc.valid {
			t.Fatalf("%s postal %q: flagged=%v, want valid=%v", tc.code, tc.postal, flagged, tc.valid)
		}
	}
}

func TestFields_PersonalPostalMessage(t *testing.T) {
	values := validValues(t, product.CodePersonal)
	values[product.FieldPostal] = "99"
	errs := validate.Fields(mustProduct(t, product.CodePersonal), values)
	if errs[product.FieldPostal] != "Veuillez entrer un code postal valide (01 à 12)" {
		t.Fatalf("unexpected postal message: %q", errs[product.FieldPostal])
	}
}

func TestFields_AutoVehicleRules(t *testing.T) {
	p := mustProduct(t, product.CodeAuto)

	values := validValues(t, product.CodeAuto)
	values["typeVoiture"] = "Volant"
	if errs := validate.Fields(p, values); errs["typeVoiture"] == "" {
		t.Fatal("unknown vehicle type should be flagged")
	}

	values = validValues(t, product.CodeAuto)
	values["annee"] = "1899"
	if errs := validate.Fields(p, values); errs["annee"] == "" {
		t.Fatal("year below 1900 should be flagged")
	}

	values = validValues(t, product.CodeAuto)
	values["annee"] = strconv.Itoa(time.Now().Year() + 1)
	if errs := validate.Fields(p, values); errs["annee"] == "" {
		t.Fatal("future year should be flagged")
	}

	values = validValues(t, product.CodeAuto)
	values["annee"] = strconv.Itoa(time.Now().Year())
	if errs := validate.Fields(p, values); errs["annee"] != "" {
		t.Fatal("current year should be valid")
	}
}

func TestFields_DownPaymentBoundedByPropertyValue(t *testing.T) {
	p := mustProduct(t, product.CodeRealEstate)

	values := validValues(t, product.CodeRealEstate)
	values["valeurBien"] = "200000"
	values["apport"] = "200001"
	if errs := validate.Fields(p, values); errs["apport"] == "" {
		t.Fatal("down payment above property value should be flagged")
	}

	values["apport"] = "200000"
	if errs := validate.Fields(p, values); errs["apport"] != "" {
		t.Fatal("down payment equal to property value should be valid")
	}
}

func TestFields_BusinessFoundingDate(t *testing.T) {
	p := mustProduct(t, product.CodeBusiness)

	values := validValues(t, product.CodeBusiness)
	values["dateCreation"] = "01/06/2015"
	if errs := validate.Fields(p, values); errs["dateCreation"] == "" {
		t.Fatal("non-ISO date should be flagged")
	}

	values["dateCreation"] = time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	if errs := validate.Fields(p, values); errs["dateCreation"] == "" {
		t.Fatal("future founding date should be flagged")
	}
}

func TestFields_ErrorsAreIndependent(t *testing.T) {
	// A broken amount must not block unrelated fields.
	p := mustProduct(t, product.CodePersonal)
	values := validValues(t, product.CodePersonal)
	values[product.FieldAmount] = "0"
	errs := validate.Fields(p, values)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
	if errs[product.FieldAmount] == "" {
		t.Fatal("amount error missing")
	}
}
