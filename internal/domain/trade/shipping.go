package trade

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// DefaultShippingFee applies to a destination missing from the fee table
const DefaultShippingFee = 5000

// cityShippingFees is the base delivery fee per serviceable city, in FCFA.
var cityShippingFees = []struct {
	city string
	fee  int64
}{
	{"Libreville", 2000},
	{"Port-Gentil", 5000},
	{"Franceville", 7000},
	{"Oyem", 6000},
	{"Moanda", 7000},
	{"Mouila", 5000},
	{"Lambaréné", 4000},
	{"Tchibanga", 6000},
	{"Koulamoutou", 6000},
	{"Makokou", 7000},
}

var phonePattern = regexp.MustCompile(`^(\+241|00241)?[0-9]{8,9}$`)

// ServiceableCities lists the delivery destinations in table order
func ServiceableCities() []string {
	cities := make([]string, len(cityShippingFees))
	for i, c := range cityShippingFees {
		cities[i] = c.city
	}
	return cities
}

// IsServiceableCity reports whether orders can be delivered to city
func IsServiceableCity(city string) bool {
	for _, c := range cityShippingFees {
		if c.city == city {
			return true
		}
	}
	return false
}

// CityShippingFee returns the base delivery fee for city
func CityShippingFee(city string) decimal.Decimal {
	for _, c := range cityShippingFees {
		if c.city == city {
			return decimal.NewFromInt(c.fee)
		}
	}
	return decimal.NewFromInt(DefaultShippingFee)
}

// IsValidPhone checks a Gabonese mobile number, with or without country prefix
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
