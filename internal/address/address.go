package address

import "strings"

// Address is a postal address as captured at checkout. The same shape is used
// for billing and for the optional deviating shipping address.
type Address struct {
	Name   string `json:"name" validate:"required,min=2"`
	Street string `json:"street" validate:"required,min=5"`
	Zip    string `json:"zip" validate:"required,min=4"`
	City   string `json:"city" validate:"required,min=2"`
}

// Normalize trims surrounding whitespace so length rules apply to the content.
func (a Address) Normalize() Address {
	return Address{
		Name:   strings.TrimSpace(a.Name),
		Street: strings.TrimSpace(a.Street),
		Zip:    strings.TrimSpace(a.Zip),
		City:   strings.TrimSpace(a.City),
	}
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// Lines renders the address the way it is printed on a parcel.
func (a Address) Lines() []string {
	return []string{a.Name, a.Street, strings.TrimSpace(a.Zip + " " + a.City)}
}
