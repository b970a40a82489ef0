package checkout

import "github.com/shopspring/decimal"

type Address struct {
	Line       string `json:"address_line"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Draft is the checkout summary a user confirms. It is a value: the With*
// methods return a modified copy and never touch the receiver.
type Draft struct {
	Lines    []Line
	Subtotal decimal.Decimal
	Postage  decimal.Decimal
	Total    decimal.Decimal
	Address  Address
}

func (d Draft) WithAddressLine(v string) Draft {
	d.Address.Line = v
	return d
}

func (d Draft) WithCity(v string) Draft {
	d.Address.City = v
	return d
}

func (d Draft) WithPostalCode(v string) Draft {
	d.Address.PostalCode = v
	return d
}

func (d Draft) WithCountry(v string) Draft {
	d.Address.Country = v
	return d
}

func (d Draft) WithAddress(a Address) Draft {
	d.Address = a
	return d
}

// Purchasable returns the lines that will be bought on confirmation.
func (d Draft) Purchasable() []Line {
	var lines []Line
	for _, l := range d.Lines {
		if l.InStock() {
			lines = append(lines, l)
		}
	}
	return lines
}

func (d Draft) clone() Draft {
	lines := make([]Line, len(d.Lines))
	copy(lines, d.Lines)
	d.Lines = lines
	return d
}
