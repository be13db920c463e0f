package types

// ProductRef is one (product, vendor) pair to query for.
type ProductRef struct {
	Name   string
	Vendor string
}
