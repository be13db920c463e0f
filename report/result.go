package report

import (
	"github.com/euvd-report/euvd-report/types"
)

const (
	QueriedProductKey = "queried_product"
	QueriedVendorKey  = "queried_vendor"
)

// ResultSet accumulates the records of one exploited pass.
type ResultSet struct {
	records []types.Record
}

// Add tags records with the product/vendor they were queried for and appends
// them. Existing queried_* fields are overwritten.
func (rs *ResultSet) Add(ref types.ProductRef, records []types.Record) {
	for i := range records {
		records[i].SetString(QueriedProductKey, ref.Name)
		records[i].SetString(QueriedVendorKey, ref.Vendor)
	}
	rs.records = append(rs.records, records...)
}

func (rs *ResultSet) Records() []types.Record {
	return rs.records
}

func (rs *ResultSet) Len() int {
	return len(rs.records)
}

func (rs *ResultSet) Empty() bool {
	return len(rs.records) == 0
}
