package core

import "sort"

// EvaluateLowStock is the alert evaluator: a pure function of the current
// stock rows and their material thresholds. A row is a finding when its
// material has a threshold and quantity < threshold. Findings are ordered
// most-deficient first, i.e. ascending (quantity − threshold), ties broken
// by material code ascending; callers truncate to their own top N.
func EvaluateLowStock(rows []StockDetail) []LowStockFinding {
	var findings []LowStockFinding
	for _, d := range rows {
		if d.MinStock == nil {
			continue
		}
		if d.Quantity.GreaterThanOrEqual(*d.MinStock) {
			continue
		}
		findings = append(findings, LowStockFinding{
			MaterialID:   d.MaterialID,
			MaterialCode: d.MaterialCode,
			MaterialName: d.MaterialName,
			Unit:         d.Unit,
			ProjectID:    d.ProjectID,
			ProjectName:  d.ProjectName,
			Quantity:     d.Quantity,
			Threshold:    *d.MinStock,
			Location:     d.Location,
		})
	}
	sort.SliceStable(findings, func(i, j int) bool {
		di := findings[i].Quantity.Sub(findings[i].Threshold)
		dj := findings[j].Quantity.Sub(findings[j].Threshold)
		if !di.Equal(dj) {
			return di.LessThan(dj)
		}
		return findings[i].MaterialCode < findings[j].MaterialCode
	})
	return findings
}
