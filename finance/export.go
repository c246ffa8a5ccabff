package finance

import (
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

var ErrBadReportDate = errors.New("dates must be YYYY-MM-DD or YYYY-MM")

// ParseReportDate accepts a day or a month; a month resolves to its first day, or its last
// day when it closes the range.
func ParseReportDate(s string, closing bool) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadReportDate, s)
	}
	if closing {
		return t.AddDate(0, 1, -1), nil
	}
	return t, nil
}

// Workbook renders the report as an xlsx file with one sheet per section.
func Workbook(rep *PodReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return nil, err
	}
	summary := [][]interface{}{{"Month", "Revenue", "Direct Cost", "Support Cost", "Gross Profit", "Overhead", "Net Profit"}}
	for _, m := range rep.Months {
		summary = append(summary, []interface{}{
			m.Month, m.Revenue.InexactFloat64(), m.DirectCost.InexactFloat64(), m.SupportCost.InexactFloat64(),
			m.GrossProfit.InexactFloat64(), m.Overhead.InexactFloat64(), m.NetProfit.InexactFloat64(),
		})
	}
	t := rep.Totals
	summary = append(summary, []interface{}{
		"Total", t.Revenue.InexactFloat64(), t.DirectCost.InexactFloat64(), t.SupportCost.InexactFloat64(),
		t.GrossProfit.InexactFloat64(), t.Overhead.InexactFloat64(), t.NetProfit.InexactFloat64(),
	})
	summary = append(summary, []interface{}{"Gross Margin %", t.GrossMarginPct.InexactFloat64()})
	summary = append(summary, []interface{}{"Net Margin %", t.NetMarginPct.InexactFloat64()})

	revenue := [][]interface{}{{"Month", "Project Code", "Project", "Amount"}}
	for _, r := range rep.Revenue {
		revenue = append(revenue, []interface{}{r.Month, r.ProjectCode, r.ProjectName, r.Amount.InexactFloat64()})
	}

	util := [][]interface{}{{"Name", "From", "To", "Working Hours", "Worked Hours", "Billable", "Non Billable", "Unutilized", "Utilization %", "Billability %", "Target %", "Planned %"}}
	for _, m := range rep.Members {
		util = append(util, []interface{}{
			m.Name, m.WindowStart.Format("2006-01-02"), m.WindowEnd.Format("2006-01-02"),
			m.WorkingHours.InexactFloat64(), m.WorkedHours.InexactFloat64(), m.BillableHours.InexactFloat64(),
			m.NonBillableHours.InexactFloat64(), m.UnutilizedHours.InexactFloat64(),
			m.UtilizationPct.InexactFloat64(), m.BillabilityPct.InexactFloat64(),
			m.TargetPct.InexactFloat64(), m.PlannedPct.InexactFloat64(),
		})
	}

	costs := [][]interface{}{{"Month", "Name", "Monthly Salary", "Allocation %", "Days", "Days In Month", "Cost", "Support"}}
	for _, m := range rep.Costs {
		costs = append(costs, []interface{}{
			m.Month, m.Name, m.MonthlySalary.InexactFloat64(), m.AllocationPct.InexactFloat64(),
			m.Days, m.DaysInMonth, m.Cost.InexactFloat64(), m.Support,
		})
	}

	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{"Summary", summary},
		{"Revenue", revenue},
		{"Utilization", util},
		{"Costs", costs},
	}
	for _, s := range sheets {
		if s.name != "Summary" {
			if _, err := f.NewSheet(s.name); err != nil {
				return nil, err
			}
		}
		for i, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return nil, err
			}
			row := row
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
