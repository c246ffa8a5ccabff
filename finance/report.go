package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

type PodReport struct {
	PodID     int                 `json:"pod_id"`
	PodName   string              `json:"pod_name"`
	StartDate time.Time           `json:"start_date"`
	EndDate   time.Time           `json:"end_date"`
	Months    []MonthSummary      `json:"months"`
	Revenue   []ProjectRevenue    `json:"revenue"`
	Members   []MemberUtilization `json:"members"`
	Costs     []MemberCost        `json:"costs"`
	Totals    Totals              `json:"totals"`
}

type MonthSummary struct {
	Month       string          `json:"month"`
	Revenue     decimal.Decimal `json:"revenue"`
	DirectCost  decimal.Decimal `json:"direct_cost"`
	SupportCost decimal.Decimal `json:"support_cost"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	Overhead    decimal.Decimal `json:"overhead"`
	NetProfit   decimal.Decimal `json:"net_profit"`
}

type ProjectRevenue struct {
	Month       string          `json:"month"`
	ProjectID   int             `json:"project_id"`
	ProjectCode string          `json:"project_code"`
	ProjectName string          `json:"project_name"`
	Amount      decimal.Decimal `json:"amount"`
}

type MemberUtilization struct {
	PersonID         int             `json:"person_id"`
	Name             string          `json:"name"`
	WindowStart      time.Time       `json:"window_start"`
	WindowEnd        time.Time       `json:"window_end"`
	WorkingHours     decimal.Decimal `json:"working_hours"`
	WorkedHours      decimal.Decimal `json:"worked_hours"`
	BillableHours    decimal.Decimal `json:"billable_hours"`
	NonBillableHours decimal.Decimal `json:"non_billable_hours"`
	UnutilizedHours  decimal.Decimal `json:"unutilized_hours"`
	UtilizationPct   decimal.Decimal `json:"utilization_pct"`
	BillabilityPct   decimal.Decimal `json:"billability_pct"`
	TargetPct        decimal.Decimal `json:"target_pct"`
	PlannedPct       decimal.Decimal `json:"planned_pct"`
}

type MemberCost struct {
	Month         string          `json:"month"`
	PersonID      int             `json:"person_id"`
	Name          string          `json:"name"`
	MonthlySalary decimal.Decimal `json:"monthly_salary"`
	AllocationPct decimal.Decimal `json:"allocation_pct"`
	Days          int             `json:"days"`
	DaysInMonth   int             `json:"days_in_month"`
	Cost          decimal.Decimal `json:"cost"`
	Support       bool            `json:"support"`
}

type Totals struct {
	Revenue        decimal.Decimal `json:"revenue"`
	DirectCost     decimal.Decimal `json:"direct_cost"`
	SupportCost    decimal.Decimal `json:"support_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	GrossProfit    decimal.Decimal `json:"gross_profit"`
	Overhead       decimal.Decimal `json:"overhead"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	GrossMarginPct decimal.Decimal `json:"gross_margin_pct"`
	NetMarginPct   decimal.Decimal `json:"net_margin_pct"`
}

func r2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Rounded returns a copy with every amount rounded to 2 places for presentation.
// Computation always happens on the unrounded report.
func (r PodReport) Rounded() PodReport {
	out := r
	out.Months = make([]MonthSummary, len(r.Months))
	for i, m := range r.Months {
		m.Revenue, m.DirectCost, m.SupportCost = r2(m.Revenue), r2(m.DirectCost), r2(m.SupportCost)
		m.GrossProfit, m.Overhead, m.NetProfit = r2(m.GrossProfit), r2(m.Overhead), r2(m.NetProfit)
		out.Months[i] = m
	}
	out.Revenue = make([]ProjectRevenue, len(r.Revenue))
	for i, p := range r.Revenue {
		p.Amount = r2(p.Amount)
		out.Revenue[i] = p
	}
	out.Members = make([]MemberUtilization, len(r.Members))
	for i, m := range r.Members {
		m.WorkingHours, m.WorkedHours = r2(m.WorkingHours), r2(m.WorkedHours)
		m.BillableHours, m.NonBillableHours = r2(m.BillableHours), r2(m.NonBillableHours)
		m.UnutilizedHours = r2(m.UnutilizedHours)
		m.UtilizationPct, m.BillabilityPct = r2(m.UtilizationPct), r2(m.BillabilityPct)
		m.TargetPct, m.PlannedPct = r2(m.TargetPct), r2(m.PlannedPct)
		out.Members[i] = m
	}
	out.Costs = make([]MemberCost, len(r.Costs))
	for i, c := range r.Costs {
		c.MonthlySalary, c.AllocationPct, c.Cost = r2(c.MonthlySalary), r2(c.AllocationPct), r2(c.Cost)
		out.Costs[i] = c
	}
	t := r.Totals
	out.Totals = Totals{
		Revenue:        r2(t.Revenue),
		DirectCost:     r2(t.DirectCost),
		SupportCost:    r2(t.SupportCost),
		TotalCost:      r2(t.TotalCost),
		GrossProfit:    r2(t.GrossProfit),
		Overhead:       r2(t.Overhead),
		NetProfit:      r2(t.NetProfit),
		GrossMarginPct: r2(t.GrossMarginPct),
		NetMarginPct:   r2(t.NetMarginPct),
	}
	return out
}
