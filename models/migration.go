package models

import (
	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Person{}, &ManagerHistory{}, &TimesheetEntry{}, &Leave{}, &Holiday{},
		&Client{}, &Project{}, &Pod{}, &PodMember{}, &ProjectMapping{}, &Allocation{},
		&Salary{}, &ProjectCost{},
		&Bill{}, &BillLineItem{}, &Expense{}, &Invoice{}, &CashReceipt{},
		&ExclusionRule{},
		&SyncLog{}, &DetailSyncJob{},
	)
}
