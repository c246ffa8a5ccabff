package models

import "time"

type ExclusionRule struct {
	ID         int            `gorm:"primary_key" json:"id"`
	EntityType RuleEntityType `gorm:"size:20;not null" json:"entity_type" binding:"required,oneof=bill expense all"`
	Field      string         `gorm:"size:100;not null" json:"field" binding:"required"`
	Operator   RuleOperator   `gorm:"size:20;not null" json:"operator" binding:"required"`
	Value      string         `gorm:"size:255;not null" json:"value"`
	Reason     string         `gorm:"size:255" json:"reason"`
	Enabled    bool           `gorm:"not null;default:true" json:"enabled"`
	Priority   int            `gorm:"not null;default:0" json:"priority"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// AppliesTo reports whether the rule targets the given entity type.
func (r *ExclusionRule) AppliesTo(t RuleEntityType) bool {
	return r.EntityType == RuleEntityAll || r.EntityType == t
}
