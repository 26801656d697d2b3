package domain

import "time"

// Condition is the state of an inventory item.
type Condition string

const (
	ConditionExcellent   Condition = "excellent"
	ConditionGood        Condition = "good"
	ConditionFair        Condition = "fair"
	ConditionNeedsRepair Condition = "needs_repair"
)

// Conditions lists every Condition.
func Conditions() []Condition {
	return []Condition{ConditionExcellent, ConditionGood, ConditionFair, ConditionNeedsRepair}
}

// InventoryItem is a tracked church asset. ValueCents is nil when unknown.
type InventoryItem struct {
	ID          string
	ChurchID    string
	Name        string
	Category    string
	Quantity    int
	Unit        string
	Location    string
	Condition   Condition
	ValueCents  *int64
	Notes       string
	LastChecked *time.Time
	CreatedAt   time.Time
}
