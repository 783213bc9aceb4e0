package gradebook

import "github.com/mind-engage/gradetracker/internal/grading"

type Action int

const (
	ActionInsert Action = iota + 1
	ActionUpdate
	ActionSkipIntentional
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionUpdate:
		return "update"
	case ActionSkipIntentional:
		return "skip"
	}
	return "unknown"
}

// Decision is what to do with one cell, and the value to write if anything.
type Decision struct {
	Column ColumnKind
	Action Action
	Value  *float64
}

// Reconcile decides how the computed targets land in one column given the
// cell already stored there (nil when absent). A write-once column with any
// existing record, including a NULL one, is left alone.
func Reconcile(column ColumnKind, computed grading.ComputedTarget, existing *GradeRecord) Decision {
	d := Decision{Column: column, Value: ValueFor(column, computed)}
	switch {
	case existing == nil:
		d.Action = ActionInsert
	case column.WriteOnce():
		d.Action = ActionSkipIntentional
	default:
		d.Action = ActionUpdate
	}
	return d
}

// ValueFor picks the stored value for column: the level for TAG and MAG
// (nil when not applicable) and the rounded raw score for L3VA.
func ValueFor(column ColumnKind, computed grading.ComputedTarget) *float64 {
	var r grading.Result
	switch column {
	case ColumnRawScore:
		v := grading.Round(computed.Raw)
		return &v
	case ColumnTarget:
		r = computed.Target
	case ColumnMinimum:
		r = computed.Minimum
	default:
		return nil
	}
	if !r.Applicable {
		return nil
	}
	v := float64(r.Level)
	return &v
}
