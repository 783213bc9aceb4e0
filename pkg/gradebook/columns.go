package gradebook

// ColumnKind identifies one of the tracker's gradebook columns.
type ColumnKind int

const (
	ColumnTarget   ColumnKind = iota // TAG
	ColumnRawScore                   // L3VA
	ColumnMinimum                    // MAG
)

// Columns lists every tracker column in gradebook display order.
var Columns = []ColumnKind{ColumnTarget, ColumnRawScore, ColumnMinimum}

// ColumnNames is Columns by name, in the same order.
func ColumnNames() []string {
	out := make([]string, len(Columns))
	for i, k := range Columns {
		out[i] = k.Name()
	}
	return out
}

func (k ColumnKind) Name() string {
	switch k {
	case ColumnTarget:
		return "TAG"
	case ColumnRawScore:
		return "L3VA"
	case ColumnMinimum:
		return "MAG"
	}
	return "unknown"
}

func (k ColumnKind) String() string { return k.Name() }

func (k ColumnKind) Info() string {
	switch k {
	case ColumnTarget:
		return "Target Achievable Grade"
	case ColumnRawScore:
		return "Level 3 Value Added"
	case ColumnMinimum:
		return "Minimum Achievable Grade"
	}
	return ""
}

// WriteOnce columns are set on first sight of a student and never revised.
func (k ColumnKind) WriteOnce() bool { return k == ColumnTarget }

func (k ColumnKind) sortOrder() int { return int(k) + 1 }

// Template is the column created when a course lacks it. TAG and MAG follow
// the course's own grading; L3VA is a locked three-decimal value.
func (k ColumnKind) Template(p CourseProfile, categoryID int64) Column {
	c := Column{
		CourseID:   p.Course.ID,
		CategoryID: categoryID,
		Name:       k.Name(),
		Info:       k.Info(),
		SortOrder:  k.sortOrder(),
		GradeType:  p.GradeType,
		ScaleID:    p.ScaleID,
		Decimals:   0,
	}
	if k == ColumnRawScore {
		c.GradeType = GradeTypeValue
		c.ScaleID = 0
		c.Locked = true
		c.Decimals = 3
	}
	return c
}
