package schema

// Custom string types for type safety.
type (
	// ComponentType is the kind of a node in the component tree.
	ComponentType string

	// BranchType represents the lifecycle of the analyzed branch.
	BranchType string

	// FileStatus is the change status reported by the scanner for a file.
	FileStatus string

	// MetricType is the value type of a metric.
	MetricType string

	// PeriodMode is the strategy used to pick the new code baseline.
	PeriodMode string

	// Operator compares a measure against a condition threshold.
	Operator string

	// EvaluationStatus is the outcome of a quality gate condition.
	EvaluationStatus string

	// SnapshotStatus is the processing status of a stored analysis.
	SnapshotStatus string

	// EventCategory classifies analysis events.
	EventCategory string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for analysis history.
	DatabaseBackend string
)

// All component types supported.
const (
	ProjectType     ComponentType = "PROJECT"
	ModuleType      ComponentType = "MODULE"
	DirectoryType   ComponentType = "DIRECTORY"
	FileType        ComponentType = "FILE"
	ViewType        ComponentType = "VIEW"
	SubViewType     ComponentType = "SUBVIEW"
	ProjectViewType ComponentType = "PROJECT_VIEW"
)

// All branch types supported.
const (
	BranchBranch      BranchType = "BRANCH" // default
	LongBranch        BranchType = "LONG"
	ShortBranch       BranchType = "SHORT"
	PullRequestBranch BranchType = "PULL_REQUEST"
)

// All file statuses supported.
const (
	SameStatus        FileStatus = "SAME"
	ChangedStatus     FileStatus = "CHANGED"
	AddedStatus       FileStatus = "ADDED"
	UnavailableStatus FileStatus = "UNAVAILABLE" // default
)

// All metric value types supported.
const (
	IntMetric      MetricType = "INT"
	FloatMetric    MetricType = "FLOAT"
	PercentMetric  MetricType = "PERCENT"
	StringMetric   MetricType = "STRING"
	DataMetric     MetricType = "DATA"
	LevelMetric    MetricType = "LEVEL"
	BoolMetric     MetricType = "BOOL"
	WorkDurMetric  MetricType = "WORK_DUR"
	DistribMetric  MetricType = "DISTRIB"
	MillisecMetric MetricType = "MILLISEC"
)

// All new code period modes supported.
const (
	PreviousVersionMode  PeriodMode = "PREVIOUS_VERSION" // default
	NumberOfDaysMode     PeriodMode = "NUMBER_OF_DAYS"
	SpecificAnalysisMode PeriodMode = "SPECIFIC_ANALYSIS"
	DateMode             PeriodMode = "DATE"
	VersionMode          PeriodMode = "VERSION"
)

// All condition operators supported.
const (
	EqualsOp      Operator = "EQ"
	NotEqualsOp   Operator = "NE"
	GreaterThanOp Operator = "GT"
	LessThanOp    Operator = "LT"
)

// All evaluation statuses, from best to worst.
const (
	NoValueStatus EvaluationStatus = "NO_VALUE"
	OKStatus      EvaluationStatus = "OK"
	ErrorStatus   EvaluationStatus = "ERROR"
)

// All snapshot statuses supported.
const (
	UnprocessedSnapshot SnapshotStatus = "U"
	ProcessedSnapshot   SnapshotStatus = "P"
)

// All event categories supported.
const (
	VersionEvent EventCategory = "VERSION"
	AlertEvent   EventCategory = "Alert"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// NotProvidedVersion is the project version used when neither the report nor history has one.
const NotProvidedVersion = "not provided"

// ValidComponentTypes lists all valid component types.
var ValidComponentTypes = map[ComponentType]struct{}{
	ProjectType:     {},
	ModuleType:      {},
	DirectoryType:   {},
	FileType:        {},
	ViewType:        {},
	SubViewType:     {},
	ProjectViewType: {},
}

// ValidBranchTypes lists all valid branch types.
var ValidBranchTypes = map[BranchType]struct{}{
	BranchBranch:      {},
	LongBranch:        {},
	ShortBranch:       {},
	PullRequestBranch: {},
}

// ValidOperators lists all valid condition operators.
var ValidOperators = map[Operator]struct{}{
	EqualsOp:      {},
	NotEqualsOp:   {},
	GreaterThanOp: {},
	LessThanOp:    {},
}

// ValidPeriodModes lists all valid new code period modes.
var ValidPeriodModes = map[PeriodMode]struct{}{
	PreviousVersionMode:  {},
	NumberOfDaysMode:     {},
	SpecificAnalysisMode: {},
	DateMode:             {},
	VersionMode:          {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// reportDepth and viewsDepth order the two component hierarchies from root to leaf.
var (
	reportDepth = map[ComponentType]int{ProjectType: 0, ModuleType: 1, DirectoryType: 2, FileType: 3}
	viewsDepth  = map[ComponentType]int{ViewType: 0, SubViewType: 1, ProjectViewType: 2}
)

// IsReportType tells whether the type belongs to the PROJECT/MODULE/DIRECTORY/FILE hierarchy.
func (t ComponentType) IsReportType() bool {
	_, ok := reportDepth[t]
	return ok
}

// IsViewsType tells whether the type belongs to the VIEW/SUBVIEW/PROJECT_VIEW hierarchy.
func (t ComponentType) IsViewsType() bool {
	_, ok := viewsDepth[t]
	return ok
}

// Depth returns the distance of the type from the root of its hierarchy.
func (t ComponentType) Depth() int {
	if d, ok := reportDepth[t]; ok {
		return d
	}
	return viewsDepth[t]
}

// IsDeeperThan tells whether t sits strictly below other in the same hierarchy.
func (t ComponentType) IsDeeperThan(other ComponentType) bool {
	if t.IsReportType() != other.IsReportType() {
		return false
	}
	return t.Depth() > other.Depth()
}

// IsHigherThan tells whether t sits strictly above other in the same hierarchy.
func (t ComponentType) IsHigherThan(other ComponentType) bool {
	if t.IsReportType() != other.IsReportType() {
		return false
	}
	return t.Depth() < other.Depth()
}

// IsLeafType tells whether the type is the deepest of its hierarchy.
func (t ComponentType) IsLeafType() bool {
	return t == FileType || t == ProjectViewType
}

// IsShortLived tells whether unchanged parts of the tree are pruned for this branch type.
func (b BranchType) IsShortLived() bool {
	return b == ShortBranch || b == PullRequestBranch
}

// Rank orders evaluation statuses so that the worst one compares greatest.
func (s EvaluationStatus) Rank() int {
	switch s {
	case ErrorStatus:
		return 2
	case OKStatus:
		return 1
	default:
		return 0
	}
}

// Symbol returns the human readable form of the operator.
func (o Operator) Symbol() string {
	switch o {
	case EqualsOp:
		return "="
	case NotEqualsOp:
		return "!="
	case GreaterThanOp:
		return ">"
	case LessThanOp:
		return "<"
	default:
		return string(o)
	}
}
