package schema

// ReportMetadata holds the analysis-wide facts of a scanner report.
type ReportMetadata struct {
	AnalysisDate     int64             `yaml:"analysis_date" json:"analysis_date"` // epoch millis
	ProjectKey       string            `yaml:"project_key" json:"project_key"`
	ProjectVersion   string            `yaml:"project_version" json:"project_version"`
	BuildString      string            `yaml:"build_string" json:"build_string"`
	RootComponentRef int               `yaml:"root_component_ref" json:"root_component_ref"`
	Branch           string            `yaml:"branch" json:"branch"`
	BranchType       BranchType        `yaml:"branch_type" json:"branch_type"`
	TargetBranch     string            `yaml:"target_branch" json:"target_branch"`
	PullRequestKey   string            `yaml:"pull_request_key" json:"pull_request_key"`
	CrossProjectDup  bool              `yaml:"cross_project_duplication" json:"cross_project_duplication"`
	ModulesPaths     map[string]string `yaml:"modules_project_relative_path_by_key" json:"modules_project_relative_path_by_key"`
}

// ReportComponent is one flat, ref-indexed component of a scanner report.
type ReportComponent struct {
	Ref         int           `yaml:"ref" json:"ref"`
	Type        ComponentType `yaml:"type" json:"type"`
	Key         string        `yaml:"key" json:"key"`
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description" json:"description"`
	Path        string        `yaml:"path" json:"path"`
	Language    string        `yaml:"language" json:"language"`
	IsTest      bool          `yaml:"is_test" json:"is_test"`
	Lines       int           `yaml:"lines" json:"lines"`
	Status      FileStatus    `yaml:"status" json:"status"`
	ChildRefs   []int         `yaml:"child_refs" json:"child_refs"`
}

// TextRange is a line range as written by the scanner.
type TextRange struct {
	StartLine int `yaml:"start_line" json:"start_line"`
	EndLine   int `yaml:"end_line" json:"end_line"`
}

// ReportDuplicate is one target of a scanner duplication. A zero OtherFileRef
// means the target lives in the same file.
type ReportDuplicate struct {
	OtherFileRef int       `yaml:"other_file_ref" json:"other_file_ref"`
	Range        TextRange `yaml:"range" json:"range"`
}

// ReportDuplication is an origin block and the blocks it duplicates.
type ReportDuplication struct {
	OriginPosition TextRange         `yaml:"origin_position" json:"origin_position"`
	Duplicates     []ReportDuplicate `yaml:"duplicates" json:"duplicates"`
}

// ReportCpdBlock is a hashed block used for cross-project duplication detection.
type ReportCpdBlock struct {
	Hash      string `yaml:"hash" json:"hash"`
	Content   string `yaml:"content" json:"content"`
	StartLine int    `yaml:"start_line" json:"start_line"`
	EndLine   int    `yaml:"end_line" json:"end_line"`
	StartUnit int    `yaml:"start_token_index" json:"start_token_index"`
	EndUnit   int    `yaml:"end_token_index" json:"end_token_index"`
}

// ReportCoverageLine is the coverage of a single line.
type ReportCoverageLine struct {
	Line              int   `yaml:"line" json:"line"`
	Hits              *bool `yaml:"hits" json:"hits"`
	Conditions        int   `yaml:"conditions" json:"conditions"`
	CoveredConditions int   `yaml:"covered_conditions" json:"covered_conditions"`
}

// ReportChangesetLine attributes a line to the date it was last changed.
type ReportChangesetLine struct {
	Line     int    `yaml:"line" json:"line"`
	Date     int64  `yaml:"date" json:"date"` // epoch millis
	Revision string `yaml:"revision" json:"revision"`
}

// ReportMeasure is a raw measure computed by the scanner for a component.
type ReportMeasure struct {
	MetricKey   string   `yaml:"metric" json:"metric"`
	IntValue    *int64   `yaml:"int_value" json:"int_value"`
	DoubleValue *float64 `yaml:"double_value" json:"double_value"`
	StringValue *string  `yaml:"string_value" json:"string_value"`
	BoolValue   *bool    `yaml:"bool_value" json:"bool_value"`
}
