package search

// Options controls how a search term is matched and which files are visited.
type Options struct {
	CaseSensitive   bool     `json:"case_sensitive" mapstructure:"case_sensitive"`
	WholeWord       bool     `json:"whole_word" mapstructure:"whole_word"`
	UseRegex        bool     `json:"use_regex" mapstructure:"use_regex"`
	ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns"`
	IncludeIgnored  bool     `json:"include_ignored" mapstructure:"include_ignored"`
	// IncludeGlobs restricts the search to files whose project-relative path
	// matches one of the globs. Empty searches every file.
	IncludeGlobs []string `json:"include_globs,omitempty" mapstructure:"include_globs"`
}

// Match is one occurrence of the term within a line.
type Match struct {
	LineNumber  int    `json:"line_number"`  // 1-based
	LineContent string `json:"line_content"` // full text of the line
	MatchIndex  int    `json:"match_index"`  // 0-based character offset
}

// FileMatch groups the matches of one file in line order.
type FileMatch struct {
	FilePath string  `json:"file_path"` // project-relative, forward slashes
	Matches  []Match `json:"matches"`
}

// Results is the complete outcome of one search call.
type Results struct {
	Matches       []FileMatch `json:"matches"`
	FilesSearched int         `json:"files_searched"`
	TotalMatches  int         `json:"total_matches"`
}
