package types

import "time"

// JobProfile represents the position candidates are screened against
type JobProfile struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	RequiredSkills  []string `json:"requiredSkills"`
	PreferredSkills []string `json:"preferredSkills"`
	Education       []string `json:"education"`
	ExperienceLevel string   `json:"experienceLevel"`
	Industry        string   `json:"industry"`
	Location        string   `json:"location"`
}

// ParsedJobData is a JobProfile enriched with fields recovered from a
// free-text job posting
type ParsedJobData struct {
	JobProfile
	Responsibilities []string `json:"responsibilities"`
	Requirements     []string `json:"requirements"`
	Benefits         []string `json:"benefits"`
}

// CVRecord represents one uploaded CV after text extraction
type CVRecord struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	ExtractedText string    `json:"extractedText"`
	FileSize      int64     `json:"fileSize"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// SkillMatch represents one job skill checked against a CV
type SkillMatch struct {
	Skill      string `json:"skill"`
	Confidence int    `json:"confidence"`
	Found      bool   `json:"found"`
	Context    string `json:"context,omitempty"`
}

// CandidateScore represents the screening outcome for a single candidate.
// Exactly one is produced per requested CV id, failures included.
type CandidateScore struct {
	ID              string       `json:"id"`
	Filename        string       `json:"filename"`
	OverallScore    int          `json:"overallScore"`
	SkillMatches    []SkillMatch `json:"skillMatches"`
	ExperienceScore int          `json:"experienceScore"`
	EducationScore  int          `json:"educationScore"`
	Reasoning       string       `json:"reasoning"`
	Strengths       []string     `json:"strengths"`
	Weaknesses      []string     `json:"weaknesses"`
	Recommendations []string     `json:"recommendations"`
}

// AnalysisResult represents the outcome of screening a batch of candidates.
// Candidates keep request order; AverageScore is the rounded mean of the
// strictly positive overall scores.
type AnalysisResult struct {
	JobProfile      JobProfile       `json:"jobProfile"`
	Candidates      []CandidateScore `json:"candidates"`
	AnalysisDate    time.Time        `json:"analysisDate"`
	TotalCandidates int              `json:"totalCandidates"`
	AverageScore    int              `json:"averageScore"`
}

// ScreenCandidateInput represents the input for scoring one CV against a job
type ScreenCandidateInput struct {
	JobProfile    JobProfile `json:"jobProfile"`
	CVText        string     `json:"cvText"`
	CandidateName string     `json:"candidateName"`
}

// ParseJobInput represents the input for structuring a free-text job posting
type ParseJobInput struct {
	JobText  string `json:"jobText"`
	Language string `json:"language"`
}
