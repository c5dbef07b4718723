package ai

import (
	"encoding/json"
	"strings"

	cvlensErrors "cvlens/internal/errors"
	"cvlens/internal/types"
)

// Model replies are not guaranteed to be bare JSON; vendors wrap the object
// in prose, markdown fences, or citations. The tolerant parser pulls the
// first-'{'-to-last-'}' span out of the reply, decodes it, and defaults
// every expected field independently so one malformed key never discards an
// otherwise usable analysis.

const defaultReasoning = "No reasoning provided"

// experienceLevels is the accepted enumeration; anything else becomes "mid"
var experienceLevels = map[string]bool{
	"entry":  true,
	"mid":    true,
	"senior": true,
	"lead":   true,
}

// decodeReply extracts a JSON object from a free-form model reply. The
// brace span is tried first, then the whole text. A failure of both is a
// parse error.
func decodeReply(raw string) (map[string]any, error) {
	var fields map[string]any

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err == nil {
			return fields, nil
		}
	}

	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, cvlensErrors.NewParseError(cvlensErrors.ErrCodeAIResponseInvalid,
			"AI reply contains no decodable JSON object", err)
	}
	return fields, nil
}

// ParseCandidateScore turns a raw model reply into scoring fields. Missing
// or wrong-shaped fields get safe defaults; only an undecodable reply is an
// error.
func ParseCandidateScore(raw string) (types.CandidateScore, error) {
	fields, err := decodeReply(raw)
	if err != nil {
		return types.CandidateScore{}, err
	}

	return types.CandidateScore{
		OverallScore:    scoreField(fields, "overallScore"),
		SkillMatches:    skillMatchesField(fields, "skillMatches"),
		ExperienceScore: scoreField(fields, "experienceScore"),
		EducationScore:  scoreField(fields, "educationScore"),
		Reasoning:       stringField(fields, "reasoning", defaultReasoning),
		Strengths:       stringListField(fields, "strengths"),
		Weaknesses:      stringListField(fields, "weaknesses"),
		Recommendations: stringListField(fields, "recommendations"),
	}, nil
}

// ParseJobData turns a raw model reply into structured job data. The
// original posting text backs the description when the model omits one.
func ParseJobData(raw, jobText string) (types.ParsedJobData, error) {
	fields, err := decodeReply(raw)
	if err != nil {
		return types.ParsedJobData{}, err
	}

	experienceLevel := stringField(fields, "experienceLevel", "mid")
	if !experienceLevels[experienceLevel] {
		experienceLevel = "mid"
	}

	return types.ParsedJobData{
		JobProfile: types.JobProfile{
			Title:           stringField(fields, "title", "Sin título"),
			Description:     stringField(fields, "description", jobText),
			RequiredSkills:  stringListField(fields, "requiredSkills"),
			PreferredSkills: stringListField(fields, "preferredSkills"),
			Education:       stringListField(fields, "education"),
			ExperienceLevel: experienceLevel,
			Industry:        stringField(fields, "industry", ""),
			Location:        stringField(fields, "location", ""),
		},
		Responsibilities: stringListField(fields, "responsibilities"),
		Requirements:     stringListField(fields, "requirements"),
		Benefits:         stringListField(fields, "benefits"),
	}, nil
}

// scoreField reads a 0-100 integer, clamping out-of-range values
func scoreField(fields map[string]any, key string) int {
	value, ok := fields[key].(float64)
	if !ok {
		return 0
	}
	score := int(value + 0.5)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func stringField(fields map[string]any, key, fallback string) string {
	value, ok := fields[key].(string)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func stringListField(fields map[string]any, key string) []string {
	raw, ok := fields[key].([]any)
	if !ok {
		return []string{}
	}
	list := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			list = append(list, s)
		}
	}
	return list
}

func skillMatchesField(fields map[string]any, key string) []types.SkillMatch {
	raw, ok := fields[key].([]any)
	if !ok {
		return []types.SkillMatch{}
	}

	matches := make([]types.SkillMatch, 0, len(raw))
	for _, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		found, _ := obj["found"].(bool)
		matches = append(matches, types.SkillMatch{
			Skill:      stringField(obj, "skill", ""),
			Confidence: scoreField(obj, "confidence"),
			Found:      found,
			Context:    stringField(obj, "context", ""),
		})
	}
	return matches
}
