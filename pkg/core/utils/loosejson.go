package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON attempts to fix common defects in JSON copied through the ops
// tooling: single quotes, unquoted keys, trailing commas, unclosed
// containers. Uses github.com/RealAlexandreAI/json-repair.
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("json repair failed: %w", err)
	}
	return repaired, nil
}

// ParseHJSON parses Human JSON (comments, unquoted keys and strings,
// optional commas) and returns standard JSON.
func ParseHJSON(hjsonData string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(hjsonData), &result); err != nil {
		return "", fmt.Errorf("hjson parse failed: %w", err)
	}
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("json marshal failed: %w", err)
	}
	return string(jsonBytes), nil
}

// DecodeLooseMap extracts a mapping from a loosely-formatted document.
// Override payloads arrive both as native nested structures and as
// string-encoded blobs that humans have edited by hand, so strict parsing
// alone is not enough. Order of attempts:
// 1. Standard JSON parse
// 2. JSON repair
// 3. Hjson parse (most lenient)
func DecodeLooseMap(input string) (map[string]any, error) {
	var out map[string]any

	// Try 1: Standard JSON
	if err := json.Unmarshal([]byte(input), &out); err == nil {
		return out, nil
	}

	// Try 2: JSON Repair
	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), &out); err == nil {
			return out, nil
		}
	}

	// Try 3: Hjson
	if normalized, err := ParseHJSON(input); err == nil {
		if err := json.Unmarshal([]byte(normalized), &out); err == nil {
			return out, nil
		}
	}

	return nil, fmt.Errorf("all parsing strategies failed for input")
}
