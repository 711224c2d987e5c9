package transform

import (
	"sort"
	"strconv"
	"strings"
)

// Candidate is one possible record-set location found while walking a document.
// Candidates are ephemeral; they exist only inside a DiscoveryResult.
type Candidate struct {
	Path             string  `json:"path"`
	ArrayLength      int     `json:"arrayLength"`
	ObjectFieldCount int     `json:"objectFieldCount"`
	Score            float64 `json:"score"`

	depth int
	order int
}

// DiscoveryResult reports where the record set most likely lives.
type DiscoveryResult struct {
	RecordPath string      `json:"recordPath"`
	Score      float64     `json:"score"`
	Candidates []Candidate `json:"candidates"`
}

// Well-known collection field names. A candidate whose own field name is on
// this list gets a fixed bonus regardless of goal text.
var collectionWords = map[string]bool{
	"items":    true,
	"results":  true,
	"data":     true,
	"records":  true,
	"rows":     true,
	"entries":  true,
	"list":     true,
	"forecast": true,
	"products": true,
}

// Scoring weights. Kept as named constants so ScoreCandidate stays a plain
// arithmetic function over them.
const (
	scoreObjectArrayBase    = 10.0
	scorePrimitiveArrayBase = 1.0
	scoreRootArrayBonus     = 5.0
	scoreCollectionWord     = 8.0
	scoreGoalNameMatch      = 15.0
	scoreGoalAncestorMatch  = 10.0
	scorePerField           = 0.5
	scoreFieldCap           = 5.0
	scorePerObjectElement   = 0.2
	scorePerPrimitiveElem   = 0.05
	scoreLengthCap          = 50
)

// Discover walks the document looking for the best candidate array of records.
// goalText, when non-empty, boosts candidates whose field name (or an ancestor
// field name) appears as a token in the goal, so the same document can resolve
// to different paths depending on phrasing.
func Discover(doc Value, goalText string) (DiscoveryResult, error) {
	goalTokens := tokenize(goalText)

	var found []Candidate
	var walk func(v Value, path string, fieldName string, ancestors []string, depth int)
	walk = func(v Value, path string, fieldName string, ancestors []string, depth int) {
		switch node := v.(type) {
		case []Value:
			c := Candidate{
				Path:        path,
				ArrayLength: len(node),
				depth:       depth,
				order:       len(found),
			}
			c.ObjectFieldCount = elementFieldCount(node)
			c.Score = ScoreCandidate(c, fieldName, ancestors, goalTokens)
			found = append(found, c)

			next := ancestors
			if fieldName != "" {
				next = append(append([]string(nil), ancestors...), fieldName)
			}
			for i, elem := range node {
				// Element paths only matter for nested arrays; objects inside the
				// chosen array are rows, not further candidates.
				if _, isArr := elem.([]Value); isArr {
					walk(elem, path+"/"+strconv.Itoa(i), "", next, depth+1)
				}
				if obj, isObj := elem.(*Row); isObj {
					for _, k := range obj.Keys() {
						child, _ := obj.Get(k)
						if _, isArr := child.([]Value); isArr {
							walk(child, path+"/"+strconv.Itoa(i)+"/"+escapePointerToken(k), k, next, depth+2)
						}
					}
				}
			}
		case *Row:
			next := ancestors
			if fieldName != "" {
				next = append(append([]string(nil), ancestors...), fieldName)
			}
			for _, k := range node.Keys() {
				child, _ := node.Get(k)
				walk(child, path+"/"+escapePointerToken(k), k, next, depth+1)
			}
		}
	}
	walk(doc, "", "", nil, 0)

	// Failure needs both: no array of objects anywhere and no root array.
	_, rootIsArray := doc.([]Value)
	if len(found) == 0 || (!hasObjectArray(found) && !rootIsArray) {
		return DiscoveryResult{}, ErrNoRecordset
	}

	ranked := append([]Candidate(nil), found...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].depth != ranked[j].depth {
			return ranked[i].depth < ranked[j].depth
		}
		return ranked[i].order < ranked[j].order
	})

	best := ranked[0]
	return DiscoveryResult{
		RecordPath: best.Path,
		Score:      best.Score,
		Candidates: ranked,
	}, nil
}

// ScoreCandidate is the pure ranking function for discovery. It depends only
// on its arguments, never on walk state, so it is unit-testable in isolation.
func ScoreCandidate(c Candidate, fieldName string, ancestors []string, goalTokens map[string]bool) float64 {
	var score float64

	if c.ObjectFieldCount > 0 {
		score += scoreObjectArrayBase
		fieldBonus := float64(c.ObjectFieldCount) * scorePerField
		if fieldBonus > scoreFieldCap {
			fieldBonus = scoreFieldCap
		}
		score += fieldBonus
		score += float64(minInt(c.ArrayLength, scoreLengthCap)) * scorePerObjectElement
	} else {
		score += scorePrimitiveArrayBase
		score += float64(minInt(c.ArrayLength, scoreLengthCap)) * scorePerPrimitiveElem
	}

	if c.Path == "" {
		score += scoreRootArrayBonus
	}

	lower := strings.ToLower(fieldName)
	if collectionWords[lower] {
		score += scoreCollectionWord
	}

	if len(goalTokens) > 0 {
		if lower != "" && goalTokens[lower] {
			score += scoreGoalNameMatch
		} else {
			for _, anc := range ancestors {
				if goalTokens[strings.ToLower(anc)] {
					score += scoreGoalAncestorMatch
					break
				}
			}
		}
	}

	return score
}

// elementFieldCount returns the field count of the first object element, or 0
// when elements are primitives.
func elementFieldCount(arr []Value) int {
	for _, elem := range arr {
		if obj, ok := elem.(*Row); ok {
			return obj.Len()
		}
	}
	return 0
}

func hasObjectArray(cands []Candidate) bool {
	for _, c := range cands {
		if c.ObjectFieldCount > 0 {
			return true
		}
	}
	return false
}

// tokenize lowercases and splits on non-alphanumeric runes.
func tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range splitTokens(s) {
		out[tok] = true
	}
	return out
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		case r >= 0x80: // keep non-ASCII letters together (multilingual goals)
			return false
		default:
			return true
		}
	})
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

