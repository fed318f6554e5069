package detective

import (
	"fmt"
	"sort"
)

// Name identifies a project attribute. The set of valid names is closed;
// use ParseName to validate untrusted input.
type Name string

const (
	NameRepoURL     Name = "repo_url"
	NameHomepageURL Name = "homepage_url"
	NameName        Name = "name"
	NameDescription Name = "description"
	NameLicense     Name = "license"
)

// vocabulary lists every known attribute in presentation order.
var vocabulary = []Name{
	NameRepoURL,
	NameHomepageURL,
	NameName,
	NameDescription,
	NameLicense,
}

var vocabularyIndex = func() map[Name]int {
	idx := make(map[Name]int, len(vocabulary))
	for i, n := range vocabulary {
		idx[n] = i
	}
	return idx
}()

// Vocabulary returns the known attribute names in presentation order.
func Vocabulary() []Name {
	out := make([]Name, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// Valid reports whether n belongs to the vocabulary.
func (n Name) Valid() bool {
	_, ok := vocabularyIndex[n]
	return ok
}

func (n Name) String() string { return string(n) }

// ParseName converts s to a Name, rejecting names outside the vocabulary.
// Matching is case-sensitive.
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, s)
	}
	return n, nil
}

// sortNames orders names by vocabulary position.
func sortNames(names []Name) {
	sort.Slice(names, func(i, j int) bool {
		return vocabularyIndex[names[i]] < vocabularyIndex[names[j]]
	})
}

// Confidence ranks competing proposals for one attribute. Higher wins.
type Confidence int

const (
	MinConfidence Confidence = 0
	MaxConfidence Confidence = 5
)

// Valid reports whether c lies within [MinConfidence, MaxConfidence].
func (c Confidence) Valid() bool {
	return c >= MinConfidence && c <= MaxConfidence
}
