package models

import (
	"fmt"
	"strings"
)

// Category is a closed problem-domain tag shared by tickets and technician
// specialties.
type Category string

const (
	CategoryHardware Category = "hardware"
	CategorySoftware Category = "software"
	CategoryNetwork  Category = "network"
	CategoryEmail    Category = "email"
	CategorySecurity Category = "security"
	CategoryAccess   Category = "access"
)

var allCategories = []Category{
	CategoryHardware,
	CategorySoftware,
	CategoryNetwork,
	CategoryEmail,
	CategorySecurity,
	CategoryAccess,
}

// relatedCategories is the static adjacency between problem domains. A
// technician whose specialty is related to the ticket category gets partial
// expertise credit.
var relatedCategories = map[Category][]Category{
	CategoryHardware: {CategoryNetwork, CategoryEmail},
	CategorySoftware: {CategoryAccess, CategorySecurity},
	CategoryNetwork:  {CategoryHardware, CategorySecurity},
	CategoryEmail:    {CategorySoftware, CategorySecurity},
	CategorySecurity: {CategoryNetwork, CategoryAccess},
	CategoryAccess:   {CategorySoftware, CategorySecurity},
}

var categoryLabels = map[Category]string{
	CategoryHardware: "Hardware",
	CategorySoftware: "Software",
	CategoryNetwork:  "Network",
	CategoryEmail:    "Email",
	CategorySecurity: "Security",
	CategoryAccess:   "Access Management",
}

func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func ParseCategory(value string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", value)
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Related returns the categories adjacent to c in the specialty table.
func (c Category) Related() []Category {
	related := relatedCategories[c]
	out := make([]Category, len(related))
	copy(out, related)
	return out
}

// IsRelated reports whether other is adjacent to c.
func (c Category) IsRelated(other Category) bool {
	for _, r := range relatedCategories[c] {
		if r == other {
			return true
		}
	}
	return false
}

// Priority is the ticket urgency level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func ParsePriority(value string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(value)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", value)
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
