package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type NeedCategory string

const (
	NeedCategorySafety      NeedCategory = "SAFETY"
	NeedCategoryConnection  NeedCategory = "CONNECTION"
	NeedCategoryAutonomy    NeedCategory = "AUTONOMY"
	NeedCategoryRecognition NeedCategory = "RECOGNITION"
	NeedCategoryMeaning     NeedCategory = "MEANING"
	NeedCategoryFairness    NeedCategory = "FAIRNESS"
)

var needCategories = map[NeedCategory]struct{}{
	NeedCategorySafety:      {},
	NeedCategoryConnection:  {},
	NeedCategoryAutonomy:    {},
	NeedCategoryRecognition: {},
	NeedCategoryMeaning:     {},
	NeedCategoryFairness:    {},
}

// ParseNeedCategory normalises a category; unknown values fall back to CONNECTION.
func ParseNeedCategory(raw string) (NeedCategory, bool) {
	c := NeedCategory(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := needCategories[c]; ok {
		return c, true
	}
	return NeedCategoryConnection, false
}

// UserAssertedConfidence is the confidence recorded for needs a participant adds themselves.
const UserAssertedConfidence = 1.0

type IdentifiedNeed struct {
	Id          uuid.UUID
	VesselId    uuid.UUID
	Category    NeedCategory
	Need        string
	Evidence    []string
	Confidence  float64
	AiSuggested bool
	Confirmed   bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
