package domain

// Cardinality is the storage policy of a detail category: whether several
// attribute values may be stored at the same time.
type Cardinality string

const (
	// MultiplePossible allows several preferences per detail category, as
	// long as their attributes differ.
	MultiplePossible Cardinality = "MP"
	// MultipleNotPossible allows at most one preference per detail category.
	MultipleNotPossible Cardinality = "MNP"
)

// LegalActions returns the maintenance actions the classifier may choose for
// a non-empty bucket under this policy.
func (c Cardinality) LegalActions() []ActionName {
	switch c {
	case MultiplePossible:
		return []ActionName{ActionAppend, ActionPass, ActionUpdate}
	case MultipleNotPossible:
		return []ActionName{ActionPass, ActionUpdate}
	}
	return nil
}

// Preference is the unit of storage: one extracted user preference with the
// source utterance and its embedding.
type Preference struct {
	PK             string    `json:"pk"`
	UserName       string    `json:"user_name"`
	MainCategory   string    `json:"main_category"`
	Subcategory    string    `json:"subcategory"`
	DetailCategory string    `json:"detail_category"`
	Attribute      string    `json:"attribute"`
	Text           string    `json:"text"`
	Vector         []float32 `json:"-"`
}

// BucketKey identifies the set of stored preferences that share one user and
// category path. Maintenance decisions always operate on a single bucket.
type BucketKey struct {
	UserName       string
	MainCategory   string
	Subcategory    string
	DetailCategory string
}

// Bucket returns the bucket this preference belongs to.
func (p *Preference) Bucket() BucketKey {
	return BucketKey{
		UserName:       p.UserName,
		MainCategory:   p.MainCategory,
		Subcategory:    p.Subcategory,
		DetailCategory: p.DetailCategory,
	}
}

// PreferenceWithScore is a search result with its similarity score.
type PreferenceWithScore struct {
	Preference
	Score float32 `json:"score"`
}
