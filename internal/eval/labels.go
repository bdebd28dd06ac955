// Package eval scores extraction and maintenance runs against the dataset's
// ground truth, using the taxonomy's numeric category labels.
package eval

import (
	"github.com/johanneskirmayr/CarMem/internal/domain"
	"github.com/johanneskirmayr/CarMem/internal/taxonomy"
)

// CategoryLabels converts a category path to its numeric labels
// [main, sub, detail]. Both internal keys and display labels are accepted.
func CategoryLabels(main, sub, detail string) ([3]int, error) {
	var labels [3]int
	m, err := taxonomy.Ordinal(main, taxonomy.LevelMain)
	if err != nil {
		return labels, err
	}
	s, err := taxonomy.Ordinal(sub, taxonomy.LevelSub)
	if err != nil {
		return labels, err
	}
	d, err := taxonomy.Ordinal(detail, taxonomy.LevelDetail)
	if err != nil {
		return labels, err
	}
	labels[0], labels[1], labels[2] = m, s, d
	return labels, nil
}

// PreferenceLabels converts an extracted preference's category path to its
// numeric labels.
func PreferenceLabels(p domain.Preference) ([3]int, error) {
	return CategoryLabels(p.MainCategory, p.Subcategory, p.DetailCategory)
}
