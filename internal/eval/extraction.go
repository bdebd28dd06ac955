package eval

import (
	"sort"

	"github.com/johanneskirmayr/CarMem/internal/dataset"
	"github.com/johanneskirmayr/CarMem/internal/domain"
)

// Label ordinals folded together by the song-is-genre option.
const (
	labelFavoriteArtists = 49
	labelFavoriteSongs   = 50
)

// ExtractionScores summarizes an extraction run.
type ExtractionScores struct {
	Conversations int `json:"conversations"`
	Scored        int `json:"scored"`
	ValidAtTry1   int `json:"valid_at_try_1"`
	ValidAtTry2   int `json:"valid_at_try_2"`
	Invalid       int `json:"invalid"`

	// Per-conversation set accuracies, averaged over scored conversations:
	// a conversation counts as correct on a level when the set of predicted
	// labels equals the ground-truth label set.
	MainAccuracy   float64 `json:"main_accuracy"`
	SubAccuracy    float64 `json:"sub_accuracy"`
	DetailAccuracy float64 `json:"detail_accuracy"`
}

// ExtractionScorer accumulates per-conversation extraction results.
// With songIsGenre set, a song predicted for a ground-truth genre (and vice
// versa) counts as the same detail category, since songs are annotated with
// their genre.
type ExtractionScorer struct {
	songIsGenre bool

	conversations int
	scored        int
	validAtTry1   int
	validAtTry2   int
	invalid       int

	mainHits   int
	subHits    int
	detailHits int
}

func NewExtractionScorer(songIsGenre bool) *ExtractionScorer {
	return &ExtractionScorer{songIsGenre: songIsGenre}
}

func (s *ExtractionScorer) foldDetail(label int) int {
	if s.songIsGenre && label == labelFavoriteSongs {
		return labelFavoriteArtists
	}
	return label
}

// Add scores one conversation: the ground-truth preference against the
// extracted ones. Conversations whose extraction was irrecoverably invalid
// (validAtTry 0) are tallied but not scored.
func (s *ExtractionScorer) Add(truth dataset.GroundTruth, extracted []domain.Preference, validAtTry int) error {
	s.conversations++
	switch validAtTry {
	case 1:
		s.validAtTry1++
	case 2:
		s.validAtTry2++
	default:
		s.invalid++
		return nil
	}

	truthLabels, err := CategoryLabels(truth.MainCategory, truth.Subcategory, truth.DetailCategory)
	if err != nil {
		return err
	}

	var mains, subs, details []int
	for _, p := range extracted {
		labels, err := PreferenceLabels(p)
		if err != nil {
			return err
		}
		mains = append(mains, labels[0])
		subs = append(subs, labels[1])
		details = append(details, s.foldDetail(labels[2]))
	}

	s.scored++
	if setEqual(mains, []int{truthLabels[0]}) {
		s.mainHits++
	}
	if setEqual(subs, []int{truthLabels[1]}) {
		s.subHits++
	}
	if setEqual(details, []int{s.foldDetail(truthLabels[2])}) {
		s.detailHits++
	}
	return nil
}

func (s *ExtractionScorer) Scores() ExtractionScores {
	scores := ExtractionScores{
		Conversations: s.conversations,
		Scored:        s.scored,
		ValidAtTry1:   s.validAtTry1,
		ValidAtTry2:   s.validAtTry2,
		Invalid:       s.invalid,
	}
	if s.scored > 0 {
		scores.MainAccuracy = float64(s.mainHits) / float64(s.scored)
		scores.SubAccuracy = float64(s.subHits) / float64(s.scored)
		scores.DetailAccuracy = float64(s.detailHits) / float64(s.scored)
	}
	return scores
}

func setEqual(a, b []int) bool {
	uniq := func(in []int) []int {
		seen := map[int]bool{}
		var out []int
		for _, v := range in {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
		sort.Ints(out)
		return out
	}
	ua, ub := uniq(a), uniq(b)
	if len(ua) != len(ub) {
		return false
	}
	for i := range ua {
		if ua[i] != ub[i] {
			return false
		}
	}
	return true
}
