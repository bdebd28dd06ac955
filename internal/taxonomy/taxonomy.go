// Package taxonomy holds the closed preference category tree used by both
// extraction and maintenance: four main categories, eleven subcategories and
// forty-one detail categories, each detail category carrying its cardinality
// policy and the closed set of example attribute values.
//
// The tree is defined once, in one table. Display labels, internal keys and
// numeric evaluation labels are all derived from it.
package taxonomy

import (
	"fmt"

	"github.com/johanneskirmayr/CarMem/internal/domain"
)

// Category levels accepted by Ordinal and InternalKey.
const (
	LevelMain   = "main_category"
	LevelSub    = "subcategory"
	LevelDetail = "detail_category"
)

// Ordinals outside the tree proper.
const (
	OrdinalNoMainCategory = 4
	OrdinalOther          = 56
)

// MainCategory is a top-level branch of the taxonomy.
type MainCategory struct {
	Key     string
	Label   string
	Title   string
	Ordinal int
}

// Subcategory is a mid-level branch; every subcategory belongs to exactly one
// main category.
type Subcategory struct {
	Key     string
	Label   string
	MainKey string
	Ordinal int
}

// DetailCategory is a leaf of the taxonomy.
type DetailCategory struct {
	Key     string
	Label   string
	SubKey  string
	Ordinal int
	Policy  domain.Cardinality
	// Topic is the human-readable topic string used in schema field
	// descriptions.
	Topic string
	// Note is appended verbatim to the generated description, for the few
	// detail categories that need extra disambiguation in the prompt.
	Note string
	// Examples is the closed set of known attribute values, shown to the
	// extractor as schema examples.
	Examples []string
}

var mains = []MainCategory{
	{Key: "points_of_interest", Label: "Points of Interest", Title: "Preferences Points of Interest", Ordinal: 0},
	{Key: "navigation_and_routing", Label: "Navigation and Routing", Title: "Preferences Navigation and Routing", Ordinal: 1},
	{Key: "vehicle_settings_and_comfort", Label: "Vehicle Settings and Comfort", Title: "Preferences Vehicle Settings and Comfort", Ordinal: 2},
	{Key: "entertainment_and_media", Label: "Entertainment and Media", Title: "Preferences Entertainment and Media", Ordinal: 3},
}

var subs = []Subcategory{
	{Key: "restaurant", Label: "Restaurant", MainKey: "points_of_interest", Ordinal: 4},
	{Key: "gas_station", Label: "Gas Station", MainKey: "points_of_interest", Ordinal: 5},
	{Key: "charging_station", Label: "Charging Station(in public)", MainKey: "points_of_interest", Ordinal: 6},
	{Key: "grocery_shopping", Label: "Grocery Shopping", MainKey: "points_of_interest", Ordinal: 7},
	{Key: "routing", Label: "Routing", MainKey: "navigation_and_routing", Ordinal: 8},
	{Key: "traffic_and_conditions", Label: "Traffic and Conditions", MainKey: "navigation_and_routing", Ordinal: 9},
	{Key: "parking", Label: "Parking", MainKey: "navigation_and_routing", Ordinal: 10},
	{Key: "climate_control", Label: "Climate Control", MainKey: "vehicle_settings_and_comfort", Ordinal: 11},
	{Key: "lighting_and_ambience", Label: "Lighting and Ambience", MainKey: "vehicle_settings_and_comfort", Ordinal: 12},
	{Key: "music", Label: "Music", MainKey: "entertainment_and_media", Ordinal: 13},
	{Key: "radio_and_podcast", Label: "Radio and Podcasts", MainKey: "entertainment_and_media", Ordinal: 14},
}

var details = []DetailCategory{
	// Restaurant
	{Key: "favourite_cuisine", Label: "Favorite Cuisine", SubKey: "restaurant", Ordinal: 15, Policy: domain.MultiplePossible,
		Topic:    "Favourite Cuisine",
		Examples: []string{"Italian", "Chinese", "Mexican", "Indian", "American"}},
	{Key: "preferred_restaurant_type", Label: "Preferred Restaurant Type", SubKey: "restaurant", Ordinal: 16, Policy: domain.MultiplePossible,
		Topic:    "Preferred Restaurant Type",
		Examples: []string{"Fast food", "Casual dining", "Fine dining", "Buffet"}},
	{Key: "fast_food_preference", Label: "Fast Food Preference", SubKey: "restaurant", Ordinal: 17, Policy: domain.MultiplePossible,
		Topic:    "Fast Food Preference",
		Examples: []string{"BiteBox Burgers", "GrillGusto", "SnackSprint", "ZippyZest", "WrapRapid"}},
	{Key: "desired_price_range", Label: "Desired Price Range", SubKey: "restaurant", Ordinal: 18, Policy: domain.MultipleNotPossible,
		Topic:    "Desired Price Range",
		Examples: []string{"cheap", "normal", "expensive"}},
	{Key: "dietary_preference", Label: "Dietary Preferences", SubKey: "restaurant", Ordinal: 19, Policy: domain.MultiplePossible,
		Topic:    "Dietary Preferences",
		Examples: []string{"Vegetarian", "Vegan", "Gluten-Free", "Dairy-Free", "Halal", "Kosher", "Nut Allergies", "Seafood Allergies"}},
	{Key: "preferred_payment_method", Label: "Preferred Payment method", SubKey: "restaurant", Ordinal: 20, Policy: domain.MultipleNotPossible,
		Topic:    "Preferred Payment method",
		Examples: []string{"Cash", "Card"}},

	// Gas Station
	{Key: "preferred_gas_station", Label: "Preferred Gas Station", SubKey: "gas_station", Ordinal: 21, Policy: domain.MultiplePossible,
		Topic:    "Preferred Gas Stations",
		Examples: []string{"PetroLux", "FuelNexa", "GasGlo", "ZephyrFuel", "AeroPump"}},
	{Key: "willingness_to_pay_extra_for_green_fuel", Label: "Willingness to Pay Extra for Green Fuel", SubKey: "gas_station", Ordinal: 22, Policy: domain.MultipleNotPossible,
		Topic:    "Willingness to Pay Extra for Green Fuel",
		Examples: []string{"Yes", "No"}},
	{Key: "price_sensitivity_for_fuel", Label: "Price Sensitivity for Fuel", SubKey: "gas_station", Ordinal: 23, Policy: domain.MultipleNotPossible,
		Topic:    "Price Sensitivity for Fuel",
		Examples: []string{"Always cheapest", "Rather cheapest", "Price is irrelevant"}},

	// Charging Station
	{Key: "preferred_charging_network", Label: "Preferred Charging Network", SubKey: "charging_station", Ordinal: 24, Policy: domain.MultiplePossible,
		Topic:    "Preferred Charging Network",
		Examples: []string{"ChargeSwift", "EcoPulse Energy", "VoltRise Charging", "AmpFlow Solutions", "ZapGrid Power"}},
	{Key: "preferred_type_of_charging_while_traveling", Label: "Preferred type of Charging while traveling", SubKey: "charging_station", Ordinal: 25, Policy: domain.MultipleNotPossible,
		Topic:    "Preferred type of Charging while traveling",
		Examples: []string{"AC", "DC", "HPC"}},
	{Key: "preferred_type_of_charging_at_everyday_points", Label: "Preferred type of Charging when being at everyday points (f.e. work, grocery, restaurant)", SubKey: "charging_station", Ordinal: 26, Policy: domain.MultipleNotPossible,
		Topic:    "Preferred type of Charging when being at everyday points (f.e. work, grocery, restaurant)",
		Examples: []string{"AC", "DC", "HPC"}},
	{Key: "charging_station_onsite_amenities", Label: "Charging Station Amenities", SubKey: "charging_station", Ordinal: 27, Policy: domain.MultiplePossible,
		Topic:    "Charging Station Amenities: On-site amenities (Restaurant/cafes)",
		Examples: []string{"On-site amenities (Restaurant/cafes)", "Wi-Fi availability", "Seating area", "Restroom facilities"}},

	// Grocery Shopping
	{Key: "preferred_supermarket_chain", Label: "Preferred Supermarket Chains", SubKey: "grocery_shopping", Ordinal: 28, Policy: domain.MultiplePossible,
		Topic:    "Preferred Supermarket Chains",
		Examples: []string{"MarketMingle", "FreshFare Hub", "GreenGroove Stores", "BasketBounty Markets", "PantryPulse Retail"}},
	{Key: "preference_for_local_markets_farms_or_supermarket", Label: "Preference for Local Markets/Farms or Supermarket", SubKey: "grocery_shopping", Ordinal: 29, Policy: domain.MultipleNotPossible,
		Topic:    "Preference for Local Markets/Farms or Supermarket",
		Examples: []string{"Local Markets/Farms", "Supermarket"}},

	// Routing
	{Key: "avoidance_of_specific_road_types", Label: "Avoidance of Specific Road Types", SubKey: "routing", Ordinal: 30, Policy: domain.MultiplePossible,
		Topic:    "Avoidance of Specific Road Types",
		Examples: []string{"Highways", "Toll roads", "Unpaved roads"}},
	{Key: "priority_for_shortest_time_or_shortest_distance", Label: "Priority for Shortest Time or Shortest Distance", SubKey: "routing", Ordinal: 31, Policy: domain.MultipleNotPossible,
		Topic:    "Priority for Shortest Time or Shortest Distance",
		Examples: []string{"Shortest Time", "Shortest Distance"}},
	{Key: "tolerance_for_traffic", Label: "Tolerance for Traffic", SubKey: "routing", Ordinal: 32, Policy: domain.MultipleNotPossible,
		Topic:    "Tolerance for Traffic",
		Note:     " Only tolerance, not if he would take a longer route.",
		Examples: []string{"Low", "Medium", "High"}},

	// Traffic and Conditions
	{Key: "traffic_information_source_preferences", Label: "Traffic Information Source Preferences", SubKey: "traffic_and_conditions", Ordinal: 33, Policy: domain.MultiplePossible,
		Topic:    "Traffic Information Source Preferences",
		Note:     " This is where the user gets traffic information from.",
		Examples: []string{"In-car system", "NavFlow Updates", "RouteWatch Alerts", "TrafficTrendz Insights"}},
	{Key: "willingness_to_take_longer_route_to_avoid_traffic", Label: "Willingness to Take Longer Route to Avoid Traffic", SubKey: "traffic_and_conditions", Ordinal: 34, Policy: domain.MultipleNotPossible,
		Topic:    "Willingness to Take Longer Route to Avoid Traffic",
		Note:     " Only fill here, if traffic is explicitely mentioned, not general tolerance.",
		Examples: []string{"Yes", "No"}},

	// Parking
	{Key: "preferred_parking_type", Label: "Preferred Parking Type", SubKey: "parking", Ordinal: 35, Policy: domain.MultipleNotPossible,
		Topic:    "Preferred Parking Type",
		Examples: []string{"On-street", "Off-street", "Parking-house"}},
	{Key: "price_sensitivity_for_paid_parking", Label: "Price Sensitivity for Paid Parking", SubKey: "parking", Ordinal: 36, Policy: domain.MultipleNotPossible,
		Topic:    "Price Sensitivity for Paid Parking",
		Examples: []string{"Always considers price first", "Sometimes considers price", "Never considers price"}},
	{Key: "distance_willing_to_walk_from_parking_to_destination", Label: "Distance Willing to Walk from Parking to Destination", SubKey: "parking", Ordinal: 37, Policy: domain.MultipleNotPossible,
		Topic:    "Distance Willing to Walk from Parking to Destination",
		Examples: []string{"less than 5 min", "less than 10 min", "not relevant"}},
	{Key: "preference_for_covered_parking", Label: "Preference for Covered Parking", SubKey: "parking", Ordinal: 38, Policy: domain.MultipleNotPossible,
		Topic:    "Preference for Covered Parking",
		Examples: []string{"Yes", "Indifferent to Covered Parking"}},
	{Key: "need_for_handicapped_accessible_parking", Label: "Need for Handicapped Accessible Parking", SubKey: "parking", Ordinal: 39, Policy: domain.MultipleNotPossible,
		Topic:    "Need for Handicapped Accessible Parking",
		Examples: []string{"Yes"}},
	{Key: "preference_for_parking_with_security", Label: "Preference for Parking with Security", SubKey: "parking", Ordinal: 40, Policy: domain.MultipleNotPossible,
		Topic:    "Preference for Parking with Security",
		Examples: []string{"Yes", "Indifferent to Parking Security"}},

	// Climate Control
	{Key: "preferred_temperature", Label: "Preferred Temperature", SubKey: "climate_control", Ordinal: 41, Policy: domain.MultipleNotPossible,
		Topic:    "Preferred Temperature",
		Examples: []string{"18", "19", "20", "21", "22", "23", "24", "25"}},
	{Key: "fan_speed_preferences", Label: "Fan Speed Preferences", SubKey: "climate_control", Ordinal: 42, Policy: domain.MultipleNotPossible,
		Topic:    "Fan Speed Preferences",
		Examples: []string{"Low", "Medium", "High"}},
	{Key: "airflow_direction_preferences", Label: "Airflow Direction Preferences", SubKey: "climate_control", Ordinal: 43, Policy: domain.MultipleNotPossible,
		Topic:    "Airflow Direction Preferences",
		Examples: []string{"Face", "Feet", "Centric", "Combined"}},
	{Key: "seat_heating_preferences", Label: "Seat Heating Preferences", SubKey: "climate_control", Ordinal: 44, Policy: domain.MultipleNotPossible,
		Topic:    "Seat Heating Preferences",
		Examples: []string{"Low", "Medium", "High"}},

	// Lighting and Ambience
	{Key: "interior_lighting_brightness_preferences", Label: "Interior Lighting Brightness Preferences", SubKey: "lighting_and_ambience", Ordinal: 45, Policy: domain.MultipleNotPossible,
		Topic:    "Interior Lighting Brightness Preferences",
		Examples: []string{"Low", "Medium", "High"}},
	{Key: "interior_lighting_ambient_preferences", Label: "Interior Lighting Ambient Preferences", SubKey: "lighting_and_ambience", Ordinal: 46, Policy: domain.MultipleNotPossible,
		Topic:    "Interior Lighting Ambient Preferences",
		Examples: []string{"Warm", "Cool"}},
	{Key: "interior_lighting_color_preferences", Label: "Interior Lightning Color Preferences", SubKey: "lighting_and_ambience", Ordinal: 47, Policy: domain.MultiplePossible,
		Topic:    "Interior Lightning Color Preferences",
		Examples: []string{"Red", "Blue", "Green", "Yellow", "White", "Pink"}},

	// Music
	{Key: "favorite_genres", Label: "Favorite Genres", SubKey: "music", Ordinal: 48, Policy: domain.MultiplePossible,
		Topic:    "Favorite Genres",
		Examples: []string{"Pop", "Rock", "Jazz", "Classical", "Country", "Rap"}},
	{Key: "favorite_artists_or_bands", Label: "Favorite Artists/Bands", SubKey: "music", Ordinal: 49, Policy: domain.MultiplePossible,
		Topic: "Favorite Artists or Bands",
		Examples: []string{
			"Max Jettison (Pop)", "Melody Raven (Pop)", "Melvin Dunes (Jazz)",
			"Ludwig van Beatgroove (Classical)", "Wolfgang Amadeus Harmonix (Classical)",
			"Taylor Winds (Country/Pop)", "Ed Sherwood (Pop/Folk)", "TwoPacks (Rap)"}},
	{Key: "favorite_songs", Label: "Favorite Songs", SubKey: "music", Ordinal: 50, Policy: domain.MultiplePossible,
		Topic: "Favorite Songs",
		Examples: []string{
			"Envision by Jon Lemon (Rock)", "Dreamer's Canvas by Lenny Visionary (Folk)",
			"Jenny's Dance by Max Rythmo (Disco)", "Clasp My Soul by The Harmonic Five (Soul)",
			"Echoes of the Heart by Adeena (R&B)", "Asphalt Anthems by Gritty Lyricist (Rap)",
			"Cosmic Verses by Nebula Rhymes (Hip-Hop/Rap)"}},
	{Key: "preferred_music_streaming_service", Label: "Preferred Music Streaming Service", SubKey: "music", Ordinal: 51, Policy: domain.MultiplePossible,
		Topic:    "Preferred Music Streaming Service",
		Examples: []string{"SonicStream", "MelodyMingle", "TuneTorrent", "HarmonyHive", "RhythmRipple"}},

	// Radio and Podcasts
	{Key: "preferred_radio_station", Label: "Preferred Radio Station", SubKey: "radio_and_podcast", Ordinal: 52, Policy: domain.MultiplePossible,
		Topic:    "Preferred Radio Station",
		Examples: []string{"EchoWave FM", "RhythmRise Radio", "SonicSphere 101.5", "VibeVault 88.3", "HarmonyHaven 94.7"}},
	{Key: "favorite_podcast_genres", Label: "Favorite Podcast Genres", SubKey: "radio_and_podcast", Ordinal: 53, Policy: domain.MultiplePossible,
		Topic:    "Favorite Podcast Genres",
		Examples: []string{"News", "Technology", "Entertainment", "Health", "Science"}},
	{Key: "favorite_podcast_shows", Label: "Favorite Podcast Shows", SubKey: "radio_and_podcast", Ordinal: 54, Policy: domain.MultiplePossible,
		Topic:    "Favorite Podcast Shows",
		Examples: []string{"GlobalGlimpse News", "ComedyCraze", "ScienceSync", "FantasyFrontier", "WellnessWave"}},
	{Key: "general_news_source", Label: "General News Source", SubKey: "radio_and_podcast", Ordinal: 55, Policy: domain.MultiplePossible,
		Topic:    "General News Source",
		Examples: []string{"NewsNexus", "WorldPulse", "CurrentConnect", "ReportRealm", "InfoInsight"}},
}

var (
	mainByKey   = map[string]*MainCategory{}
	subByKey    = map[string]*Subcategory{}
	detailByKey = map[string]*DetailCategory{}

	// Ordinal lookups accept both the internal key and the display label.
	mainOrdinals   = map[string]int{}
	subOrdinals    = map[string]int{}
	detailOrdinals = map[string]int{}

	// Display label to internal key.
	mainKeys   = map[string]string{}
	subKeys    = map[string]string{}
	detailKeys = map[string]string{}

	subsOfMain    = map[string][]*Subcategory{}
	detailsOfSub  = map[string][]*DetailCategory{}
)

func init() {
	for i := range mains {
		m := &mains[i]
		mainByKey[m.Key] = m
		mainOrdinals[m.Key] = m.Ordinal
		mainOrdinals[m.Label] = m.Ordinal
		mainKeys[m.Label] = m.Key
		mainKeys[m.Key] = m.Key
	}
	mainOrdinals["No Main Category"] = OrdinalNoMainCategory

	for i := range subs {
		s := &subs[i]
		if _, ok := mainByKey[s.MainKey]; !ok {
			panic(fmt.Sprintf("taxonomy: subcategory %q references unknown main category %q", s.Key, s.MainKey))
		}
		subByKey[s.Key] = s
		subOrdinals[s.Key] = s.Ordinal
		subOrdinals[s.Label] = s.Ordinal
		subKeys[s.Label] = s.Key
		subKeys[s.Key] = s.Key
		subsOfMain[s.MainKey] = append(subsOfMain[s.MainKey], s)
	}

	for i := range details {
		d := &details[i]
		if _, ok := subByKey[d.SubKey]; !ok {
			panic(fmt.Sprintf("taxonomy: detail category %q references unknown subcategory %q", d.Key, d.SubKey))
		}
		detailByKey[d.Key] = d
		detailOrdinals[d.Key] = d.Ordinal
		detailOrdinals[d.Label] = d.Ordinal
		detailKeys[d.Label] = d.Key
		detailKeys[d.Key] = d.Key
		detailsOfSub[d.SubKey] = append(detailsOfSub[d.SubKey], d)
	}
	detailOrdinals["other"] = OrdinalOther
}

// Mains returns the main categories in schema order.
func Mains() []MainCategory { return mains }

// SubsOf returns the subcategories of a main category in schema order.
func SubsOf(mainKey string) []*Subcategory { return subsOfMain[mainKey] }

// DetailsOf returns the detail categories of a subcategory in schema order.
func DetailsOf(subKey string) []*DetailCategory { return detailsOfSub[subKey] }

// Main looks up a main category by internal key.
func Main(key string) (*MainCategory, error) {
	m, ok := mainByKey[key]
	if !ok {
		return nil, fmt.Errorf("unknown main category: %q", key)
	}
	return m, nil
}

// Sub looks up a subcategory by internal key.
func Sub(key string) (*Subcategory, error) {
	s, ok := subByKey[key]
	if !ok {
		return nil, fmt.Errorf("unknown subcategory: %q", key)
	}
	return s, nil
}

// Detail looks up a detail category by internal key or display label.
func Detail(name string) (*DetailCategory, error) {
	if key, ok := detailKeys[name]; ok {
		return detailByKey[key], nil
	}
	return nil, fmt.Errorf("unknown detail category: %q", name)
}

// CardinalityOf returns the cardinality policy of a detail category. An
// unknown detail category is a configuration bug between the taxonomy and its
// callers, so callers treat the error as fatal.
func CardinalityOf(detail string) (domain.Cardinality, error) {
	d, err := Detail(detail)
	if err != nil {
		return "", err
	}
	return d.Policy, nil
}

// Ordinal maps a category string at the given level to its numeric
// evaluation label. Both internal keys and display labels are accepted.
func Ordinal(value, level string) (int, error) {
	var table map[string]int
	switch level {
	case LevelMain:
		table = mainOrdinals
	case LevelSub:
		table = subOrdinals
	case LevelDetail:
		table = detailOrdinals
	default:
		return 0, fmt.Errorf("unknown category level: %q", level)
	}
	ordinal, ok := table[value]
	if !ok {
		return 0, fmt.Errorf("no label mapping for %s %q", level, value)
	}
	return ordinal, nil
}

// InternalKey maps a display label (or key) at the given level to the
// internal key used in schemas and storage.
func InternalKey(value, level string) (string, error) {
	var table map[string]string
	switch level {
	case LevelMain:
		table = mainKeys
	case LevelSub:
		table = subKeys
	case LevelDetail:
		table = detailKeys
	default:
		return "", fmt.Errorf("unknown category level: %q", level)
	}
	key, ok := table[value]
	if !ok {
		return "", fmt.Errorf("no internal key for %s %q", level, value)
	}
	return key, nil
}
