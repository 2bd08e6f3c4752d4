package scrapers

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var profileFS embed.FS

// Profile holds a vendor's selector chains. Dashboards change markup
// between deploys, so every field is a fallback chain tried in order.
// Keeping them as data means a selector fix is a profile edit, not a
// code change.
type Profile struct {
	Source string `yaml:"source"`

	Login struct {
		Path     string   `yaml:"path"`
		Username []string `yaml:"username"`
		Password []string `yaml:"password"`
		Submit   []string `yaml:"submit"`
		Success  []string `yaml:"success"`
		Error    []string `yaml:"error"`
	} `yaml:"login"`

	List struct {
		Path    string   `yaml:"path"`
		Item    []string `yaml:"item"`
		IDAttrs []string `yaml:"id_attrs"`
		Link    string   `yaml:"link"`
		Date    []string `yaml:"date"`
		Name    []string `yaml:"name"`
	} `yaml:"list"`

	Detail struct {
		Path       string   `yaml:"path"` // printf pattern with %s for the vendor ID
		Ready      []string `yaml:"ready"`
		Title      []string `yaml:"title"`
		Date       []string `yaml:"date"`
		Location   []string `yaml:"location"`
		DataTab    []string `yaml:"data_tab"`
		TotalScore []string `yaml:"total_score"`
		TotalPar   []string `yaml:"total_par"`
		FrontNine  []string `yaml:"front_nine"`
		BackNine   []string `yaml:"back_nine"`
	} `yaml:"detail"`

	Shots struct {
		Rows      []string `yaml:"rows"`
		Club      []string `yaml:"club"`
		BallSpeed []string `yaml:"ball_speed"`
		ClubSpeed []string `yaml:"club_speed"`
		Smash     []string `yaml:"smash"`
		Launch    []string `yaml:"launch"`
		Spin      []string `yaml:"spin"`
		Carry     []string `yaml:"carry"`
		Total     []string `yaml:"total"`
	} `yaml:"shots"`

	Holes struct {
		Card         []string `yaml:"card"`
		Number       []string `yaml:"number"`
		Par          []string `yaml:"par"`
		Score        []string `yaml:"score"`
		Distance     []string `yaml:"distance"`
		Putts        []string `yaml:"putts"`
		CloseButton  []string `yaml:"close_button"`
		ShotItem     []string `yaml:"shot_item"`
		ShotClub     []string `yaml:"shot_club"`
		ShotDistance []string `yaml:"shot_distance"`
	} `yaml:"holes"`

	Stats struct {
		Tab      []string `yaml:"tab"`
		Fairways []string `yaml:"fairways"`
		GIR      []string `yaml:"gir"`
		Putts    []string `yaml:"putts"`
		AvgDrive []string `yaml:"avg_drive"`
	} `yaml:"stats"`

	DateFormats []string `yaml:"date_formats"`
}

// LoadProfile reads the embedded selector profile for a vendor
func LoadProfile(source string) (*Profile, error) {
	data, err := profileFS.ReadFile(fmt.Sprintf("profiles/%s.yaml", source))
	if err != nil {
		return nil, fmt.Errorf("no selector profile for %s: %w", source, err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse %s profile: %w", source, err)
	}
	if profile.Source == "" {
		profile.Source = source
	}
	return &profile, nil
}
