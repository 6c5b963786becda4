package ico

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Settings are defaults read from a JSON settings document at batch start.
// The pipeline never writes them back.
type Settings struct {
	Sizes      []int
	Recolor    string
	Lossy      bool
	Lossless   bool
	MaxColors  int
	Dither     bool
	BucketURI  string
	OxipngPath string
}

// DefaultSettings returns the values used when no settings document exists.
func DefaultSettings() *Settings {

	s := &Settings{
		Sizes:     []int{16, 32, 48, 256},
		Lossy:     true,
		MaxColors: MAX_PALETTE_COLORS,
		BucketURI: "cwd://",
	}

	return s
}

// LoadSettings reads defaults from the JSON document at path. Keys that are
// absent keep their default values; a missing file is not an error.
func LoadSettings(path string) (*Settings, error) {

	s := DefaultSettings()

	body, err := os.ReadFile(path)

	if os.IsNotExist(err) {
		return s, nil
	}

	if err != nil {
		return nil, fmt.Errorf("Failed to read %s, %w", path, err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("Failed to parse %s, invalid JSON", path)
	}

	sizes_rsp := gjson.GetBytes(body, "sizes")

	if sizes_rsp.Exists() {

		sizes := make([]int, 0)

		for _, r := range sizes_rsp.Array() {
			sizes = append(sizes, int(r.Int()))
		}

		s.Sizes = sizes
	}

	if rsp := gjson.GetBytes(body, "color"); rsp.Exists() {
		s.Recolor = rsp.String()
	}

	if rsp := gjson.GetBytes(body, "lossy"); rsp.Exists() {
		s.Lossy = rsp.Bool()
	}

	if rsp := gjson.GetBytes(body, "lossless"); rsp.Exists() {
		s.Lossless = rsp.Bool()
	}

	if rsp := gjson.GetBytes(body, "max_colors"); rsp.Exists() {
		s.MaxColors = int(rsp.Int())
	}

	if rsp := gjson.GetBytes(body, "dither"); rsp.Exists() {
		s.Dither = rsp.Bool()
	}

	if rsp := gjson.GetBytes(body, "bucket_uri"); rsp.Exists() {
		s.BucketURI = rsp.String()
	}

	if rsp := gjson.GetBytes(body, "oxipng_path"); rsp.Exists() {
		s.OxipngPath = rsp.String()
	}

	return s, nil
}
