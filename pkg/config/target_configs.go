package config

// BrowserConfig controls the Chrome instance.
type BrowserConfig struct {
	Headless   bool   `json:"headless" yaml:"headless"`
	ChromePath string `json:"chrome_path" yaml:"chrome_path"`
	CookieFile string `json:"cookie_file" yaml:"cookie_file"`
	UserAgent  string `json:"user_agent" yaml:"user_agent"`
	Locale     string `json:"locale" yaml:"locale"`
	Timezone   string `json:"timezone" yaml:"timezone"`
	Width      int    `json:"width" yaml:"width"`
	Height     int    `json:"height" yaml:"height"`
	Jitter     bool   `json:"jitter" yaml:"jitter"` // human-like typing delays
}

// TargetConfig describes the monitored page.
type TargetConfig struct {
	URL string `json:"url" yaml:"url"`
	// Overlay selectors closed before each capture.
	SurveySelector  string `json:"survey_selector" yaml:"survey_selector"`
	CaptchaSelector string `json:"captcha_selector" yaml:"captcha_selector"`
	CropTop         int    `json:"crop_top" yaml:"crop_top"`
	CropBottom      int    `json:"crop_bottom" yaml:"crop_bottom"`
}

// AddressConfig is the address typed into the lookup form. Ordinals are
// 1-based positions in the autocomplete list.
type AddressConfig struct {
	City          string `json:"city" yaml:"city"`
	Street        string `json:"street" yaml:"street"`
	House         string `json:"house" yaml:"house"`
	CityOrdinal   int    `json:"city_ordinal" yaml:"city_ordinal"`
	StreetOrdinal int    `json:"street_ordinal" yaml:"street_ordinal"`
	HouseOrdinal  int    `json:"house_ordinal" yaml:"house_ordinal"`
	ExpectCity    string `json:"expect_city" yaml:"expect_city"`
	ExpectStreet  string `json:"expect_street" yaml:"expect_street"`
	ExpectHouse   string `json:"expect_house" yaml:"expect_house"`
}

// NewBrowserConfig creates a browser configuration populated from environment variables
func NewBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		Headless:   getEnvBool("OUTAGEWATCH_HEADLESS", true),
		ChromePath: getEnv("OUTAGEWATCH_CHROME_PATH", ""),
		CookieFile: getEnv("OUTAGEWATCH_COOKIE_FILE", "data/cookies.json"),
		Jitter:     getEnvBool("OUTAGEWATCH_JITTER", true),
	}
}

// NewTargetConfig creates a target configuration populated from environment variables
func NewTargetConfig() *TargetConfig {
	return &TargetConfig{
		URL:        getEnv("OUTAGEWATCH_URL", "https://www.dtek-krem.com.ua/ua/shutdowns"),
		CropTop:    300,
		CropBottom: 400,
	}
}

// NewAddressConfig creates an address configuration populated from environment variables
func NewAddressConfig() *AddressConfig {
	return &AddressConfig{
		City:          getEnv("OUTAGEWATCH_CITY", "книж"),
		Street:        getEnv("OUTAGEWATCH_STREET", "киї"),
		House:         getEnv("OUTAGEWATCH_HOUSE", "168"),
		CityOrdinal:   getEnvInt("OUTAGEWATCH_CITY_ORDINAL", 2),
		StreetOrdinal: getEnvInt("OUTAGEWATCH_STREET_ORDINAL", 2),
		HouseOrdinal:  getEnvInt("OUTAGEWATCH_HOUSE_ORDINAL", 1),
		ExpectCity:    getEnv("OUTAGEWATCH_EXPECT_CITY", "Книжичі"),
		ExpectStreet:  getEnv("OUTAGEWATCH_EXPECT_STREET", "Київська"),
		ExpectHouse:   getEnv("OUTAGEWATCH_EXPECT_HOUSE", "168"),
	}
}
