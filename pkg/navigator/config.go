package navigator

import (
	"fmt"
	"time"
)

const DefaultURL = "https://www.dtek-krem.com.ua/ua/shutdowns"

// Selectors locate the parts of the shutdowns page the pipeline touches.
type Selectors struct {
	WarningClose  string
	SurveyClose   string
	Captcha       string
	CityInput     string
	StreetInput   string
	HouseInput    string
	CityOptions   string
	StreetOptions string
	HouseOptions  string
}

func DefaultSelectors() Selectors {
	return Selectors{
		WarningClose:  "button.m-attention__close",
		SurveyClose:   ".modal.active .modal__close",
		Captcha:       "iframe[src*='captcha'], #challenge-form, .cf-turnstile",
		CityInput:     ".discon-input-wrapper #city",
		StreetInput:   ".discon-input-wrapper #street",
		HouseInput:    "input#house_num",
		CityOptions:   "#cityautocomplete-list",
		StreetOptions: "#streetautocomplete-list",
		HouseOptions:  "#house_numautocomplete-list",
	}
}

// AddressQuery is what gets typed into the three autocomplete fields and
// which suggestion (1-based) gets picked for each. The Expect fields, when
// set, must appear in the picked suggestion's text.
type AddressQuery struct {
	City          string
	Street        string
	House         string
	CityOrdinal   int
	StreetOrdinal int
	HouseOrdinal  int
	ExpectCity    string
	ExpectStreet  string
	ExpectHouse   string
}

func DefaultAddressQuery() AddressQuery {
	return AddressQuery{
		City:          "книж",
		Street:        "киї",
		House:         "168",
		CityOrdinal:   2,
		StreetOrdinal: 2,
		HouseOrdinal:  1,
		ExpectCity:    "Книжичі",
		ExpectStreet:  "Київська",
		ExpectHouse:   "168",
	}
}

func (q AddressQuery) Validate() error {
	if q.City == "" || q.Street == "" || q.House == "" {
		return fmt.Errorf("address query needs city, street and house")
	}
	if q.CityOrdinal < 1 || q.StreetOrdinal < 1 || q.HouseOrdinal < 1 {
		return fmt.Errorf("address ordinals are 1-based")
	}
	return nil
}

// Timing holds the waits of the pipeline.
type Timing struct {
	NavigateTimeout   time.Duration
	DialogTimeout     time.Duration
	FieldTimeout      time.Duration
	OptionTimeout     time.Duration
	SettleAfterLoad   time.Duration
	SettleAfterType   time.Duration
	SettleAfterSelect time.Duration
	SettleAfterHouse  time.Duration
	DropdownRetries   int
	RetryBackoff      time.Duration
	CaptchaPoll       time.Duration
	CaptchaCeiling    time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		NavigateTimeout:   30 * time.Second,
		DialogTimeout:     5 * time.Second,
		FieldTimeout:      5 * time.Second,
		OptionTimeout:     5 * time.Second,
		SettleAfterLoad:   2 * time.Second,
		SettleAfterType:   1500 * time.Millisecond,
		SettleAfterSelect: time.Second,
		SettleAfterHouse:  3 * time.Second,
		DropdownRetries:   3,
		RetryBackoff:      time.Second,
		CaptchaPoll:       time.Second,
		CaptchaCeiling:    5 * time.Minute,
	}
}

func optionSelector(list string, ordinal int) string {
	return fmt.Sprintf("%s > div:nth-child(%d)", list, ordinal)
}
