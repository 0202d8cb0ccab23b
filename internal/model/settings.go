// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package model // import "feedviewer.app/v1/internal/model"

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinItems = 1
	MaxItems = 20

	DefaultItems       = 5
	DefaultSort        = SortInOrder
	DefaultAllowedTags = "p,div,br,ul,ol,li,span"
)

// Keys of raw widget settings, as used by widget presets and query strings.
const (
	SettingTitle       = "title"
	SettingURL         = "url"
	SettingItems       = "items"
	SettingSort        = "sort"
	SettingAllowedTags = "allowed_tags"
)

// SettingKeys lists all keys of raw widget settings.
var SettingKeys = []string{
	SettingTitle, SettingURL, SettingItems, SettingSort, SettingAllowedTags,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidWidgetID reports a widget id not usable as HTML id suffix.
var ErrInvalidWidgetID = errors.New("widget id must be 1-64 letters, digits, '-' or '_'")

var widgetIDRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateWidgetID checks id can be embedded into the container id attribute
// as is.
func ValidateWidgetID(id string) error {
	if !widgetIDRegexp.MatchString(id) {
		return fmt.Errorf("model: invalid widget id %q: %w", id,
			ErrInvalidWidgetID)
	}
	return nil
}

// Settings holds configuration of a single widget render.
type Settings struct {
	Title       string     `json:"title"`
	URL         string     `json:"url" validate:"required"`
	Items       int        `json:"items"`
	Sort        SortPolicy `json:"sort"`
	AllowedTags AllowList  `json:"allowed_tags"`
}

// DefaultSettings returns settings with default values and an empty URL.
func DefaultSettings() Settings {
	return Settings{
		Items:       DefaultItems,
		Sort:        DefaultSort,
		AllowedTags: ParseAllowList(DefaultAllowedTags),
	}
}

// ParseSettings parses raw key/value settings on top of defaults and
// validates the result. Unknown keys are ignored.
func ParseSettings(values map[string]string, defaults Settings,
) (*Settings, error) {
	s := defaults
	s.AllowedTags = defaults.AllowedTags.Clone()

	for key, value := range values {
		switch key {
		case SettingTitle:
			s.Title = value
		case SettingURL:
			s.URL = strings.TrimSpace(value)
		case SettingItems:
			s.Items = ParseItems(value)
		case SettingSort:
			s.Sort = SortPolicy(strings.TrimSpace(value))
		case SettingAllowedTags:
			s.AllowedTags = ParseAllowList(value)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks settings are renderable.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("model: invalid widget settings: %w", err)
	}
	return nil
}

// ClampItems returns the number of items to render, always within
// [MinItems, MaxItems].
func (s *Settings) ClampItems() int { return ClampItems(s.Items) }

// Values returns settings in raw key/value form.
func (s *Settings) Values() map[string]string {
	return map[string]string{
		SettingTitle:       s.Title,
		SettingURL:         s.URL,
		SettingItems:       fmt.Sprint(s.Items),
		SettingSort:        string(s.Sort),
		SettingAllowedTags: s.AllowedTags.Raw(),
	}
}

func ClampItems(n int) int { return max(MinItems, min(MaxItems, n)) }

// ParseItems parses the leading integer of s, ignoring surrounding garbage
// the way form values usually arrive. Strings without a leading integer
// return 0.
func ParseItems(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	if s == "" {
		return 0
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	var n int64
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int64(s[i]-'0')
		if n > math.MaxInt32 {
			n = math.MaxInt32
			break
		}
	}

	if neg {
		return -int(n)
	}
	return int(n)
}
