package oauth2

import "net/url"

// Param is a user-supplied extra parameter. Inactive entries and entries
// with an empty key or value are ignored.
type Param struct {
	Key    string `yaml:"key" json:"key"`
	Value  string `yaml:"value" json:"value"`
	Active bool   `yaml:"active" json:"active"`
}

// applyParams sets the usable entries of params on v in order, so a later
// duplicate key overwrites an earlier one.
func applyParams(v url.Values, params []Param) {
	for _, p := range params {
		if !p.Active || p.Key == "" || p.Value == "" {
			continue
		}
		v.Set(p.Key, p.Value)
	}
}

// setIf sets key only when value is non-empty.
func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
