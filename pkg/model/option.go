package model

import "strings"

// Option is one selectable entry of a picklist or reference collection.
type Option struct {
	Value     string         `json:"value"`
	Label     string         `json:"label"`
	LabelI18n LocalizedText  `json:"labelI18n,omitempty"`
	Raw       map[string]any `json:"-"`
}

// DisplayLabel returns the localized label for locale, falling back to the
// plain label and finally the key.
func (o Option) DisplayLabel(locale string) string {
	if label := o.LabelI18n.Get(locale); strings.TrimSpace(label) != "" {
		return label
	}
	if strings.TrimSpace(o.Label) != "" {
		return o.Label
	}
	return o.Value
}

// Clone returns a copy with its maps duplicated.
func (o Option) Clone() Option {
	out := o
	out.LabelI18n = o.LabelI18n.Clone()
	if o.Raw != nil {
		out.Raw = make(map[string]any, len(o.Raw))
		for k, v := range o.Raw {
			out.Raw[k] = CloneValue(v)
		}
	}
	return out
}

// FindOption returns the option with the given key.
func FindOption(options []Option, value string) (Option, bool) {
	for _, option := range options {
		if option.Value == value {
			return option, true
		}
	}
	return Option{}, false
}

// OptionKeys returns the keys of the supplied options in order.
func OptionKeys(options []Option) []string {
	out := make([]string, 0, len(options))
	for _, option := range options {
		if option.Value != "" {
			out = append(out, option.Value)
		}
	}
	return out
}
