package domain

// VergeConfig is the subset of the global client configuration the group view depends on.
type VergeConfig struct {
	EnableGroupIcon    *bool  `yaml:"enable_group_icon,omitempty" json:"enable_group_icon,omitempty"`
	ProxyLayoutColumn  int    `yaml:"proxy_layout_column,omitempty" json:"proxy_layout_column,omitempty"`
	DefaultLatencyTest string `yaml:"default_latency_test,omitempty" json:"default_latency_test,omitempty"`
	ThemeMode          string `yaml:"theme_mode,omitempty" json:"theme_mode,omitempty"`
	Language           string `yaml:"language,omitempty" json:"language,omitempty"`
}

// GroupIconsEnabled defaults to true when the field was never written.
func (v VergeConfig) GroupIconsEnabled() bool {
	return v.EnableGroupIcon == nil || *v.EnableGroupIcon
}

type VergePatch struct {
	EnableGroupIcon    *bool   `json:"enable_group_icon,omitempty"`
	ProxyLayoutColumn  *int    `json:"proxy_layout_column,omitempty"`
	DefaultLatencyTest *string `json:"default_latency_test,omitempty"`
	ThemeMode          *string `json:"theme_mode,omitempty"`
	Language           *string `json:"language,omitempty"`
}

func (p VergePatch) Apply(v VergeConfig) VergeConfig {
	if p.EnableGroupIcon != nil {
		enabled := *p.EnableGroupIcon
		v.EnableGroupIcon = &enabled
	}
	if p.ProxyLayoutColumn != nil {
		v.ProxyLayoutColumn = *p.ProxyLayoutColumn
	}
	if p.DefaultLatencyTest != nil {
		v.DefaultLatencyTest = *p.DefaultLatencyTest
	}
	if p.ThemeMode != nil {
		v.ThemeMode = *p.ThemeMode
	}
	if p.Language != nil {
		v.Language = *p.Language
	}
	return v
}
