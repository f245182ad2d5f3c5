package domain

type SortType int

const (
	SortDefault SortType = iota
	SortDelay
	SortName
)

func (s SortType) String() string {
	switch s {
	case SortDelay:
		return "delay"
	case SortName:
		return "name"
	default:
		return "default"
	}
}

// HeadState is the ephemeral UI state of one group. The zero value is the
// state of a group that was never touched.
type HeadState struct {
	Open       bool     `json:"open"`
	SortType   SortType `json:"sortType"`
	Testing    bool     `json:"testing"`
	ShowType   bool     `json:"showType"`
	FilterText string   `json:"filterText,omitempty"`
}

// HeadPatch carries the fields to merge into a HeadState; nil fields are left as they are.
type HeadPatch struct {
	Open       *bool     `json:"open,omitempty"`
	SortType   *SortType `json:"sortType,omitempty"`
	Testing    *bool     `json:"testing,omitempty"`
	ShowType   *bool     `json:"showType,omitempty"`
	FilterText *string   `json:"filterText,omitempty"`
}

func (p HeadPatch) Apply(s HeadState) HeadState {
	if p.Open != nil {
		s.Open = *p.Open
	}
	if p.SortType != nil {
		s.SortType = *p.SortType
	}
	if p.Testing != nil {
		s.Testing = *p.Testing
	}
	if p.ShowType != nil {
		s.ShowType = *p.ShowType
	}
	if p.FilterText != nil {
		s.FilterText = *p.FilterText
	}
	return s
}

// HeadReader gives read access to head states by group name.
type HeadReader interface {
	Get(name GroupName) HeadState
}
