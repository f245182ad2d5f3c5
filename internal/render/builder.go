package render

import (
	"go.uber.org/zap"
	"verge-groups/internal/config"
	"verge-groups/internal/domain"
)

type HeaderStyle int

const (
	// HeaderCompact emits GroupHeader rows.
	HeaderCompact HeaderStyle = iota
	// HeaderDetailed emits GroupBody rows.
	HeaderDetailed
)

type Layout int

const (
	LayoutList Layout = iota
	LayoutGrid
)

const defaultColumns = 2

type Options struct {
	Header  HeaderStyle
	Layout  Layout
	Columns int
	Indent  bool
}

// OptionsFromConfig maps the configured view settings onto builder options.
func OptionsFromConfig(v config.View) Options {
	opts := Options{Columns: v.Columns, Indent: v.Indent}
	if v.Header == config.HeaderDetailed {
		opts.Header = HeaderDetailed
	}
	if v.Layout == config.LayoutGrid {
		opts.Layout = LayoutGrid
	}
	return opts
}

// Builder projects the group model and head states onto the row list. It is
// pure apart from logging: the same groups and head states always produce
// the same rows with the same keys.
type Builder struct {
	opts    Options
	metrics domain.MetricsCollector
	logger  *zap.Logger
}

func NewBuilder(opts Options, metrics domain.MetricsCollector, logger *zap.Logger) *Builder {
	if opts.Columns <= 0 {
		opts.Columns = defaultColumns
	}
	return &Builder{
		opts:    opts,
		metrics: metrics,
		logger:  logger.With(zap.String("component", "render")),
	}
}

func (b *Builder) Options() Options {
	return b.opts
}

// WithColumns returns a builder sharing b's settings but with another grid width.
func (b *Builder) WithColumns(columns int) *Builder {
	if columns <= 0 || columns == b.opts.Columns {
		return b
	}
	next := *b
	next.opts.Columns = columns
	return &next
}

func (b *Builder) Build(groups []domain.Group, heads domain.HeadReader) []domain.Row {
	if heads == nil {
		heads = emptyHeads{}
	}

	l := rowList{
		rows:    make([]domain.Row, 0, len(groups)),
		keys:    make(map[string]struct{}, len(groups)),
		metrics: b.metrics,
		logger:  b.logger,
	}
	seenGroups := make(map[domain.GroupName]struct{}, len(groups))

	for _, g := range groups {
		if g.Hidden {
			continue
		}
		if _, dup := seenGroups[g.Name]; dup {
			b.logger.Error("duplicate group in model, dropping later occurrence",
				zap.String("group", string(g.Name)))
			b.metrics.RecordDuplicateRow(g.Name)
			continue
		}
		seenGroups[g.Name] = struct{}{}

		head := heads.Get(g.Name)
		if !l.emit(b.header(g, head)) || !head.Open {
			continue
		}

		members := Members(g, head)
		if len(members) == 0 {
			l.emit(domain.EmptyPlaceholder{Group: g})
			continue
		}

		switch b.opts.Layout {
		case LayoutGrid:
			cols := b.opts.Columns
			for i, idx := 0, 0; i < len(members); i, idx = i+cols, idx+1 {
				end := min(i+cols, len(members))
				l.emit(domain.ProxyGrid{
					Group:   g,
					Proxies: members[i:end:end],
					Head:    head,
					Index:   idx,
					Columns: cols,
				})
			}
		default:
			for _, p := range members {
				l.emit(domain.ProxyEntry{
					Group:    g,
					Proxy:    p,
					Head:     head,
					Selected: g.Now == p.Name,
				})
			}
		}
	}

	b.metrics.RecordRowsBuilt(len(l.rows))
	return l.rows
}

func (b *Builder) header(g domain.Group, head domain.HeadState) domain.Row {
	if b.opts.Header == HeaderDetailed {
		return domain.GroupBody{Group: g, Head: head, Indent: b.opts.Indent}
	}
	return domain.GroupHeader{Group: g, Head: head, Indent: b.opts.Indent}
}

type rowList struct {
	rows    []domain.Row
	keys    map[string]struct{}
	metrics domain.MetricsCollector
	logger  *zap.Logger
}

// emit appends r unless its key was already used; the first row wins. It
// reports whether r was kept.
func (l *rowList) emit(r domain.Row) bool {
	key := r.Key()
	if _, dup := l.keys[key]; dup {
		l.logger.Error("duplicate row key, dropping row",
			zap.String("key", key),
			zap.String("kind", string(r.Kind())))
		l.metrics.RecordDuplicateRow(r.GroupName())
		return false
	}
	l.keys[key] = struct{}{}
	l.rows = append(l.rows, r)
	return true
}

type emptyHeads struct{}

func (emptyHeads) Get(domain.GroupName) domain.HeadState { return domain.HeadState{} }
