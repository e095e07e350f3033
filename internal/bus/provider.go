package bus

import (
	"context"
	"errors"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/logging"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

var busLog = logging.ForComponent(logging.CompBus)

// SearchProviderInterface is the D-Bus interface GNOME Shell queries
const SearchProviderInterface = "org.gnome.Shell.SearchProvider2"

// Searcher answers the queries of one search provider
type Searcher interface {
	GetInitialResultSet(ctx context.Context, terms []string) ([]string, error)
	GetSubsetResultSet(ctx context.Context, previous, terms []string) ([]string, error)
	GetResultMetas(ids []string) []types.ResultMeta
	ActivateResult(ctx context.Context, id string, terms []string, timestamp uint32) error
	LaunchSearch(ctx context.Context, terms []string, timestamp uint32) error
}

// Provider exports a Searcher as org.gnome.Shell.SearchProvider2.
// Method names and signatures are dictated by the interface.
type Provider struct {
	ctx      context.Context
	path     dbus.ObjectPath
	searcher Searcher
}

// NewProvider creates the exported object for searcher. ctx bounds all
// requests and is cancelled on shutdown.
func NewProvider(ctx context.Context, path dbus.ObjectPath, searcher Searcher) *Provider {
	return &Provider{ctx: ctx, path: path, searcher: searcher}
}

// GetInitialResultSet implements GetInitialResultSet(as) -> as
func (p *Provider) GetInitialResultSet(terms []string) ([]string, *dbus.Error) {
	busLog.Debug("get_initial_result_set", slog.String("path", string(p.path)), slog.Int("terms", len(terms)))
	ids, err := p.searcher.GetInitialResultSet(p.ctx, terms)
	return p.results(ids, err)
}

// GetSubsearchResultSet implements GetSubsearchResultSet(as, as) -> as
func (p *Provider) GetSubsearchResultSet(previous, terms []string) ([]string, *dbus.Error) {
	busLog.Debug("get_subsearch_result_set",
		slog.String("path", string(p.path)),
		slog.Int("previous", len(previous)),
		slog.Int("terms", len(terms)))
	ids, err := p.searcher.GetSubsetResultSet(p.ctx, previous, terms)
	return p.results(ids, err)
}

// results answers superseded queries with an empty list
func (p *Provider) results(ids []string, err error) ([]string, *dbus.Error) {
	if errors.Is(err, types.ErrStaleResult) {
		return []string{}, nil
	}
	if err != nil {
		busLog.Error("query_failed", slog.String("path", string(p.path)), slog.String("error", err.Error()))
		return nil, dbus.MakeFailedError(err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// GetResultMetas implements GetResultMetas(as) -> aa{sv}
func (p *Provider) GetResultMetas(ids []string) ([]map[string]dbus.Variant, *dbus.Error) {
	metas := p.searcher.GetResultMetas(ids)
	out := make([]map[string]dbus.Variant, 0, len(metas))
	for _, m := range metas {
		out = append(out, metaVariant(m))
	}
	return out, nil
}

func metaVariant(m types.ResultMeta) map[string]dbus.Variant {
	v := map[string]dbus.Variant{
		"id":          dbus.MakeVariant(m.ID),
		"name":        dbus.MakeVariant(m.Name),
		"description": dbus.MakeVariant(m.Description),
	}
	if m.Icon != "" {
		v["gicon"] = dbus.MakeVariant(m.Icon)
	}
	return v
}

// ActivateResult implements ActivateResult(s, as, u). Failures are logged by
// the searcher and never reported to the shell.
func (p *Provider) ActivateResult(id string, terms []string, timestamp uint32) *dbus.Error {
	_ = p.searcher.ActivateResult(p.ctx, id, terms, timestamp)
	return nil
}

// LaunchSearch implements LaunchSearch(as, u)
func (p *Provider) LaunchSearch(terms []string, timestamp uint32) *dbus.Error {
	_ = p.searcher.LaunchSearch(p.ctx, terms, timestamp)
	return nil
}
