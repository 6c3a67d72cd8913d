package account

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/go-training/account-linker/pkg/core"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Probe statuses.
const (
	StatusConnected       = "connected"
	StatusNotConnected    = "not_connected"
	StatusUnauthenticated = "unauthenticated"
	StatusLoginRequired   = "login_required"
	StatusFailed          = "failed"
)

// Classify maps a FetchSnapshot or TriggerSync error to a probe status.
func Classify(err error) string {
	switch {
	case err == nil:
		return StatusConnected
	case errors.Is(err, ErrNotConnected):
		return StatusNotConnected
	case errors.Is(err, ErrUnauthenticated):
		return StatusUnauthenticated
	case errors.Is(err, ErrLoginRequired):
		return StatusLoginRequired
	default:
		return StatusFailed
	}
}

// Probe is the display state of one platform.
type Probe struct {
	Platform string                `json:"platform"`
	Status   string                `json:"status"`
	Snapshot *core.AccountSnapshot `json:"snapshot,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// Overview is the result of one Load.
type Overview struct {
	Generation uint64  `json:"generation"`
	Probes     []Probe `json:"probes"`
}

// Probe returns the entry for platform.
func (o *Overview) Probe(platform string) (Probe, bool) {
	i := slices.IndexFunc(o.Probes, func(p Probe) bool { return p.Platform == platform })
	if i < 0 {
		return Probe{}, false
	}
	return o.Probes[i], true
}

// SnapshotFetcher is the part of Client a Board needs.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, platform string) (*core.AccountSnapshot, error)
}

// generationKey holds the refresh generation in the device namespace.
const generationKey = "refresh_generation"

// Board tracks which platforms to show and a refresh generation. Every
// event that may change account data bumps the generation, and each Load
// is stamped with the generation it started at.
//
// The generation lives in the given store next to the rest of the device
// state, so it expires with it. Concurrent bumps may collapse into one;
// any bump is enough to cause a later re-probe.
type Board struct {
	platforms []string
	store     core.Store
}

// NewBoard creates a Board for platforms, in display order, keeping its
// generation in st.
func NewBoard(st core.Store, platforms ...string) *Board {
	return &Board{platforms: slices.Clone(platforms), store: st}
}

// Platforms returns the platforms in display order.
func (b *Board) Platforms() []string {
	return slices.Clone(b.platforms)
}

// Refresh bumps the generation and returns the new value.
func (b *Board) Refresh(ctx context.Context) (uint64, error) {
	gen, err := b.Generation(ctx)
	if err != nil {
		return 0, err
	}
	gen++
	if err := b.store.Put(ctx, generationKey, strconv.FormatUint(gen, 10)); err != nil {
		return 0, fmt.Errorf("save refresh generation: %w", err)
	}
	return gen, nil
}

// Generation returns the current generation, zero before the first bump.
func (b *Board) Generation(ctx context.Context) (uint64, error) {
	raw, err := b.store.Get(ctx, generationKey)
	if errors.Is(err, core.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read refresh generation: %w", err)
	}
	gen, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse refresh generation %q: %w", raw, err)
	}
	return gen, nil
}

// Load fetches every platform concurrently. Individual failures end up in
// their probe; Load itself only fails if ctx is done.
func (b *Board) Load(ctx context.Context, fetcher SnapshotFetcher) (*Overview, error) {
	gen, err := b.Generation(ctx)
	if err != nil {
		return nil, err
	}
	ov := &Overview{
		Generation: gen,
		Probes:     make([]Probe, len(b.platforms)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, platform := range b.platforms {
		g.Go(func() error {
			snap, err := fetcher.FetchSnapshot(gctx, platform)
			p := Probe{Platform: platform, Status: Classify(err), Snapshot: snap}
			if err != nil && p.Status == StatusFailed {
				p.Error = err.Error()
				core.LoggerFromCtx(gctx).Warn("Snapshot fetch failed", "platform", platform, "error", err)
			}
			AddRequestAttributes(gctx,
				attribute.String("account.platform", platform),
				attribute.String("account.status", p.Status),
			)
			ov.Probes[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ov, nil
}
