package atlas

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/Faultbox/regionatlas/internal/config"
	"github.com/Faultbox/regionatlas/internal/engine/lut"
	"github.com/Faultbox/regionatlas/internal/logger"
	"github.com/Faultbox/regionatlas/internal/mapmode"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// Session is the mutable viewer state over one Map. It is owned by a single
// goroutine; the copies it hands to the publisher are never touched again.
type Session struct {
	Map       *Map
	State     mapmode.State
	Modes     []mapmode.MapMode
	Selection lut.Selection
	Publisher *lut.Publisher

	mode int
	rng  *rand.Rand
	log  *zap.Logger
}

// NewSession synthesizes ownership and values for m and wires a publisher
// that hands tables to uploader (nil for CPU-only consumers).
func NewSession(m *Map, cfg config.MapConfig, uploader lut.Uploader) (*Session, error) {
	b, err := lut.NewBuilder(m.LUTDim, m.IDs.MaxID())
	if err != nil {
		return nil, err
	}
	b.SetNoDataColor(mapmode.FallbackColor)

	owners := mapmode.Synthesize(m.IDs, mapmode.SynthOptions{
		Cols:    cfg.CountryCols,
		Rows:    cfg.CountryRows,
		Unowned: cfg.Unowned,
		Seed:    cfg.Seed,
	})

	s := &Session{
		Map: m,
		State: mapmode.State{
			Owners: owners,
			Values: mapmode.SynthValues(m.IDs, cfg.Seed),
		},
		Modes: []mapmode.MapMode{
			mapmode.Political{},
			mapmode.Gradient{Label: "Development", Steps: 8},
			mapmode.Gradient{Label: "Development rank", Percentile: true},
		},
		Selection: lut.NewSelection(),
		Publisher: lut.NewPublisher(b, uploader),
		rng:       rand.New(rand.NewPCG(cfg.Seed, ^cfg.Seed)),
		log:       logger.Named("session"),
	}
	s.log.Info("session ready",
		zap.Int("countries", len(owners.Tags())),
		zap.String("map_mode", s.MapMode().Name()))
	return s, nil
}

// MapMode returns the active map mode.
func (s *Session) MapMode() mapmode.MapMode { return s.Modes[s.mode] }

// CycleMapMode advances to the next map mode.
func (s *Session) CycleMapMode() mapmode.MapMode {
	s.mode = (s.mode + 1) % len(s.Modes)
	return s.MapMode()
}

// Attributes evaluates the active map mode.
func (s *Session) Attributes() map[regionid.ID]lut.Attribute {
	return s.MapMode().Attributes(s.State)
}

// Select toggles id. With group set it toggles every region of id's owner
// together: all become selected unless all already were.
func (s *Session) Select(id regionid.ID, group bool) {
	if id == regionid.Void {
		return
	}
	if !group {
		s.Selection.Toggle(id)
		return
	}
	ids := s.State.Owners.RegionsOf(s.State.Owners.Owner(id))
	if len(ids) == 0 {
		ids = []regionid.ID{id}
	}
	all := true
	for _, r := range ids {
		if !s.Selection.Has(r) {
			all = false
			break
		}
	}
	if all {
		s.Selection.Remove(ids...)
	} else {
		s.Selection.Add(ids...)
	}
}

// ClearSelection deselects everything.
func (s *Session) ClearSelection() {
	s.Selection = lut.NewSelection()
}

// Focus returns the UV centre of the owner of id, or of id itself when it
// is unowned.
func (s *Session) Focus(id regionid.ID) (u, v float64, ok bool) {
	ids := s.State.Owners.RegionsOf(s.State.Owners.Owner(id))
	if len(ids) == 0 {
		ids = []regionid.ID{id}
	}
	c, ok := mapmode.GroupCentroid(s.Map.Centroids, ids)
	if !ok {
		return 0, 0, false
	}
	u, v = s.Map.CentroidUV(c)
	return u, v, true
}

// Step advances the simulation by one tick: one owned frontier region
// changes hands to a neighbouring country, and every value drifts.
// It reports the region that moved, or Void when nothing could move.
func (s *Session) Step() regionid.ID {
	for id := range s.State.Values {
		s.State.Values[id] *= 1 + (s.rng.Float64()-0.5)*0.02
	}

	tags := s.State.Owners.Tags()
	if len(tags) < 2 {
		return regionid.Void
	}
	attacker := tags[s.rng.IntN(len(tags))]

	var targets []regionid.ID
	for _, id := range s.State.Owners.RegionsOf(attacker) {
		for _, n := range s.Map.Adjacency[id] {
			if owner := s.State.Owners.Owner(n); owner != "" && owner != attacker {
				targets = append(targets, n)
			}
		}
	}
	if len(targets) == 0 {
		return regionid.Void
	}
	id := targets[s.rng.IntN(len(targets))]
	prev := s.State.Owners.Transfer(id, attacker)
	s.log.Debug("region changed hands",
		zap.Uint32("region", uint32(s.Map.SourceID(id))),
		zap.String("from", prev),
		zap.String("to", attacker))
	return id
}

// Request queues an asynchronous table rebuild of the current state.
func (s *Session) Request() {
	s.Publisher.Request(s.Attributes(), s.Selection.Clone())
}

// Publish rebuilds and commits synchronously.
func (s *Session) Publish() (*lut.Table, error) {
	return s.Publisher.Publish(s.Attributes(), s.Selection.Clone())
}
