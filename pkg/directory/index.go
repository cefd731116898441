// Package directory keeps an in-memory spatial view of the NGO network and
// the open cases, for "what is near me" browsing by NGO staff.
package directory

import (
	"sort"
	"sync"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/geo"

	"github.com/dhconnelly/rtreego"
	"github.com/uber/h3-go/v4"
)

const (
	// res 8 hexagons have ~460 m edges, a sane bucket size for city browsing
	caseCellResolution = 8
	caseCellEdgeKM     = 0.461

	rectTol = 0.0001
)

type ngoEntry struct {
	Location rtreego.Point
	NGO      datastructure.NGO
}

func (e *ngoEntry) Bounds() rtreego.Rect {
	return e.Location.ToRect(rectTol)
}

type Index struct {
	mu        sync.RWMutex
	ngoTree   *rtreego.Rtree
	caseCells map[string][]datastructure.Case
}

func NewIndex() *Index {
	return &Index{
		ngoTree:   rtreego.NewTree(2, 25, 50),
		caseCells: map[string][]datastructure.Case{},
	}
}

func (i *Index) AddNGO(n datastructure.NGO) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ngoTree.Insert(&ngoEntry{
		Location: rtreego.Point{n.Location.Lat, n.Location.Lon},
		NGO:      n,
	})
}

func (i *Index) AddCase(c datastructure.Case) {
	cell := h3.LatLngToCell(h3.NewLatLng(c.Location.Lat, c.Location.Lon), caseCellResolution)
	i.mu.Lock()
	defer i.mu.Unlock()
	i.caseCells[cell.String()] = append(i.caseCells[cell.String()], c)
}

// NearestNGO returns the NGO closest to c, if any are indexed.
func (i *Index) NearestNGO(c datastructure.Coordinate) (datastructure.NGO, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	got := i.ngoTree.NearestNeighbor(rtreego.Point{c.Lat, c.Lon})
	if got == nil {
		return datastructure.NGO{}, false
	}
	return got.(*ngoEntry).NGO, true
}

// NearbyCases gathers candidate cells with an h3 grid disk around c, then
// filters and sorts the candidates by haversine distance.
func (i *Index) NearbyCases(c datastructure.Coordinate, radiusKM float64) []datastructure.Case {
	if radiusKM <= 0 {
		return nil
	}
	home := h3.LatLngToCell(h3.NewLatLng(c.Lat, c.Lon), caseCellResolution)
	rings := int(radiusKM/caseCellEdgeKM) + 1

	i.mu.RLock()
	defer i.mu.RUnlock()

	nearby := []datastructure.Case{}
	for _, cell := range h3.GridDisk(home, rings) {
		for _, cs := range i.caseCells[cell.String()] {
			if geo.HaversineMeters(c, cs.Location) <= radiusKM*1000 {
				nearby = append(nearby, cs)
			}
		}
	}

	sort.Slice(nearby, func(a, b int) bool {
		return geo.HaversineMeters(c, nearby[a].Location) < geo.HaversineMeters(c, nearby[b].Location)
	})
	return nearby
}
