package service

import (
	"context"
	"log"

	"anukritich/nivaran/pkg/concurrent"
	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/directory"
	"anukritich/nivaran/pkg/server"
)

// CaseBackend is the slice of the case-service client the dispatch flow needs.
type CaseBackend interface {
	GetCase(ctx context.Context, id string) (*datastructure.Case, error)
	UpdateCaseStatus(ctx context.Context, id string, status datastructure.CaseStatus) error
	PresignedImageURL(ctx context.Context, key string) (string, error)
	ListNGOs(ctx context.Context, page int) ([]datastructure.NGO, bool, error)
	ListOpenCases(ctx context.Context) ([]datastructure.Case, error)
}

type DispatchService struct {
	backend CaseBackend
	idx     *directory.Index
}

func NewDispatchService(backend CaseBackend, idx *directory.Index) *DispatchService {
	return &DispatchService{backend: backend, idx: idx}
}

// WarmDirectory fills the spatial index from the backend directory and open
// case listing. Meant for startup; errors leave a partially warmed index.
func (d *DispatchService) WarmDirectory(ctx context.Context) error {
	for page := 0; ; page++ {
		ngos, hasMore, err := d.backend.ListNGOs(ctx, page)
		if err != nil {
			return err
		}
		for _, n := range ngos {
			d.idx.AddNGO(n)
		}
		if !hasMore {
			break
		}
	}

	cases, err := d.backend.ListOpenCases(ctx)
	if err != nil {
		return err
	}
	for _, c := range cases {
		d.idx.AddCase(c)
	}
	return nil
}

// NearbyCases looks up open cases around a coordinate and attaches presigned
// image URLs, fetched concurrently. A failed presign just leaves that case
// without an image URL.
func (d *DispatchService) NearbyCases(ctx context.Context, at datastructure.Coordinate, radiusKM float64) ([]datastructure.Case, error) {
	cases := d.idx.NearbyCases(at, radiusKM)
	withImages := []datastructure.Case{}
	jobCount := 0
	for _, c := range cases {
		if c.ImageKey != "" {
			jobCount++
		}
	}
	if jobCount == 0 {
		return cases, nil
	}

	workers := concurrent.NewWorkerPool[concurrent.PresignJobItem, concurrent.PresignResult](4, jobCount)
	for _, c := range cases {
		if c.ImageKey != "" {
			workers.AddJob(concurrent.PresignJobItem{CaseID: c.ID, ImageKey: c.ImageKey})
		}
	}
	workers.Close()
	workers.Start(func(job concurrent.PresignJobItem) concurrent.PresignResult {
		u, err := d.backend.PresignedImageURL(ctx, job.ImageKey)
		if err != nil {
			log.Printf("presign image for case %s: %v", job.CaseID, err)
			return concurrent.PresignResult{CaseID: job.CaseID}
		}
		return concurrent.PresignResult{CaseID: job.CaseID, URL: u}
	})
	workers.Wait()

	urls := map[string]string{}
	for res := range workers.CollectResults() {
		if res.URL != "" {
			urls[res.CaseID] = res.URL
		}
	}
	for _, c := range cases {
		c.ImageURL = urls[c.ID]
		withImages = append(withImages, c)
	}
	return withImages, nil
}

// CaseLocation resolves a case id to its reported location, for sessions
// opened without explicit destination coordinates.
func (d *DispatchService) CaseLocation(ctx context.Context, id string) (datastructure.Coordinate, error) {
	c, err := d.backend.GetCase(ctx, id)
	if err != nil {
		return datastructure.Coordinate{}, err
	}
	return c.Location, nil
}

func (d *DispatchService) NearestNGO(ctx context.Context, at datastructure.Coordinate) (datastructure.NGO, error) {
	ngo, ok := d.idx.NearestNGO(at)
	if !ok {
		return datastructure.NGO{}, server.WrapErrorf(nil, server.ErrNotFound, "no NGO indexed yet")
	}
	return ngo, nil
}

func (d *DispatchService) UpdateCaseStatus(ctx context.Context, id string, status datastructure.CaseStatus) error {
	switch status {
	case datastructure.CaseOpen, datastructure.CaseInProgress, datastructure.CaseClosed:
	default:
		return server.WrapErrorf(nil, server.ErrBadParamInput, "unknown case status %q", status)
	}
	return d.backend.UpdateCaseStatus(ctx, id, status)
}
