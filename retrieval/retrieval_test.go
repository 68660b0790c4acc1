package retrieval

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/hybrid"
	"github.com/poiesic/fixit/vector"
)

var _ Hybrid = (*hybrid.Searcher)(nil)

type fakeVector struct {
	cands     []vector.Candidate
	err       error
	calls     int
	gotQuery  string
	gotTopK   int
	gotFilter core.Filter
}

func (f *fakeVector) Search(_ context.Context, query string, topK int, filter core.Filter) ([]vector.Candidate, error) {
	f.calls++
	f.gotQuery = query
	f.gotTopK = topK
	f.gotFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.cands, nil
}

type fakeHybrid struct {
	res       *hybrid.Result
	err       error
	calls     int
	gotQuery  string
	gotTopK   int
	gotFilter core.Filter
}

func (f *fakeHybrid) Search(_ context.Context, query string, topK int, filter core.Filter) (*hybrid.Result, error) {
	f.calls++
	f.gotQuery = query
	f.gotTopK = topK
	f.gotFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cand(id string, distance float64, meta core.Metadata) vector.Candidate {
	return vector.Candidate{Id: id, Distance: distance, Metadata: meta}
}

func hitIds(hits []Hit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.Id
	}
	return ids
}
