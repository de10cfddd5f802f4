package testing

import (
	"context"
	"slices"
	"sync"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/process"
)

// Script scripts the gateway's answers for one contract.
type Script struct {
	SearchErr   error
	OpenErr     error
	AccessErr   error
	DownloadErr error
	HomeErr     error

	// Path is returned by a successful download; defaults to <id>/docs.zip.
	Path string
	// EmptyPath makes a successful download return "".
	EmptyPath bool
	// PanicAt lists steps that panic instead of returning.
	PanicAt []process.Step
}

// FakeGateway is a scripted process.Gateway and process.Snapshotter that
// records every call in order.
type FakeGateway struct {
	Scripts map[contract.ID]Script
	ShotErr error

	mu      sync.Mutex
	current contract.ID
	calls   []string
	shots   []string
}

// NewFakeGateway returns a gateway where every contract succeeds unless
// scripted otherwise.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{Scripts: map[contract.ID]Script{}}
}

// Calls returns the recorded calls as "STEP id" (or "NAVIGATE_HOME id" for
// the contract being processed).
func (f *FakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Shots returns "id STEP" for every screenshot taken.
func (f *FakeGateway) Shots() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.shots)
}

func (f *FakeGateway) enter(step process.Step, id contract.ID) Script {
	f.mu.Lock()
	f.calls = append(f.calls, step.String()+" "+string(id))
	s := f.Scripts[id]
	f.mu.Unlock()

	if slices.Contains(s.PanicAt, step) {
		panic("scripted panic at " + step.String())
	}
	return s
}

func (f *FakeGateway) Search(ctx context.Context, id contract.ID) error {
	f.mu.Lock()
	f.current = id
	f.mu.Unlock()
	return f.enter(process.StepSearch, id).SearchErr
}

func (f *FakeGateway) Open(ctx context.Context, id contract.ID) error {
	return f.enter(process.StepOpen, id).OpenErr
}

func (f *FakeGateway) AccessDocuments(ctx context.Context, id contract.ID) error {
	return f.enter(process.StepAccessDocuments, id).AccessErr
}

func (f *FakeGateway) DownloadDocuments(ctx context.Context, id contract.ID) (string, error) {
	s := f.enter(process.StepDownload, id)
	if s.DownloadErr != nil {
		return "", s.DownloadErr
	}
	if s.EmptyPath {
		return "", nil
	}
	if s.Path != "" {
		return s.Path, nil
	}
	return string(id) + "/docs.zip", nil
}

func (f *FakeGateway) NavigateHome(ctx context.Context) error {
	f.mu.Lock()
	id := f.current
	f.mu.Unlock()
	return f.enter(process.StepNavigateHome, id).HomeErr
}

func (f *FakeGateway) Screenshot(ctx context.Context, id contract.ID, step process.Step) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ShotErr != nil {
		return "", f.ShotErr
	}
	f.shots = append(f.shots, string(id)+" "+step.String())
	return string(id) + "_" + step.String() + ".png", nil
}
