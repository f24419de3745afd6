// Package memory is an in-process content-addressed object store for local
// development and tests. CIDs are CIDv1 raw sha2-256 over the uploaded bytes,
// so identical payloads share a CID while each upload gets a fresh file handle.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"owndrob/internal/objectstore"
	"owndrob/pkg/cidutil"
)

// FaultFunc lets tests fail a given operation. Returning nil lets it proceed.
type FaultFunc func(op string) error

type Store struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	files   map[string]objectstore.File
	groups  map[string]objectstore.Group
	members map[string][]string
	fault   FaultFunc
	now     func() time.Time
}

type Option func(*Store)

func WithFault(f FaultFunc) Option {
	return func(s *Store) {
		s.fault = f
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		blobs:   make(map[string][]byte),
		files:   make(map[string]objectstore.File),
		groups:  make(map[string]objectstore.Group),
		members: make(map[string][]string),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetFault swaps the fault hook at runtime.
func (s *Store) SetFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

func (s *Store) checkFault(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return objectstore.NewError(objectstore.ErrorTimeout, op, "context done", err)
	}
	s.mu.RLock()
	fault := s.fault
	s.mu.RUnlock()
	if fault == nil {
		return nil
	}
	if err := fault(op); err != nil {
		return objectstore.NewError(objectstore.ErrorOutage, op, "injected failure", err)
	}
	return nil
}

func (s *Store) Upload(ctx context.Context, name string, body []byte) (objectstore.Upload, error) {
	if err := s.checkFault(ctx, objectstore.OpUpload); err != nil {
		return objectstore.Upload{}, err
	}
	id, err := cidutil.CIDv1RawSHA256(body)
	if err != nil {
		return objectstore.Upload{}, objectstore.NewError(objectstore.ErrorInternal, objectstore.OpUpload, "compute cid", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		s.blobs[id] = append([]byte(nil), body...)
	}
	file := objectstore.File{
		FileHandle: uuid.NewString(),
		Name:       name,
		CID:        id,
		SizeBytes:  int64(len(body)),
		CreatedAt:  s.now().UTC(),
	}
	s.files[file.FileHandle] = file
	return objectstore.Upload{
		CID:        id,
		FileHandle: file.FileHandle,
		Name:       name,
		Size:       file.SizeBytes,
		CreatedAt:  file.CreatedAt,
	}, nil
}

func (s *Store) CreateGroup(ctx context.Context, name string) (objectstore.Group, error) {
	if err := s.checkFault(ctx, objectstore.OpCreateGroup); err != nil {
		return objectstore.Group{}, err
	}
	group := objectstore.Group{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.ID] = group
	return group, nil
}

func (s *Store) AddFilesToGroup(ctx context.Context, groupID string, fileHandles []string) ([]objectstore.AddResult, error) {
	if err := s.checkFault(ctx, objectstore.OpAddFiles); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID]; !ok {
		return nil, objectstore.NewError(objectstore.ErrorNotFound, objectstore.OpAddFiles, "group not found", nil)
	}
	results := make([]objectstore.AddResult, 0, len(fileHandles))
	for _, handle := range fileHandles {
		file, ok := s.files[handle]
		if !ok {
			results = append(results, objectstore.AddResult{FileHandle: handle, Status: "NOT_FOUND"})
			continue
		}
		if file.GroupID != groupID {
			if file.GroupID != "" {
				s.removeMember(file.GroupID, handle)
			}
			file.GroupID = groupID
			s.files[handle] = file
			s.members[groupID] = append(s.members[groupID], handle)
		}
		results = append(results, objectstore.AddResult{FileHandle: handle, Status: objectstore.StatusOK})
	}
	return results, nil
}

// removeMember drops handle from a group's member list. Callers hold s.mu.
func (s *Store) removeMember(groupID, handle string) {
	members := s.members[groupID]
	for i, h := range members {
		if h == handle {
			s.members[groupID] = append(members[:i:i], members[i+1:]...)
			return
		}
	}
}

func (s *Store) ListGroupFiles(ctx context.Context, groupID string) ([]objectstore.File, error) {
	if err := s.checkFault(ctx, objectstore.OpListFiles); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.groups[groupID]; !ok {
		return nil, objectstore.NewError(objectstore.ErrorNotFound, objectstore.OpListFiles, "group not found", nil)
	}
	handles := s.members[groupID]
	files := make([]objectstore.File, 0, len(handles))
	for _, h := range handles {
		files = append(files, s.files[h])
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})
	return files, nil
}

// Object returns the bytes stored under cid.
func (s *Store) Object(cid string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[cid]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// FileCount returns the number of uploads recorded, orphans included.
func (s *Store) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
