package memory

import (
	"context"
	"sort"
	"sync"

	"project-scaffold-web/internal/domain/models"
)

// ProjectStore 进程内项目存储，重启后数据丢失
type ProjectStore struct {
	mu       sync.RWMutex
	projects map[string]*models.Project
}

// NewProjectStore 创建内存存储
func NewProjectStore() *ProjectStore {
	return &ProjectStore{projects: make(map[string]*models.Project)}
}

// Create 保存新项目
func (s *ProjectStore) Create(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p.Clone()
	return nil
}

// Get 按 ID 读取项目
func (s *ProjectStore) Get(_ context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, models.ErrProjectNotFound
	}
	return p.Clone(), nil
}

// List 返回满足过滤条件的项目，按更新时间倒序
func (s *ProjectStore) List(_ context.Context, filter models.ProjectFilter) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if filter.Match(p) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Update 覆盖已有项目
func (s *ProjectStore) Update(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return models.ErrProjectNotFound
	}
	s.projects[p.ID] = p.Clone()
	return nil
}

// Delete 删除项目
func (s *ProjectStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return models.ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}
