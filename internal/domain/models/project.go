package models

import (
	"errors"
	"strings"
	"time"

	"project-scaffold-web/pkg/filetree"
)

// ErrProjectNotFound 项目不存在
var ErrProjectNotFound = errors.New("project not found")

// ProjectStatus 项目状态
type ProjectStatus string

const (
	StatusDraft      ProjectStatus = "draft"
	StatusGenerating ProjectStatus = "generating"
	StatusReady      ProjectStatus = "ready"
	StatusFailed     ProjectStatus = "failed"
)

// Valid 判断状态是否合法
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusGenerating, StatusReady, StatusFailed:
		return true
	}
	return false
}

// Project 一个用户项目，持有唯一的文件树
type Project struct {
	ID        string         `json:"id"`
	Owner     string         `json:"owner,omitempty"`
	Name      string         `json:"name"`
	Prompt    string         `json:"prompt,omitempty"`
	Status    ProjectStatus  `json:"status"`
	Ideation  *Ideation      `json:"ideation,omitempty"`
	Tree      *filetree.Node `json:"tree"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ProjectSummary 项目列表中的一项
type ProjectSummary struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    ProjectStatus  `json:"status"`
	Stats     filetree.Stats `json:"stats"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Summary 生成列表摘要
func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{
		ID:        p.ID,
		Name:      p.Name,
		Status:    p.Status,
		Stats:     filetree.Summarize(p.Tree),
		UpdatedAt: p.UpdatedAt,
	}
}

// ProjectFilter 列表过滤条件
type ProjectFilter struct {
	Owner  string
	Status ProjectStatus
	Query  string
}

// Match 判断项目是否满足过滤条件，Query 对名称做不区分大小写的子串匹配
func (f ProjectFilter) Match(p *Project) bool {
	if f.Owner != "" && p.Owner != f.Owner {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query)) {
		return false
	}
	return true
}

// Clone 复制项目，文件树深拷贝
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Tree = filetree.Clone(p.Tree)
	return &cp
}
