package models

import "errors"

// ErrInvalidIdeation 缺少项目名称等必填字段
var ErrInvalidIdeation = errors.New("valid ideation is required")

// TechStack 技术栈
type TechStack struct {
	Frontend []string `json:"frontend"`
	Backend  []string `json:"backend"`
	Database []string `json:"database"`
	Other    []string `json:"other"`
}

// All 返回按分组顺序排列的全部技术
func (t TechStack) All() []string {
	var out []string
	out = append(out, t.Frontend...)
	out = append(out, t.Backend...)
	out = append(out, t.Database...)
	out = append(out, t.Other...)
	return out
}

// ColorScheme 配色方案
type ColorScheme struct {
	Primary     string `json:"primary"`
	Secondary   string `json:"secondary"`
	Accent      string `json:"accent"`
	Background  string `json:"background"`
	Text        string `json:"text"`
	Description string `json:"description"`
}

// StyleGuidelines 风格指南
type StyleGuidelines struct {
	Layout      string `json:"layout"`
	Typography  string `json:"typography"`
	Iconography string `json:"iconography"`
	Animation   string `json:"animation"`
}

// Ideation 表示模型生成的项目构思
type Ideation struct {
	ProjectName        string          `json:"projectName"`
	Description        string          `json:"description"`
	Features           []string        `json:"features"`
	TechStack          TechStack       `json:"techStack"`
	ColorScheme        ColorScheme     `json:"colorScheme"`
	StyleGuidelines    StyleGuidelines `json:"styleGuidelines"`
	UserFlow           []string        `json:"userFlow"`
	TargetAudience     string          `json:"targetAudience"`
	UniqueSellingPoint string          `json:"uniqueSellingPoint"`
}

// Validate 校验必填字段
func (i *Ideation) Validate() error {
	if i == nil || i.ProjectName == "" {
		return ErrInvalidIdeation
	}
	return nil
}
