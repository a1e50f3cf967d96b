package models

import "time"

// StepStatus 工作流步骤状态
type StepStatus string

const (
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// WorkflowStep 工作流中的一个代理步骤
type WorkflowStep struct {
	Agent     string        `json:"agent"`
	Status    StepStatus    `json:"status"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time,omitempty"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Workflow 一次完整的 构思 -> 代码 -> 测试 -> 文档 流程
type Workflow struct {
	ID            string            `json:"id"`
	Status        StepStatus        `json:"status"`
	Steps         []WorkflowStep    `json:"steps"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time,omitempty"`
	Duration      time.Duration     `json:"duration"`
	Error         string            `json:"error,omitempty"`
	Ideation      *Ideation         `json:"ideation,omitempty"`
	Tree          *Node             `json:"tree,omitempty"`
	Documentation *DocumentationSet `json:"documentation,omitempty"`
	Tests         *TestSuite        `json:"tests,omitempty"`
	UsedFallback  bool              `json:"used_fallback,omitempty"`
}

// WorkflowOptions 工作流选项
type WorkflowOptions struct {
	IncludeTests bool `json:"includeTests"`
	SkipDocs     bool `json:"skipDocs"`
}
