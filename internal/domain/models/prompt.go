package models

// IdeationRequest 生成构思请求
type IdeationRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateCodeRequest 生成代码请求
type GenerateCodeRequest struct {
	Ideation *Ideation `json:"ideation"`
	Prompt   string    `json:"prompt"`
}

// WorkflowRequest 完整工作流请求
type WorkflowRequest struct {
	Prompt  string          `json:"prompt"`
	Options WorkflowOptions `json:"options"`
}

// GenerationConfig 模型采样参数
type GenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// Prompt 一次发给模型的完整请求
type Prompt struct {
	Text   string
	Config GenerationConfig
}
