package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"project-scaffold-web/pkg/filetree"
)

var (
	fencePattern         = regexp.MustCompile("(?i)```json\\s*")
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)
	controlCharPattern   = regexp.MustCompile(`[\x00-\x1F]+`)
)

// ParseLLMJSON 尽力从模型输出中解析 JSON：
// 去掉代码块标记 -> 直接解析 -> 截取最外层 {...} -> 去掉尾逗号和控制字符后再解析
func ParseLLMJSON(content string, v any) error {
	content = fencePattern.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "```", "")
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), v); err == nil {
		return nil
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("模型输出中没有 JSON 对象: %w", filetree.ErrMalformedInput)
	}
	candidate := content[start : end+1]
	if err := json.Unmarshal([]byte(candidate), v); err == nil {
		return nil
	}

	fixed := trailingCommaPattern.ReplaceAllString(candidate, "$1")
	fixed = controlCharPattern.ReplaceAllString(fixed, "")
	if err := json.Unmarshal([]byte(fixed), v); err != nil {
		return fmt.Errorf("无法解析模型输出: %v: %w", err, filetree.ErrMalformedInput)
	}
	return nil
}

// ParseLLMTree 把模型输出修复成 JSON 后按文件树格式校验
func ParseLLMTree(content string, opts filetree.IngestOptions) (*filetree.Node, error) {
	var raw any
	if err := ParseLLMJSON(content, &raw); err != nil {
		return nil, err
	}
	return filetree.FromValueWithOptions(raw, opts)
}
