package models

// DocumentationSet 生成的项目文档
type DocumentationSet struct {
	Readme        string `json:"readme"`
	APIDocs       string `json:"apiDocs"`
	ComponentDocs string `json:"componentDocs"`
	SetupGuide    string `json:"setupGuide"`
	Changelog     string `json:"changelog"`
}

// TestKind 测试目标类型
type TestKind string

const (
	TestComponent TestKind = "component"
	TestUtility   TestKind = "utility"
	TestHook      TestKind = "hook"
)

// TestFile 一个生成的测试文件
type TestFile struct {
	Name       string   `json:"name"`
	TargetPath string   `json:"targetPath"`
	Kind       TestKind `json:"kind"`
	Content    string   `json:"content"`
}

// CodeQuality 简单的代码质量指标
type CodeQuality struct {
	TotalFiles        int     `json:"totalFiles"`
	TotalLines        int     `json:"totalLines"`
	AvgLinesPerFile   float64 `json:"avgLinesPerFile"`
	ComponentCount    int     `json:"componentCount"`
	StatefulCount     int     `json:"statefulCount"`
	EffectCount       int     `json:"effectCount"`
	EstimatedCoverage int     `json:"estimatedCoverage"`
}

// TestSuite 生成的测试套件
type TestSuite struct {
	Tests      []TestFile        `json:"tests"`
	JestConfig string            `json:"jestConfig"`
	SetupTests string            `json:"setupTests"`
	Quality    CodeQuality       `json:"quality"`
	Scripts    map[string]string `json:"scripts"`
}

// Count 返回各类测试数量
func (s *TestSuite) Count(kind TestKind) int {
	n := 0
	for _, t := range s.Tests {
		if t.Kind == kind {
			n++
		}
	}
	return n
}
