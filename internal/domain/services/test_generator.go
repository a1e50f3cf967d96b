package services

import (
	"fmt"
	"math"
	"strings"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/pkg/filetree"
)

// TestsFolder 测试文件写入的目录名
const TestsFolder = "__tests__"

// TestGenerator 为组件、工具函数和 hooks 生成 Jest 测试
type TestGenerator struct{}

// NewTestGenerator 创建测试生成器
func NewTestGenerator() *TestGenerator {
	return &TestGenerator{}
}

func isTestFile(name, path string) bool {
	return strings.Contains(name, ".test.") || strings.Contains(name, ".spec.") ||
		strings.Contains(path, "/"+TestsFolder+"/")
}

// IsComponentTarget .jsx 文件，或同时包含 function 与 return 的 .js 文件
func IsComponentTarget(name, path, content string) bool {
	if isTestFile(name, path) {
		return false
	}
	if strings.HasSuffix(name, ".jsx") {
		return true
	}
	return strings.HasSuffix(name, ".js") &&
		strings.Contains(content, "function ") && strings.Contains(content, "return")
}

// IsUtilityTarget utils、helpers 或 services 目录下的 .js 文件
func IsUtilityTarget(name, path, _ string) bool {
	if isTestFile(name, path) || !strings.HasSuffix(name, ".js") {
		return false
	}
	dir := strings.TrimSuffix(path, name)
	return strings.Contains(dir, "utils") || strings.Contains(dir, "helpers") || strings.Contains(dir, "services")
}

// IsHookTarget 以 use 开头的 .js/.ts 文件
func IsHookTarget(name, path, _ string) bool {
	if isTestFile(name, path) {
		return false
	}
	return strings.HasPrefix(name, "use") && (strings.HasSuffix(name, ".js") || strings.HasSuffix(name, ".ts"))
}

func isSourceFile(name, path, _ string) bool {
	if isTestFile(name, path) {
		return false
	}
	for _, ext := range []string{".js", ".jsx", ".ts", ".tsx"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Generate 生成测试套件，同一个目标文件被多个规则命中时后面的规则覆盖前面的
func (g *TestGenerator) Generate(root *filetree.Node) *models.TestSuite {
	byTarget := make(map[string]int)
	var tests []models.TestFile
	add := func(t models.TestFile) {
		if i, ok := byTarget[t.TargetPath]; ok {
			tests[i] = t
			return
		}
		byTarget[t.TargetPath] = len(tests)
		tests = append(tests, t)
	}

	for _, e := range filetree.Collect(root, IsComponentTarget) {
		name := baseName(e.Name)
		add(models.TestFile{Name: name + ".test.js", TargetPath: e.Path, Kind: models.TestComponent, Content: componentTest(name, e.Content)})
	}
	for _, e := range filetree.Collect(root, IsUtilityTarget) {
		name := baseName(e.Name)
		add(models.TestFile{Name: name + ".test.js", TargetPath: e.Path, Kind: models.TestUtility, Content: utilityTest(name)})
	}
	for _, e := range filetree.Collect(root, IsHookTarget) {
		name := baseName(e.Name)
		add(models.TestFile{Name: name + ".test.js", TargetPath: e.Path, Kind: models.TestHook, Content: hookTest(name)})
	}

	return &models.TestSuite{
		Tests:      tests,
		JestConfig: jestConfig,
		SetupTests: setupTests,
		Quality:    g.Analyze(root, len(byTarget)),
		Scripts: map[string]string{
			"test":          "jest --watchAll=false",
			"test:watch":    "jest --watch",
			"test:coverage": "jest --coverage",
		},
	}
}

// Analyze 统计代码质量指标，覆盖率按被测试的源文件比例估算
func (g *TestGenerator) Analyze(root *filetree.Node, tested int) models.CodeQuality {
	q := models.CodeQuality{
		TotalFiles: filetree.CountFiles(root),
		TotalLines: filetree.CountLines(root),
	}
	if q.TotalFiles > 0 {
		q.AvgLinesPerFile = math.Round(float64(q.TotalLines)/float64(q.TotalFiles)*10) / 10
	}
	for _, e := range filetree.Collect(root, IsComponentTarget) {
		q.ComponentCount++
		if strings.Contains(e.Content, "useState") {
			q.StatefulCount++
		}
		if strings.Contains(e.Content, "useEffect") {
			q.EffectCount++
		}
	}
	if sources := len(filetree.Collect(root, isSourceFile)); sources > 0 {
		q.EstimatedCoverage = min(100, tested*100/sources)
	}
	return q
}

// AttachTests 把测试写入 __tests__/ 目录，已有目录会被整体替换。重名文件加上父目录前缀
func (g *TestGenerator) AttachTests(root *filetree.Node, suite *models.TestSuite) (*filetree.Node, error) {
	folder := filetree.NewFolder(TestsFolder)
	used := make(map[string]bool)
	for _, t := range suite.Tests {
		name := t.Name
		if used[name] {
			segs := filetree.SplitPath(t.TargetPath)
			if len(segs) >= 2 {
				name = segs[len(segs)-2] + "." + name
			}
			for i := 2; used[name]; i++ {
				name = fmt.Sprintf("%d.%s", i, t.Name)
			}
		}
		used[name] = true
		folder.Children = append(folder.Children, filetree.NewFile(name, t.Content))
	}
	folder.Children = append(folder.Children,
		filetree.NewFile("jest.config.js", suite.JestConfig),
		filetree.NewFile("setupTests.js", suite.SetupTests),
	)
	return filetree.ReplaceSubtree(root, TestsFolder, folder)
}

func componentTest(name, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `import React from 'react';
import { render, screen, waitFor } from '@testing-library/react';
import userEvent from '@testing-library/user-event';
import '@testing-library/jest-dom';
import %[1]s from './%[1]s';

describe('%[1]s', () => {
  it('renders without crashing', () => {
    const { container } = render(<%[1]s />);
    expect(container).toBeInTheDocument();
  });
`, name)
	if strings.Contains(content, "props.") {
		fmt.Fprintf(&b, `
  it('handles props correctly', () => {
    const mockProps = { title: 'Test Title', onClick: jest.fn() };
    render(<%s {...mockProps} />);
  });
`, name)
	}
	if strings.Contains(content, "useState") {
		fmt.Fprintf(&b, `
  it('manages state updates correctly', async () => {
    const user = userEvent.setup();
    render(<%s />);
    const buttons = screen.queryAllByRole('button');
    if (buttons.length > 0) {
      await user.click(buttons[0]);
    }
  });
`, name)
	}
	if strings.Contains(content, "useEffect") {
		fmt.Fprintf(&b, `
  it('handles side effects properly', async () => {
    render(<%s />);
    await waitFor(() => {
      expect(screen.queryByText(/loading/i)).not.toBeInTheDocument();
    });
  });
`, name)
	}
	fmt.Fprintf(&b, `
  it('matches snapshot', () => {
    const { container } = render(<%s />);
    expect(container.firstChild).toMatchSnapshot();
  });
});
`, name)
	return b.String()
}

func utilityTest(name string) string {
	return fmt.Sprintf(`import { %[1]s } from './%[1]s';

describe('%[1]s', () => {
  it('is defined and exported', () => {
    expect(%[1]s).toBeDefined();
    expect(typeof %[1]s).toBe('function');
  });

  it('handles edge cases', () => {
    expect(() => %[1]s(null)).not.toThrow();
    expect(() => %[1]s(undefined)).not.toThrow();
    expect(() => %[1]s('')).not.toThrow();
  });

  it('handles multiple calls consistently', () => {
    const input = 'test input';
    expect(%[1]s(input)).toEqual(%[1]s(input));
  });
});
`, name)
}

func hookTest(name string) string {
	return fmt.Sprintf(`import { renderHook, act } from '@testing-library/react';
import %[1]s from './%[1]s';

describe('%[1]s', () => {
  it('initializes with default state', () => {
    const { result } = renderHook(() => %[1]s());
    expect(result.current).toBeDefined();
  });

  it('cleans up properly on unmount', () => {
    const { unmount } = renderHook(() => %[1]s());
    expect(() => unmount()).not.toThrow();
  });

  it('handles re-renders correctly', () => {
    const { result, rerender } = renderHook(() => %[1]s());
    rerender();
    expect(result.current).toBeDefined();
  });
});
`, name)
}

const jestConfig = `module.exports = {
  testEnvironment: 'jsdom',
  setupFilesAfterEnv: ['<rootDir>/src/setupTests.js'],
  moduleNameMapper: {
    '\\.(css|less|scss|sass)$': 'identity-obj-proxy',
    '\\.(jpg|jpeg|png|gif|svg)$': '<rootDir>/__mocks__/fileMock.js'
  },
  transform: {
    '^.+\\.(js|jsx|ts|tsx)$': ['babel-jest', {
      presets: ['@babel/preset-env', '@babel/preset-react']
    }],
  },
  collectCoverageFrom: [
    'src/**/*.{js,jsx,ts,tsx}',
    '!src/index.js',
    '!src/**/*.test.{js,jsx}',
    '!src/**/__tests__/**'
  ],
  testMatch: [
    '**/__tests__/**/*.[jt]s?(x)',
    '**/?(*.)+(spec|test).[jt]s?(x)'
  ],
  moduleDirectories: ['node_modules', 'src'],
  testTimeout: 10000
};
`

const setupTests = `import '@testing-library/jest-dom';

Object.defineProperty(window, 'matchMedia', {
  writable: true,
  value: jest.fn().mockImplementation(query => ({
    matches: false,
    media: query,
    onchange: null,
    addListener: jest.fn(),
    removeListener: jest.fn(),
    addEventListener: jest.fn(),
    removeEventListener: jest.fn(),
    dispatchEvent: jest.fn(),
  })),
});

global.IntersectionObserver = class IntersectionObserver {
  constructor() {}
  disconnect() {}
  observe() {}
  takeRecords() {
    return [];
  }
  unobserve() {}
};
`
