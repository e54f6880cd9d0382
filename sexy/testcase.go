package sexy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType represents the type of input code fence in a Sexy test
type InputType string

const (
	InputTypeHexProgram InputType = "hex-program"
)

// AssertionType represents the type of assertion code fence in a Sexy test
type AssertionType string

const (
	AssertionTypeFlat         AssertionType = "flat"
	AssertionTypeTarget       AssertionType = "target"
	AssertionTypeExecute      AssertionType = "execute"
	AssertionTypeStack        AssertionType = "stack"
	AssertionTypeCompileError AssertionType = "compile-error"
)

// Assertion represents a single assertion in a Sexy test
type Assertion struct {
	Type       AssertionType // The type of assertion (flat, target, execute, ...)
	Content    string        // The raw content of the assertion code fence
	ParsedSexy []*Node       // Parsed data for flat, target and stack assertions
	Line       int
}

// TestCase represents a complete Sexy test case extracted from Markdown
type TestCase struct {
	Name       string      // The test name from the heading (after "Test: ")
	Input      string      // The raw input code from the input fence
	InputType  InputType   // The type of input fence
	Assertions []Assertion // All assertions for this test case
}

// ExtractTestCases parses a Markdown document and extracts all Sexy test cases
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	md := goldmark.New()
	source := []byte(markdownContent)

	doc := md.Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var currentTestCase *TestCase

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractTextFromNode(n, source)
			if !strings.HasPrefix(headingText, "Test: ") {
				return ast.WalkContinue, nil
			}
			if currentTestCase != nil {
				if err := validateTestCase(currentTestCase); err != nil {
					return ast.WalkStop, err
				}
				testCases = append(testCases, *currentTestCase)
			}
			currentTestCase = &TestCase{
				Name:       strings.TrimPrefix(headingText, "Test: "),
				Assertions: []Assertion{},
			}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			content := extractCodeBlockContent(n, source)
			lineNum := getLineNumber(n, source)

			if currentTestCase == nil {
				// Plain code blocks are documentation; tagged ones must belong to a test.
				if language == "" {
					return ast.WalkContinue, nil
				}
				if isInputFence(language) || isAssertionFence(language) {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", lineNum, language)
				}
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' found outside of test case", lineNum, language)
			}

			switch {
			case isInputFence(language):
				if currentTestCase.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences found in test '%s'", lineNum, currentTestCase.Name)
				}
				currentTestCase.Input = strings.TrimRight(content, "\n")
				currentTestCase.InputType = InputType(language)

			case isAssertionFence(language):
				assertion := Assertion{
					Type:    AssertionType(language),
					Content: strings.TrimRight(content, "\n"),
					Line:    lineNum,
				}
				if assertion.Type != AssertionTypeExecute && assertion.Type != AssertionTypeCompileError {
					parsed, err := ParseAll(assertion.Content)
					if err != nil {
						return ast.WalkStop, fmt.Errorf("line %d: failed to parse Sexy assertion in test '%s': %w", lineNum, currentTestCase.Name, err)
					}
					assertion.ParsedSexy = parsed
				}
				currentTestCase.Assertions = append(currentTestCase.Assertions, assertion)

			case language != "":
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", lineNum, language, currentTestCase.Name)
			}
		}

		return ast.WalkContinue, nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if currentTestCase != nil {
		if err := validateTestCase(currentTestCase); err != nil {
			return nil, err
		}
		testCases = append(testCases, *currentTestCase)
	}

	return testCases, nil
}

// Canonical renders a sequence of data the way Node.String does, one space
// between top-level items, so that formatting differences do not matter.
func Canonical(nodes []*Node) string {
	return joinItems(nodes)
}

// extractTextFromNode extracts plain text content from a markdown node
func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer

	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if text, ok := n.(*ast.Text); ok {
				buf.Write(text.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})

	return buf.String()
}

// extractCodeBlockContent extracts the content from a fenced code block
func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer

	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}

	return buf.String()
}

func isInputFence(language string) bool {
	return language == string(InputTypeHexProgram)
}

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionTypeFlat, AssertionTypeTarget, AssertionTypeExecute,
		AssertionTypeStack, AssertionTypeCompileError:
		return true
	}
	return false
}

// validateTestCase ensures a test case has both input and at least one assertion
func validateTestCase(testCase *TestCase) error {
	if testCase.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", testCase.Name)
	}
	if len(testCase.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", testCase.Name)
	}
	return nil
}

// getLineNumber calculates the line number of a given AST node
func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	startPos := node.Lines().At(0).Start
	lineNum := 1
	for i := 0; i < startPos && i < len(source); i++ {
		if source[i] == '\n' {
			lineNum++
		}
	}
	return lineNum
}
