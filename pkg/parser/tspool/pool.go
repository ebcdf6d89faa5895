// Package tspool provides tree-sitter Java parsers for concurrent parsing.
//
// Note: parsers are not pooled. When a context is cancelled during ParseCtx, the parser's
// internal cancel flag is set but not reset, causing subsequent parses to fail with
// "operation limit was hit". Creating fresh parsers avoids this issue.
//
// Thread-safety: Parsers returned by Get are NOT safe for concurrent use.
// Each goroutine must Get its own parser or use the Parse helper.
package tspool

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// MaxTreeDepth is the maximum recursion depth when walking AST trees.
const MaxTreeDepth = 1000

var (
	javaLang *sitter.Language
	langOnce sync.Once
)

// Language returns the tree-sitter Java grammar.
func Language() *sitter.Language {
	langOnce.Do(func() {
		javaLang = java.GetLanguage()
	})
	return javaLang
}

// Get returns a Java parser.
// The returned parser is NOT safe for concurrent use.
// Caller MUST call parser.Close() when done to free resources.
func Get() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(Language())
	return parser
}

// Parse parses Java source using a fresh parser.
// Caller MUST call tree.Close() to free resources.
func Parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	parser := Get()
	defer parser.Close()

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse java failed: %w", err)
	}

	return tree, nil
}
