package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/parser/tspool"
)

const maxTreeDepth = tspool.MaxTreeDepth

// nodeText returns the source text covered by node, or "" when the node's
// byte range lies outside source.
func nodeText(node *sitter.Node, source []byte) (text string) {
	if node == nil {
		return ""
	}
	end := node.EndByte()
	if node.StartByte() > end || end > uint32(len(source)) {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	return node.Content(source)
}

// nodeLocation converts a node's span to a location in uri.
// Lines are 1-based, columns and offsets are 0-based bytes.
func nodeLocation(node *sitter.Node, uri string) domain.Location {
	start, end := node.StartPoint(), node.EndPoint()
	return domain.Location{
		URI:       uri,
		Offset:    int(node.StartByte()),
		Length:    int(node.EndByte() - node.StartByte()),
		StartLine: int(start.Row) + 1,
		EndLine:   int(end.Row) + 1,
		StartCol:  int(start.Column),
		EndCol:    int(end.Column),
	}
}
