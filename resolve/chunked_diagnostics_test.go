package resolve

import (
	"path/filepath"
	"testing"

	"github.com/pynder/pynder/internal/chunkedfile"
	"github.com/pynder/pynder/syntax"
)

// TestChunkedDiagnostics drives the chunked-fixture format used for
// expected-diagnostic tables against a couple of hand-built statements,
// one per chunk. There's no lexer in this module, so each chunk's
// annotated source text documents the scenario for a reader rather than
// being parsed itself; the statement fed to Bind is built directly, at
// the same line its chunk's "###" annotation names.
func TestChunkedDiagnostics(t *testing.T) {
	filename := filepath.Join("testdata", "diagnostics.chunked")
	chunks := chunkedfile.Read(filename, t)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}

	bindAndReport := func(chunk *chunkedfile.Chunk, st syntax.Stmt) {
		fi, sink := newTestFileInfo()
		module := &syntax.Module{Body: []syntax.Stmt{st}}
		Bind(module, fi, syntax.NewAttachments())
		for _, d := range sink.Diagnostics {
			chunk.GotError(int(d.Range.Start.Line), d.Message)
		}
		chunk.Done()
	}

	bindAndReport(&chunks[0], &syntax.NonlocalStmt{
		Pos:   syntax.Position{Line: 1, Col: 1},
		Names: []*syntax.Ident{{NamePos: syntax.Position{Line: 1, Col: 10}, Name: "x"}},
	})

	bindAndReport(&chunks[1], &syntax.RaiseStmt{
		Pos: syntax.Position{Line: 3, Col: 1},
	})
}
