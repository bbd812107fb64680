// # internal/engine/parser/pool_test.go
package parser

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

func tsLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
}

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool(tsLanguage())

	sp := pool.Get()
	require.NotNil(t, sp)
	assert.Equal(t, 1, pool.Leased())

	pool.Put(sp)
	assert.Equal(t, 0, pool.Leased())

	// Put(nil) is a no-op.
	pool.Put(nil)
}

func TestParserPool_ParsesAfterReset(t *testing.T) {
	pool := NewParserPool(tsLanguage())

	sp := pool.Get()
	sp.Reset()
	pool.Put(sp)

	sp = pool.Get()
	defer pool.Put(sp)
	tree := sp.Parse([]byte("const xs: number[] = [1];\nxs.at(0);\n"), nil)
	require.NotNil(t, tree)
	defer tree.Close()
	assert.False(t, tree.RootNode().HasError())
}

func TestParserPool_OldestLease(t *testing.T) {
	pool := NewParserPool(tsLanguage())
	assert.Zero(t, pool.OldestLease(time.Now()))

	sp := pool.Get()
	defer pool.Put(sp)
	assert.GreaterOrEqual(t, pool.OldestLease(time.Now().Add(time.Second)), time.Second)
}

func TestParserPool_ConcurrentAccess(t *testing.T) {
	pool := NewParserPool(tsLanguage())
	src := []byte("class Stack extends Array {}\n")

	const goroutines = 16
	const iters = 25
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				sp := pool.Get()
				if tree := sp.Parse(src, nil); tree == nil {
					t.Errorf("expected non-nil parse tree")
				} else {
					tree.Close()
				}
				pool.Put(sp)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, pool.Leased())
}
