// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package graphio

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/graphio/codec"
)

type testNode struct {
	ID     uint32
	Weight float32
	Kind   uint8
	_      [3]byte
}

type testLink struct {
	From, To uint32
	Label    [8]byte
}

const (
	testNodeSize = 12
	testLinkSize = 16
)

// testGraph is a flat list of elements in the order a traversal would emit
// them: every node followed by its outgoing links.
type testGraph struct {
	nodes []testNode
	links [][]testLink
}

func newTestGraph(nNodes int) testGraph {
	g := testGraph{
		nodes: make([]testNode, nNodes),
		links: make([][]testLink, nNodes),
	}
	for i := range g.nodes {
		g.nodes[i] = testNode{ID: uint32(i), Weight: float32(i) / 3, Kind: uint8(i % 5)}
		for j := 0; j < i%4; j++ {
			l := testLink{From: uint32(i), To: uint32((i + j + 1) % nNodes)}
			copy(l.Label[:], fmt.Sprintf("e%d-%d", i, j))
			g.links[i] = append(g.links[i], l)
		}
	}
	return g
}

func (g testGraph) byteLen(nodeSize, linkSize int) int64 {
	n := int64(len(g.nodes) * nodeSize)
	for _, links := range g.links {
		n += int64(len(links) * linkSize)
	}
	return n
}

func writeTestGraph(t testing.TB, out Output[testNode, testLink], g testGraph) {
	for i := range g.nodes {
		require.NoError(t, out.WriteNodeEl(&g.nodes[i]))
		for j := range g.links[i] {
			require.NoError(t, out.WriteLinkEl(&g.links[i][j]))
		}
	}
}

func readTestGraph(t testing.TB, in Input[testNode, testLink], g testGraph) {
	for i := range g.nodes {
		var n testNode
		require.NoError(t, in.ReadNodeEl(&n))
		require.Equal(t, g.nodes[i], n)
		for j := range g.links[i] {
			var l testLink
			require.NoError(t, in.ReadLinkEl(&l))
			require.Equal(t, g.links[i][j], l)
		}
	}
}

// newTestFile creates an empty read-write file that is closed when the test ends.
func newTestFile(t testing.TB) *os.File {
	f, err := os.CreateTemp(t.TempDir(), "graphio-test.*.data")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = f.Close()
	})
	return f
}

func fileSize(t testing.TB, f *os.File) int64 {
	stat, err := f.Stat()
	require.NoError(t, err)
	return stat.Size()
}

type testCodecs struct {
	name     string
	nodes    codec.Codec[testNode]
	links    codec.Codec[testLink]
	nodeSize int
	linkSize int
}

func allTestCodecs() []testCodecs {
	return []testCodecs{
		{"raw", codec.NewRaw[testNode](), codec.NewRaw[testLink](), testNodeSize, testLinkSize},
		{"binary", codec.Binary[testNode]{}, codec.Binary[testLink]{}, testNodeSize, testLinkSize},
		{
			"checksummed",
			codec.NewChecksummed[testNode](codec.NewRaw[testNode](), codec.ChecksumFarm),
			codec.NewChecksummed[testLink](codec.Binary[testLink]{}, codec.ChecksumXXH3),
			testNodeSize + 4,
			testLinkSize + 4,
		},
	}
}

func TestRoundTrip(t *testing.T) {
	g := newTestGraph(500)
	backends := []Backend{BackendFile, BackendMapped}

	for _, codecs := range allTestCodecs() {
		for _, outBackend := range backends {
			for _, inBackend := range backends {
				name := fmt.Sprintf("%s/%s-to-%s", codecs.name, outBackend, inBackend)
				t.Run(name, func(t *testing.T) {
					f := newTestFile(t)

					out, err := NewOutput[testNode, testLink](f, outBackend, codecs.nodes, codecs.links, WithChunkSize(256))
					require.NoError(t, err)
					writeTestGraph(t, out, g)
					require.NoError(t, out.Close())

					// the on-disk layout is the same whichever backend wrote it
					expectedLen := g.byteLen(codecs.nodeSize, codecs.linkSize)
					require.Equal(t, expectedLen, fileSize(t, f))

					_, err = f.Seek(0, 0)
					require.NoError(t, err)
					in, err := NewInput[testNode, testLink](f, inBackend, codecs.nodes, codecs.links)
					require.NoError(t, err)
					readTestGraph(t, in, g)

					pos, err := in.TellG()
					require.NoError(t, err)
					assert.Equal(t, expectedLen, pos)

					// everything has been consumed
					var extra testNode
					err = in.ReadNodeEl(&extra)
					require.Error(t, err)
					assert.Equal(t, KindInput, KindOf(err))
					require.NoError(t, in.Close())
				})
			}
		}
	}
}

func TestRoundTrip_VariableLength(t *testing.T) {
	type doc struct {
		Name  string            `json:"name"`
		Attrs map[string]string `json:"attrs,omitempty"`
	}
	values := [][]byte{
		[]byte("short"),
		bytes.Repeat([]byte{0xab}, 3000),
		{},
		[]byte("after a big one"),
	}
	docs := []doc{
		{Name: "a", Attrs: map[string]string{"color": "red"}},
		{Name: "b"},
		{Name: string(bytes.Repeat([]byte("n"), 500))},
		{Name: "d", Attrs: map[string]string{"x": "1", "y": "2"}},
	}

	for _, backend := range []Backend{BackendFile, BackendMapped} {
		t.Run(backend.String(), func(t *testing.T) {
			f := newTestFile(t)
			nodes := codec.JSON[doc]{}
			links := codec.NewChecksummed[[]byte](codec.Bytes{}, codec.ChecksumBlake2b)

			out, err := NewOutput[doc, []byte](f, backend, nodes, links, WithChunkSize(64))
			require.NoError(t, err)
			for i := range docs {
				require.NoError(t, out.WriteNodeEl(&docs[i]))
				require.NoError(t, out.WriteLinkEl(&values[i]))
			}
			require.NoError(t, out.Close())

			_, err = f.Seek(0, 0)
			require.NoError(t, err)
			in, err := NewInput[doc, []byte](f, backend, nodes, links)
			require.NoError(t, err)
			// read into the same variables throughout, as a deserializer would
			var d doc
			var v []byte
			for i := range docs {
				require.NoError(t, in.ReadNodeEl(&d))
				require.NoError(t, in.ReadLinkEl(&v))
				assert.Equal(t, docs[i], d)
				assert.Equal(t, string(values[i]), string(v))
			}
			require.NoError(t, in.Close())
		})
	}
}

func TestNewOutput_Errors(t *testing.T) {
	f := newTestFile(t)
	nodes, links := codec.NewRaw[testNode](), codec.NewRaw[testLink]()

	_, err := NewOutput[testNode, testLink](f, Backend(7), nodes, links)
	require.ErrorIs(t, err, ErrInvalidOption)
	_, err = NewInput[testNode, testLink](f, Backend(7), nodes, links)
	require.ErrorIs(t, err, ErrInvalidOption)

	for _, backend := range []Backend{BackendFile, BackendMapped} {
		_, err = NewOutput[testNode, testLink](f, backend, nil, links)
		require.ErrorIs(t, err, ErrInvalidOption)
		_, err = NewInput[testNode, testLink](f, backend, nodes, nil)
		require.ErrorIs(t, err, ErrInvalidOption)
	}

	_, err = NewOutput[testNode, testLink](f, BackendMapped, nodes, links, WithChunkSize(0))
	require.ErrorIs(t, err, ErrInvalidOption)
	_, err = NewOutput[testNode, testLink](f, BackendMapped, nodes, links, WithGrowthPolicy(GrowthPolicy(3)))
	require.ErrorIs(t, err, ErrInvalidOption)
}

func TestBackend_String(t *testing.T) {
	for _, b := range []Backend{BackendFile, BackendMapped} {
		parsed, err := ParseBackend(b.String())
		require.NoError(t, err)
		require.Equal(t, b, parsed)
	}
	_, err := ParseBackend("tape")
	require.ErrorIs(t, err, ErrInvalidOption)
	assert.Equal(t, "Backend(9)", Backend(9).String())
	assert.Equal(t, "doubling", GrowDoubling.String())
	assert.Equal(t, "GrowthPolicy(4)", GrowthPolicy(4).String())
}
