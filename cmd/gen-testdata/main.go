// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// gen-testdata writes a synthetic graph element file: every node followed by
// its outgoing links, as a traversal would emit them.  The file is then read
// back and checked against the same pseudo-random sequence.
package main

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/bpowers/graphio"
	"github.com/bpowers/graphio/codec"
)

const hmacKey = "d259c7f656caf7f1"

type node struct {
	ID     uint32
	Degree uint32
	Key    [16]byte
}

type link struct {
	From, To uint32
	Weight   float32
}

var (
	outPath   = flag.String("o", "graph.data", "output file")
	nNodes    = flag.Int("nodes", 1000000, "number of nodes to generate")
	maxDegree = flag.Int("max-degree", 8, "maximum outgoing links per node")
	backend   = flag.String("backend", "mapped", "storage backend: file or mapped")
	inBackend = flag.String("verify-backend", "", "backend to read back with (default: same as -backend)")
	chunk     = flag.Int64("chunk", graphio.DefaultChunkSize, "growth chunk for the mapped backend")
	doubling  = flag.Bool("doubling", false, "grow mapped output by at least its current size")
	checksum  = flag.String("checksum", "", "prefix every element with a checksum: farm, xxh3 or blake2b")
	seed      = flag.Int64("seed", 0, "random seed (default: chosen at random)")
	verbose   = flag.Bool("v", false, "log mapping and growth events")
)

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func randomSeed() int64 {
	var seedBytes [8]byte
	if _, err := crand.Read(seedBytes[:]); err != nil {
		panic(err)
	}
	return int64(binary.LittleEndian.Uint64(seedBytes[:]))
}

// generator produces the same graph for the same seed.
type generator struct {
	rng *rand.Rand
	mac hashFunc
	n   int
}

type hashFunc func(id uint32) [16]byte

func newGenerator(seed int64, n int) *generator {
	h := hmac.New(sha256.New, []byte(hmacKey))
	return &generator{
		rng: newRand(seed),
		n:   n,
		mac: func(id uint32) (key [16]byte) {
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], id)
			h.Reset()
			h.Write(buf[:])
			copy(key[:], h.Sum(nil))
			return key
		},
	}
}

func (g *generator) node(id uint32, maxDegree int) node {
	return node{
		ID:     id,
		Degree: uint32(g.rng.Intn(maxDegree + 1)),
		Key:    g.mac(id),
	}
}

func (g *generator) link(from uint32) link {
	return link{
		From:   from,
		To:     uint32(g.rng.Intn(g.n)),
		Weight: g.rng.Float32(),
	}
}

func codecs(alg string) (codec.Codec[node], codec.Codec[link], error) {
	nodes, links := codec.Codec[node](codec.NewRaw[node]()), codec.Codec[link](codec.NewRaw[link]())
	if alg == "" {
		return nodes, links, nil
	}
	a, err := codec.ParseChecksumAlgorithm(alg)
	if err != nil {
		return nil, nil, err
	}
	return codec.NewChecksummed(nodes, a), codec.NewChecksummed(links, a), nil
}

func write(path string, b graphio.Backend, g *generator, opts []graphio.Option) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	nodes, links, err := codecs(*checksum)
	if err != nil {
		return err
	}
	out, err := graphio.NewOutput[node, link](f, b, nodes, links, opts...)
	if err != nil {
		return err
	}
	if m, ok := out.(*graphio.MapOutput[node, link]); ok {
		defer func() {
			stats := m.Stats()
			slog.Info("wrote mapped output", "len", stats.Len, "grows", stats.Grows)
		}()
		defer m.CloseOnExit(&err)
	} else {
		defer func() {
			if closeErr := out.Close(); err == nil {
				err = closeErr
			}
		}()
	}

	for i := 0; i < g.n; i++ {
		n := g.node(uint32(i), *maxDegree)
		if err := out.WriteNodeEl(&n); err != nil {
			return err
		}
		for j := uint32(0); j < n.Degree; j++ {
			l := g.link(n.ID)
			if err := out.WriteLinkEl(&l); err != nil {
				return err
			}
		}
	}
	return nil
}

func verify(path string, b graphio.Backend, g *generator, opts []graphio.Option) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	nodes, links, err := codecs(*checksum)
	if err != nil {
		return err
	}
	in, err := graphio.NewInput[node, link](f, b, nodes, links, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := in.Close(); err == nil {
			err = closeErr
		}
	}()

	var n node
	var l link
	for i := 0; i < g.n; i++ {
		expected := g.node(uint32(i), *maxDegree)
		if err := in.ReadNodeEl(&n); err != nil {
			return err
		}
		if n != expected {
			return fmt.Errorf("node %d: got %+v, expected %+v", i, n, expected)
		}
		for j := uint32(0); j < expected.Degree; j++ {
			want := g.link(n.ID)
			if err := in.ReadLinkEl(&l); err != nil {
				return err
			}
			if l != want {
				return fmt.Errorf("node %d link %d: got %+v, expected %+v", i, j, l, want)
			}
		}
	}

	// nothing should follow the last element
	if err := in.Read(make([]byte, 1)); err == nil {
		return fmt.Errorf("trailing data after %d nodes", g.n)
	}
	return nil
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *nNodes <= 0 || *maxDegree < 0 {
		slog.Error("-nodes must be positive and -max-degree non-negative")
		os.Exit(2)
	}
	outBackend, err := graphio.ParseBackend(*backend)
	if err != nil {
		slog.Error("bad -backend", "err", err)
		os.Exit(2)
	}
	readBackend := outBackend
	if *inBackend != "" {
		if readBackend, err = graphio.ParseBackend(*inBackend); err != nil {
			slog.Error("bad -verify-backend", "err", err)
			os.Exit(2)
		}
	}

	growth := graphio.GrowFixed
	if *doubling {
		growth = graphio.GrowDoubling
	}
	opts := []graphio.Option{
		graphio.WithLogger(logger),
		graphio.WithChunkSize(*chunk),
		graphio.WithGrowthPolicy(growth),
	}

	s := *seed
	if s == 0 {
		s = randomSeed()
	}
	slog.Info("generating graph", "path", *outPath, "nodes", *nNodes, "backend", outBackend, "seed", s)

	if err := write(*outPath, outBackend, newGenerator(s, *nNodes), opts); err != nil {
		slog.Error("write failed", "err", err)
		os.Exit(1)
	}
	if err := verify(*outPath, readBackend, newGenerator(s, *nNodes), opts); err != nil {
		slog.Error("verify failed", "err", err)
		os.Exit(1)
	}
	slog.Info("verified graph", "path", *outPath, "backend", readBackend)
}
