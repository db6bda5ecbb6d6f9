// Package lingo provides the public API for LINGO, a single-file, embedded
// linguistic database: a memory-mapped reader, a builder for constructing
// new databases, a fluent query builder compiling to SLANG bytecode, and an
// adaptive spatial layout manager.
package lingo

import (
	"github.com/lingodb/lingo/internal/adaptive"
	"github.com/lingodb/lingo/internal/config"
	"github.com/lingodb/lingo/internal/core"
	"github.com/lingodb/lingo/internal/mmapfile"
	"github.com/lingodb/lingo/internal/spatial"
	"github.com/lingodb/lingo/internal/stringtable"
)

// NodeID identifies a node within a database. 0 is never valid.
type NodeID = core.NodeID

// Database is an open, read-only, memory-mapped Lingo file plus the
// spatial index rebuilt over it on open.
type Database struct {
	file  *mmapfile.File
	index *spatial.Index
	cfg   config.Config
}

// Open maps path and reconstructs its spatial index, using default tuning
// for the query VM and adaptive calibrator. The returned Database must be
// closed with Close when no longer needed.
func Open(path string) (*Database, error) {
	return OpenWithConfig(path, config.Default())
}

// OpenWithConfig is Open with explicit tuning for the query VM's execution
// cap and register file, and the adaptive calibrator's flexibility
// parameters.
func OpenWithConfig(path string, cfg config.Config) (*Database, error) {
	f, err := mmapfile.Open(path)
	if err != nil {
		return nil, err
	}
	idx, err := f.SpatialIndex()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Database{file: f, index: idx, cfg: cfg}, nil
}

// Close unmaps and closes the underlying file.
func (db *Database) Close() error {
	return db.file.Close()
}

// NodeCount returns the number of nodes stored in the database.
func (db *Database) NodeCount() int { return db.file.NodeCount() }

// ConnectionCount returns the number of connections stored in the database.
func (db *Database) ConnectionCount() int { return db.file.ConnectionCount() }

// Node returns the node with the given ID.
func (db *Database) Node(id NodeID) (core.Node, error) {
	return db.file.Node(id)
}

// FindByWord looks up a node by its exact text.
func (db *Database) FindByWord(word string) (NodeID, bool) {
	return db.file.FindByWord(word)
}

// Connections returns every connection owned by node.
func (db *Database) Connections(node core.Node) ([]core.Connection, error) {
	return db.file.NodeConnections(node)
}

// Children returns node's children in the vertical index.
func (db *Database) Children(node core.Node) ([]core.NodeID, error) {
	return db.file.Children(node)
}

// NewExecutor returns an Executor bound to this database.
func (db *Database) NewExecutor() *Executor {
	return newExecutor(db.file, db.index, db.cfg)
}

// NewQuery starts a fluent query against this database.
func (db *Database) NewQuery() *QueryBuilder {
	return newQueryBuilder()
}

// NewCalibrator returns a Calibrator seeded from this database's corpus,
// ready to learn placement patterns and suggest positions for new
// morphemes.
func (db *Database) NewCalibrator() (*Calibrator, error) {
	entries := make([]adaptive.CorpusEntry, 0, db.NodeCount())
	for i := 0; i < db.NodeCount(); i++ {
		n, err := db.file.Node(core.NodeID(i + 1))
		if err != nil {
			return nil, err
		}
		word, _ := db.file.StringTable().Get(stringtable.Ref{Offset: n.WordOffset, Length: n.WordLength})
		entries = append(entries, adaptive.CorpusEntry{
			Word:      word,
			Position:  n.Position,
			Type:      n.MorphemeType,
			Etymology: n.EtymologyOrigin,
		})
	}

	mgr := adaptive.NewWithConfig(db.cfg)
	mgr.LearnFromDatabase(entries)
	return &Calibrator{mgr: mgr}, nil
}
