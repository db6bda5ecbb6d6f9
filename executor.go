package lingo

import (
	"time"

	"github.com/lingodb/lingo/internal/bytecode"
	"github.com/lingodb/lingo/internal/config"
	"github.com/lingodb/lingo/internal/mmapfile"
	"github.com/lingodb/lingo/internal/spatial"
	"github.com/lingodb/lingo/internal/vm"
)

// QueryResult is a compiled query's execution outcome (spec §6.2).
type QueryResult struct {
	Nodes                []NodeID
	ExecutionTime        time.Duration
	InstructionsExecuted int
	CacheHit             bool
}

// Executor runs compiled queries against one database. Executors hold no
// cross-call state beyond the VM's reusable stack and register file, which
// is reset at the start of every Run.
type Executor struct {
	machine *vm.VM
}

func newExecutor(db *mmapfile.File, index *spatial.Index, cfg config.Config) *Executor {
	return &Executor{machine: vm.New(db, index, cfg)}
}

// Run executes a compiled query to completion.
func (e *Executor) Run(q bytecode.CompiledQuery) (QueryResult, error) {
	r, err := e.machine.Execute(q)
	if err != nil {
		return QueryResult{}, err
	}
	return QueryResult{
		Nodes:                r.Nodes,
		ExecutionTime:        r.ExecutionTime,
		InstructionsExecuted: r.InstructionsExecuted,
		CacheHit:             r.CacheHit,
	}, nil
}

// RunQuery builds and runs a query in one call.
func (db *Database) RunQuery(q *QueryBuilder) (QueryResult, error) {
	return db.NewExecutor().Run(q.Compile())
}
