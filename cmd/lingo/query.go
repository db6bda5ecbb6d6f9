package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lingodb/lingo"
	"github.com/lingodb/lingo/internal/lingoutil"
)

// runQueryExpr opens the database at dbPath and runs the dot-chain
// expression expr against it, e.g. find(cat).similar(0.9).limit(5).
func runQueryExpr(dbPath, expr string) ([]lingo.NodeID, error) {
	if err := lingoutil.ValidateQuery(expr); err != nil {
		return nil, fmt.Errorf("invalid query expression: %w", err)
	}

	db, err := lingo.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	q, err := parseQueryExpr(expr)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}

	result, err := db.RunQuery(q)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	return result.Nodes, nil
}

// parseQueryExpr parses a dot-chain of calls into a QueryBuilder. Each call
// is name or name(arg); arguments never contain ')', and a '.' inside the
// parentheses (as in similar(0.9)) belongs to the argument. There is no
// reference grammar to follow here (spec §6.3 calls the CLI surface a thin
// adaptor implementers may design themselves), so this is a minimal,
// direct mapping onto QueryBuilder's fluent methods.
func parseQueryExpr(expr string) (*lingo.QueryBuilder, error) {
	calls, err := splitCalls(expr)
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, fmt.Errorf("empty query expression")
	}

	q := lingo.NewQuery()
	for _, c := range calls {
		if err := applyCall(q, c); err != nil {
			return nil, err
		}
	}
	return q, nil
}

type call struct {
	name string
	arg  string // empty if no parens
	has  bool   // whether parens were present at all
}

// splitCalls splits a.b(x).c into [{a,"",false}, {b,x,true}, {c,"",false}].
func splitCalls(expr string) ([]call, error) {
	var calls []call
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '.':
			if depth == 0 {
				parts = append(parts, expr[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, expr[start:])
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty call in expression")
		}
		open := strings.IndexByte(part, '(')
		if open < 0 {
			calls = append(calls, call{name: part})
			continue
		}
		if !strings.HasSuffix(part, ")") {
			return nil, fmt.Errorf("unterminated call %q", part)
		}
		calls = append(calls, call{
			name: strings.TrimSpace(part[:open]),
			arg:  strings.TrimSpace(part[open+1 : len(part)-1]),
			has:  true,
		})
	}
	return calls, nil
}

func applyCall(q *lingo.QueryBuilder, c call) error {
	switch c.name {
	case "find":
		if !c.has || c.arg == "" {
			return fmt.Errorf("find requires a word argument")
		}
		q.Find(c.arg)
	case "findid":
		id, err := parseUint(c.arg)
		if err != nil {
			return fmt.Errorf("findid: %w", err)
		}
		q.FindByID(lingo.NodeID(id))
	case "similar":
		if !c.has || c.arg == "" {
			q.Similar()
			return nil
		}
		t, err := strconv.ParseFloat(c.arg, 32)
		if err != nil {
			return fmt.Errorf("similar: %w", err)
		}
		q.SimilarThreshold(float32(t))
	case "neighbors":
		r, err := strconv.ParseFloat(c.arg, 32)
		if err != nil {
			return fmt.Errorf("neighbors: %w", err)
		}
		q.SpatialNeighbors(float32(r))
	case "layerup":
		if !c.has || c.arg == "" {
			q.LayerUp()
			return nil
		}
		n, err := parseUint(c.arg)
		if err != nil {
			return fmt.Errorf("layerup: %w", err)
		}
		q.LayerUpN(uint16(n))
	case "layerdown":
		if !c.has || c.arg == "" {
			q.LayerDown()
			return nil
		}
		n, err := parseUint(c.arg)
		if err != nil {
			return fmt.Errorf("layerdown: %w", err)
		}
		q.LayerDownN(uint16(n))
	case "follow":
		if !c.has || c.arg == "" {
			q.FollowConnection()
			return nil
		}
		rank, err := parseUint(c.arg)
		if err != nil {
			return fmt.Errorf("follow: %w", err)
		}
		q.FollowNth(uint16(rank))
	case "followtype":
		connType, ok := connectionNames[c.arg]
		if !ok {
			return fmt.Errorf("followtype: unknown connection type %q", c.arg)
		}
		q.FollowConnectionType(connType)
	case "bidirectional":
		q.Bidirectional()
	case "filter":
		q.Filter()
	case "sort":
		q.Sort()
	case "limit":
		n, err := parseUint(c.arg)
		if err != nil {
			return fmt.Errorf("limit: %w", err)
		}
		if err := lingoutil.ValidateLimit(int(n)); err != nil {
			return fmt.Errorf("limit: %w", err)
		}
		q.Limit(uint16(n))
	case "dedup":
		q.Deduplicate()
	default:
		return fmt.Errorf("unknown query call %q", c.name)
	}
	return nil
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 32)
}
